package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"subwatch/internal/model"
)

const (
	redditTokenURL   = "https://www.reddit.com/api/v1/access_token"
	redditOAuthBase  = "https://oauth.reddit.com"
	redditListingMax = 100

	// Window size comfortably larger than one listing page, so an item
	// is never re-yielded just because it scrolled back into view.
	redditSeenWindow = 500
)

// Credentials holds the Reddit script-app credentials used for the
// OAuth2 password grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Reddit is a Source that polls a subreddit's new-submission listing via
// the authenticated Reddit API.
type Reddit struct {
	client       HTTPClient
	creds        Credentials
	subreddits   string
	log          *slog.Logger
	limiter      *rate.Limiter
	pollInterval time.Duration

	token       string
	tokenExpiry time.Time

	seen    *seenWindow
	pending []*model.Submission
}

// NewReddit creates a Reddit source for the given subreddits (joined as
// a multireddit path). The limiter paces API requests to one per second.
func NewReddit(client HTTPClient, creds Credentials, subreddits []string, pollInterval time.Duration, log *slog.Logger) *Reddit {
	return &Reddit{
		client:       client,
		creds:        creds,
		subreddits:   strings.Join(subreddits, "+"),
		log:          log,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		pollInterval: pollInterval,
		seen:         newSeenWindow(redditSeenWindow),
	}
}

// Next returns the next unseen submission, polling the listing and
// sleeping between empty polls until one arrives or ctx is done.
// Transient fetch failures are logged and retried on the next poll.
func (r *Reddit) Next(ctx context.Context) (*model.Submission, error) {
	for {
		if len(r.pending) > 0 {
			sub := r.pending[0]
			r.pending = r.pending[1:]
			return sub, nil
		}
		if err := r.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.Warn("poll listing", "subreddits", r.subreddits, "error", err)
		}
		if len(r.pending) > 0 {
			continue
		}
		if err := waitTick(ctx, r.pollInterval); err != nil {
			return nil, err
		}
	}
}

// poll fetches the newest listing page and buffers unseen submissions
// oldest first.
func (r *Reddit) poll(ctx context.Context) error {
	if err := r.ensureToken(ctx); err != nil {
		return err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/r/%s/new?limit=%d&raw_json=1", redditOAuthBase, r.subreddits, redditListingMax)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("User-Agent", r.creds.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked or expired early; re-authenticate on next poll.
		r.token = ""
		r.tokenExpiry = time.Time{}
		return fmt.Errorf("listing request unauthorized")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var listing struct {
		Data struct {
			Children []struct {
				Data submissionData `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10*1024*1024)).Decode(&listing); err != nil {
		return fmt.Errorf("decode listing: %w", err)
	}

	// The listing is newest first; walk it backwards so submissions are
	// yielded in arrival order.
	children := listing.Data.Children
	for i := len(children) - 1; i >= 0; i-- {
		d := children[i].Data
		if d.ID == "" || !r.seen.add(d.ID) {
			continue
		}
		r.pending = append(r.pending, d.toSubmission())
	}
	return nil
}

// ensureToken fetches an OAuth2 token via the password grant when none
// is held or the held one is close to expiry.
func (r *Reddit) ensureToken(ctx context.Context) error {
	if r.token != "" && time.Until(r.tokenExpiry) > time.Minute {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {r.creds.Username},
		"password":   {r.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, redditTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(r.creds.ClientID, r.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.creds.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request status %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1024*1024)).Decode(&token); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("empty access token")
	}

	r.token = token.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	r.log.Debug("obtained api token", "expires_in", token.ExpiresIn)
	return nil
}

type submissionData struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	IsSelf     bool    `json:"is_self"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	CreatedUTC float64 `json:"created_utc"`
}

func (d submissionData) toSubmission() *model.Submission {
	permalink := d.Permalink
	if permalink != "" && !strings.HasPrefix(permalink, "http") {
		permalink = "https://www.reddit.com" + permalink
	}
	return &model.Submission{
		ID:        d.ID,
		Fullname:  d.Name,
		Title:     d.Title,
		Author:    d.Author,
		IsSelf:    d.IsSelf,
		Selftext:  d.Selftext,
		Subreddit: d.Subreddit,
		Permalink: permalink,
		URL:       d.URL,
		Created:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
	}
}
