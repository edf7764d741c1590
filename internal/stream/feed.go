package stream

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"subwatch/internal/model"
)

const feedSeenWindow = 500

// Feed is a Source that polls a public RSS/Atom feed. It needs no
// credentials and is the fallback when no API access is configured;
// subreddit listings expose one at /r/<name>/new.rss.
//
// Feeds carry less detail than the API: an entry with body content is
// treated as a self post with that content as its text, so text_match
// rules still work against feeds that publish post bodies.
type Feed struct {
	client       HTTPClient
	url          string
	userAgent    string
	log          *slog.Logger
	pollInterval time.Duration

	seen    *seenWindow
	pending []*model.Submission
}

// NewFeed creates a Feed source polling the given feed URL.
func NewFeed(client HTTPClient, feedURL, userAgent string, pollInterval time.Duration, log *slog.Logger) *Feed {
	return &Feed{
		client:       client,
		url:          feedURL,
		userAgent:    userAgent,
		log:          log,
		pollInterval: pollInterval,
		seen:         newSeenWindow(feedSeenWindow),
	}
}

// Next returns the next unseen feed entry as a submission, polling and
// sleeping between empty polls until one arrives or ctx is done.
func (f *Feed) Next(ctx context.Context) (*model.Submission, error) {
	for {
		if len(f.pending) > 0 {
			sub := f.pending[0]
			f.pending = f.pending[1:]
			return sub, nil
		}
		if err := f.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Warn("poll feed", "url", f.url, "error", err)
		}
		if len(f.pending) > 0 {
			continue
		}
		if err := waitTick(ctx, f.pollInterval); err != nil {
			return nil, err
		}
	}
}

func (f *Feed) poll(ctx context.Context) error {
	feed, err := f.fetch(ctx)
	if err != nil {
		return err
	}

	// Feeds list newest first; walk backwards for arrival order.
	for i := len(feed.Items) - 1; i >= 0; i-- {
		item := feed.Items[i]
		guid := itemGUID(item)
		if !f.seen.add(guid) {
			continue
		}
		f.pending = append(f.pending, itemToSubmission(item, guid))
	}
	return nil
}

// fetch downloads and parses the feed.
func (f *Feed) fetch(ctx context.Context) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// itemGUID returns the GUID for a feed entry.
// If the entry has no GUID, a SHA-256 hash of title+link is used.
func itemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}

func itemToSubmission(item *gofeed.Item, guid string) *model.Submission {
	body := item.Content
	if body == "" {
		body = item.Description
	}

	var author string
	if item.Author != nil {
		author = item.Author.Name
	}

	var created time.Time
	if item.PublishedParsed != nil {
		created = item.PublishedParsed.UTC()
	}

	return &model.Submission{
		ID:        guid,
		Title:     item.Title,
		Author:    author,
		IsSelf:    body != "",
		Selftext:  body,
		Permalink: item.Link,
		URL:       item.Link,
		Created:   created,
	}
}
