package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	prowlAddURL    = "https://api.prowlapp.com/publicapi/add"
	prowlVerifyURL = "https://api.prowlapp.com/publicapi/verify"

	prowlAppName = "subwatch"
)

// Prowl sends push notifications through the Prowl public API.
type Prowl struct {
	client *http.Client
	apiKey string
}

// NewProwl creates a Prowl transport with the given API key.
func NewProwl(client *http.Client, apiKey string) *Prowl {
	return &Prowl{client: client, apiKey: apiKey}
}

// Name identifies the transport in logs.
func (p *Prowl) Name() string { return "prowl" }

// Verify checks the API key against the verify endpoint. Call it once
// at startup; a bad key is a configuration error, not a runtime one.
func (p *Prowl) Verify(ctx context.Context) error {
	endpoint := prowlVerifyURL + "?apikey=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create verify request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("verify key: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verify key: status %d", resp.StatusCode)
	}
	return nil
}

// Notify posts the notification to the add endpoint with priority 0.
func (p *Prowl) Notify(ctx context.Context, n Notification) error {
	form := url.Values{
		"apikey":      {p.apiKey},
		"application": {prowlAppName},
		"event":       {n.Title},
		"description": {n.Message},
		"priority":    {"0"},
	}
	if n.URL != "" {
		form.Set("url", n.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, prowlAddURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create add request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post notification: status %d", resp.StatusCode)
	}
	return nil
}
