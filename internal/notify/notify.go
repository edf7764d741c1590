// Package notify defines the push-notification transports and the
// fan-out dispatcher that drives them.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"subwatch/internal/model"
)

// Notification is one message to push to every configured transport.
type Notification struct {
	Title   string
	Message string
	URL     string
}

// Notifier is a single push-notification transport.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Fanout dispatches a notification to all transports. A failing
// transport is logged and never blocks or fails the others; the caller
// never sees transport errors.
type Fanout struct {
	notifiers []Notifier
	log       *slog.Logger
}

// NewFanout creates a Fanout over the given transports.
func NewFanout(log *slog.Logger, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, log: log}
}

// Dispatch sends n to every transport.
func (f *Fanout) Dispatch(ctx context.Context, n Notification) {
	for _, nt := range f.notifiers {
		if err := nt.Notify(ctx, n); err != nil {
			f.log.Error("send notification", "transport", nt.Name(), "error", err)
			continue
		}
		f.log.Debug("notification sent", "transport", nt.Name())
	}
}

// FormatNotification builds the push notification for a hit submission.
func FormatNotification(sub *model.Submission) Notification {
	author := sub.Author
	if author == "" {
		author = "[deleted]"
	}
	title := "Hit"
	if sub.Subreddit != "" {
		title = fmt.Sprintf("Hit in r/%s", sub.Subreddit)
	}
	return Notification{
		Title:   title,
		Message: fmt.Sprintf("/u/%s: (%s) %s", author, sub.ID, sub.Title),
		URL:     sub.Link(),
	}
}
