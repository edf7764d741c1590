package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"subwatch/internal/model"
)

type fakeNotifier struct {
	name string
	err  error
	sent []Notification
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(_ context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFanoutIsolatesTransportFailures(t *testing.T) {
	broken := &fakeNotifier{name: "broken", err: errors.New("api down")}
	working := &fakeNotifier{name: "working"}
	f := NewFanout(discardLogger(), broken, working)

	n := Notification{Title: "Hit", Message: "msg", URL: "https://example.com"}
	f.Dispatch(context.Background(), n)

	if diff := cmp.Diff([]Notification{n}, working.sent); diff != "" {
		t.Errorf("working transport mismatch (-want +got):\n%s", diff)
	}
}

func TestFanoutWithNoTransports(t *testing.T) {
	f := NewFanout(discardLogger())
	// Must not panic.
	f.Dispatch(context.Background(), Notification{Title: "Hit"})
}

func TestFormatNotification(t *testing.T) {
	tests := []struct {
		name string
		sub  model.Submission
		want Notification
	}{
		{
			name: "full submission",
			sub: model.Submission{
				ID:        "abc",
				Title:     "Battery Recall Notice",
				Author:    "alice",
				Subreddit: "news",
				Permalink: "https://www.reddit.com/r/news/comments/abc",
				URL:       "https://example.com/recall",
			},
			want: Notification{
				Title:   "Hit in r/news",
				Message: "/u/alice: (abc) Battery Recall Notice",
				URL:     "https://example.com/recall",
			},
		},
		{
			name: "missing author and subreddit",
			sub: model.Submission{
				ID:        "def",
				Title:     "Recall",
				Permalink: "https://www.reddit.com/r/news/comments/def",
			},
			want: Notification{
				Title:   "Hit",
				Message: "/u/[deleted]: (def) Recall",
				URL:     "https://www.reddit.com/r/news/comments/def",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatNotification(&tt.sub)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FormatNotification() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
