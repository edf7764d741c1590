// Package stream provides blocking submission stream sources.
//
// A source polls an external listing and yields submissions one at a
// time, oldest first, skipping anything it has already yielded during
// this process's lifetime. Dedup across restarts is not a source
// concern; the durable hit counter owns that.
package stream

import (
	"context"
	"net/http"
	"time"

	"subwatch/internal/model"
)

// Source yields submissions from a live, unbounded stream. Next blocks
// until a submission is available or ctx is done; absence of new
// submissions is not an error.
type Source interface {
	Next(ctx context.Context) (*model.Submission, error)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// seenWindow is a bounded FIFO set of submission IDs used to avoid
// re-yielding items that overlapping polls return again.
type seenWindow struct {
	order []string
	set   map[string]struct{}
	cap   int
}

func newSeenWindow(capacity int) *seenWindow {
	return &seenWindow{
		set: make(map[string]struct{}, capacity),
		cap: capacity,
	}
}

// add records id and reports whether it was newly added.
func (w *seenWindow) add(id string) bool {
	if _, ok := w.set[id]; ok {
		return false
	}
	w.set[id] = struct{}{}
	w.order = append(w.order, id)
	if len(w.order) > w.cap {
		evicted := w.order[0]
		w.order = w.order[1:]
		delete(w.set, evicted)
	}
	return true
}

// waitTick sleeps for d or until ctx is done.
func waitTick(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
