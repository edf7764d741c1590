// Package pipeline wires the stream, matcher, dedup counter, and
// notification fan-out into the processing loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"subwatch/internal/counter"
	"subwatch/internal/match"
	"subwatch/internal/model"
	"subwatch/internal/notify"
	"subwatch/internal/rules"
	"subwatch/internal/stream"
)

// Outcome is the terminal state of processing one hit submission.
type Outcome int

// Possible outcomes of Controller.Process.
const (
	// OutcomeDispatched: first sighting, notification dispatched.
	OutcomeDispatched Outcome = iota
	// OutcomeSuppressed: already counted before, no notification.
	OutcomeSuppressed
	// OutcomeCounterUnavailable: the increment could not be confirmed,
	// so no notification was dispatched.
	OutcomeCounterUnavailable
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeCounterUnavailable:
		return "counter_unavailable"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Dispatcher fans a notification out to all transports.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notify.Notification)
}

// Controller decides, for each hit, whether to dispatch or suppress
// based on the durable hit counter.
type Controller struct {
	counter    counter.Store
	dispatcher Dispatcher
	log        *slog.Logger

	retryDelay time.Duration
	maxRetries uint64
}

// NewController creates a Controller with the default retry policy for
// the counter increment: 5 retries with a fixed 500ms delay.
func NewController(store counter.Store, dispatcher Dispatcher, log *slog.Logger) *Controller {
	return &Controller{
		counter:    store,
		dispatcher: dispatcher,
		log:        log,
		retryDelay: 500 * time.Millisecond,
		maxRetries: 5,
	}
}

// SetRetryDelay overrides the fixed delay between increment attempts
// (useful for testing).
func (c *Controller) SetRetryDelay(d time.Duration) {
	c.retryDelay = d
}

// Process increments the durable counter for the submission and
// dispatches a notification on the first sighting.
//
// Transient counter failures are retried on the fixed-delay policy;
// exhausting it yields OutcomeCounterUnavailable with the underlying
// error. A notification is never dispatched without a confirmed
// first-time increment. Once the increment has committed, transport
// failures cannot undo it; re-observing the same submission later is
// suppressed regardless of whether the notification was delivered.
func (c *Controller) Process(ctx context.Context, sub *model.Submission) (Outcome, error) {
	var count int64
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewConstant(c.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n, err := c.counter.Increment(ctx, sub.ID)
		if err != nil {
			if errors.Is(err, counter.ErrUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return OutcomeCounterUnavailable, fmt.Errorf("count sighting of %s: %w", sub.ID, err)
	}

	if count > 1 {
		c.log.Info("suppressing duplicate", "id", sub.ID, "sightings", count)
		return OutcomeSuppressed, nil
	}

	c.dispatcher.Dispatch(ctx, notify.FormatNotification(sub))
	return OutcomeDispatched, nil
}

// Runner pulls submissions from the stream one at a time, evaluates
// them against the rule set, and hands hits to the controller.
type Runner struct {
	source stream.Source
	rules  *rules.Set
	ctrl   *Controller
	log    *slog.Logger
}

// NewRunner creates a Runner over the given source, rule set, and controller.
func NewRunner(source stream.Source, rs *rules.Set, ctrl *Controller, log *slog.Logger) *Runner {
	return &Runner{source: source, rules: rs, ctrl: ctrl, log: log}
}

// Run processes the stream until ctx is cancelled. Each submission is
// fully evaluated and processed before the next is pulled. A counter
// failure is fatal for that submission only; the loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	for {
		sub, err := r.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("next submission: %w", err)
		}

		verdict := match.Evaluate(r.rules, sub)
		if !verdict.IsHit {
			r.log.Debug("no match", "id", sub.ID, "title", sub.Title,
				"title_matched", verdict.TitleMatched, "text_matched", verdict.TextMatched)
			continue
		}

		r.log.Info("hit", "id", sub.ID, "author", sub.Author, "title", sub.Title)

		outcome, err := r.ctrl.Process(ctx, sub)
		if err != nil {
			r.log.Error("process hit", "id", sub.ID, "outcome", outcome.String(), "error", err)
			continue
		}
		r.log.Info("processed hit", "id", sub.ID, "outcome", outcome.String())
	}
}
