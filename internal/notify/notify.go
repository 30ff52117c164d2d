// Package notify delivers watch alerts to every configured sink. Delivery is
// best effort: sink failures are logged and reported, never returned.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
)

var notifyLog = logging.ForComponent(logging.CompNotify)

// DefaultTimeout bounds a single sink delivery.
const DefaultTimeout = 5 * time.Second

// Alert is one idle/blocked notification.
type Alert struct {
	Session string
	Title   string
	Body    string

	// Severity is "info" for plain idle, "warning" for prompts and stalls.
	Severity string
	// Status is the alert-router status, e.g. "degraded".
	Status string
	// Host is the machine running the session.
	Host string
	// Fingerprint groups repeated alerts in the alert router.
	Fingerprint string
}

// Sink is a notification destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, a Alert) error
}

// Delivery is the outcome of one sink.
type Delivery struct {
	Sink string
	Err  error
	Took time.Duration
}

// Report lists the outcome of every sink in the order they were configured.
type Report struct {
	Deliveries []Delivery
}

// OK reports whether every sink succeeded.
func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the deliveries that errored.
func (r Report) Failed() []Delivery {
	var out []Delivery
	for _, d := range r.Deliveries {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Delivered counts successful sinks.
func (r Report) Delivered() int {
	return len(r.Deliveries) - len(r.Failed())
}

// Notifier fans an alert out to its sinks concurrently.
type Notifier struct {
	sinks   []Sink
	timeout time.Duration
}

// New returns a Notifier. Nil sinks are ignored.
func New(timeout time.Duration, sinks ...Sink) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	n := &Notifier{timeout: timeout}
	for _, s := range sinks {
		if s != nil {
			n.sinks = append(n.sinks, s)
		}
	}
	return n
}

// Notify sends a to every sink, each under its own timeout. A slow or
// failing sink never delays or cancels the others.
func (n *Notifier) Notify(ctx context.Context, a Alert) Report {
	report := Report{Deliveries: make([]Delivery, len(n.sinks))}

	var g errgroup.Group
	for i, sink := range n.sinks {
		i, sink := i, sink
		g.Go(func() error {
			report.Deliveries[i] = n.deliver(ctx, sink, a)
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range report.Deliveries {
		if d.Err != nil {
			notifyLog.Warn("sink_failed",
				slog.String("sink", d.Sink),
				slog.String("session", a.Session),
				slog.String("error", d.Err.Error()))
			continue
		}
		notifyLog.Info("sink_delivered",
			slog.String("sink", d.Sink),
			slog.String("session", a.Session),
			slog.Duration("took", d.Took))
	}
	return report
}

func (n *Notifier) deliver(ctx context.Context, sink Sink, a Alert) (d Delivery) {
	d.Sink = sink.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.Err = fmt.Errorf("%s panicked: %v: %w", d.Sink, r, apperr.ErrSinkFailure)
		}
		d.Took = time.Since(start)
	}()

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := sink.Send(ctx, a); err != nil {
		d.Err = fmt.Errorf("%s: %w: %w", d.Sink, apperr.ErrSinkFailure, err)
	}
	return d
}
