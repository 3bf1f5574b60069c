package services

import (
	"context"
	"errors"

	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/metrics"
	"go.uber.org/zap"
)

// EventHandler reacts to a committed event. A returned error is reported to
// the caller but never undoes the mutation that produced the event.
type EventHandler func(ctx context.Context, e events.Event) error

type SideEffectFailure struct {
	Event   events.Type `json:"event"`
	Handler string      `json:"handler"`
	Error   string      `json:"error"`
}

// SideEffectReport lists the post-commit side effects that failed.
type SideEffectReport struct {
	Failures []SideEffectFailure `json:"failures,omitempty"`
}

func (r SideEffectReport) OK() bool { return len(r.Failures) == 0 }

func (r *SideEffectReport) Merge(other SideEffectReport) {
	r.Failures = append(r.Failures, other.Failures...)
}

// Err flattens the report into one error, or nil when nothing failed.
func (r SideEffectReport) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, errors.New(string(f.Event)+"/"+f.Handler+": "+f.Error))
	}
	return errors.Join(errs...)
}

type namedHandler struct {
	name string
	fn   EventHandler
}

// Dispatcher runs handlers for events after the producing transaction
// committed, in registration order, then forwards each event to the sinks.
type Dispatcher struct {
	handlers map[events.Type][]namedHandler
	sinks    []events.Sink
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewDispatcher(log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		handlers: make(map[events.Type][]namedHandler),
		log:      log,
		metrics:  m,
	}
}

func (d *Dispatcher) On(t events.Type, name string, fn EventHandler) {
	d.handlers[t] = append(d.handlers[t], namedHandler{name: name, fn: fn})
}

func (d *Dispatcher) AddSink(s events.Sink) {
	d.sinks = append(d.sinks, s)
}

func (d *Dispatcher) Dispatch(ctx context.Context, evs ...events.Event) SideEffectReport {
	var report SideEffectReport
	if d == nil {
		return report
	}
	for _, e := range evs {
		for _, h := range d.handlers[e.Type] {
			if err := h.fn(ctx, e); err != nil {
				d.fail(&report, e, h.name, err)
			}
		}
		for _, s := range d.sinks {
			if err := s.Publish(ctx, e); err != nil {
				d.fail(&report, e, "sink", err)
			}
		}
	}
	return report
}

func (d *Dispatcher) fail(report *SideEffectReport, e events.Event, handler string, err error) {
	d.log.Warn("side effect failed",
		zap.String("event", string(e.Type)),
		zap.String("handler", handler),
		zap.String("groupId", e.GroupID.String()),
		zap.Error(err),
	)
	d.metrics.SideEffectFailed(string(e.Type))
	report.Failures = append(report.Failures, SideEffectFailure{
		Event:   e.Type,
		Handler: handler,
		Error:   err.Error(),
	})
}
