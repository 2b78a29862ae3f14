package signals

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 10 * time.Second

// Check outcomes reported to a Recorder.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
)

// Recorder receives one observation per check run.
type Recorder interface {
	RecordCheck(signal, outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordCheck(string, string, time.Duration) {}

// WeightFunc returns the configured blend weight of a signal type.
type WeightFunc func(domain.SignalType) int

// Orchestrator fans a target out to every configured check.
type Orchestrator struct {
	checks   []Check
	weight   WeightFunc
	timeout  time.Duration
	logger   logger.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each check.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTracer sets the tracer used for per-check spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithRecorder reports check outcomes.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// NewOrchestrator creates an orchestrator over checks. weight supplies the
// placeholder weight of a failed check.
func NewOrchestrator(checks []Check, weight WeightFunc, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checks:   checks,
		weight:   weight,
		timeout:  DefaultTimeout,
		logger:   log,
		tracer:   otel.Tracer("storetrust/signals"),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Types lists the configured signal types.
func (o *Orchestrator) Types() []domain.SignalType {
	types := make([]domain.SignalType, 0, len(o.checks))
	for _, c := range o.checks {
		types = append(types, c.Type())
	}
	return types
}

// Run executes every check in parallel and waits for all of them. It never
// fails: each failed, timed out or panicking check yields a placeholder.
// Checks keep running if ctx is cancelled so their results can still reach
// the cache. Results are ordered by signal priority.
func (o *Orchestrator) Run(ctx context.Context, target urlnorm.Target) []domain.SignalResult {
	detached := context.WithoutCancel(ctx)
	results := make([]domain.SignalResult, len(o.checks))

	var g errgroup.Group
	for i, c := range o.checks {
		g.Go(func() error {
			results[i] = o.run(detached, c, target)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(results, func(a, b domain.SignalResult) int {
		return a.Type.Priority() - b.Type.Priority()
	})
	return results
}

type checkOutcome struct {
	result domain.SignalResult
	err    error
}

func (o *Orchestrator) run(ctx context.Context, c Check, target urlnorm.Target) domain.SignalResult {
	signal := c.Type()
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "signal.check", trace.WithAttributes(
		attribute.String("signal", string(signal)),
		attribute.String("domain", target.Domain),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan checkOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- checkOutcome{err: fmt.Errorf("%w: %v", errPanic, p)}
			}
		}()
		r, err := c.Check(ctx, target.URL)
		done <- checkOutcome{result: r, err: err}
	}()

	var out checkOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = checkOutcome{err: fmt.Errorf("%s check: %w", signal, ctx.Err())}
	}

	outcome := classify(out.err)
	o.recorder.RecordCheck(string(signal), outcome, time.Since(start))
	span.SetAttributes(attribute.String("outcome", outcome))

	if out.err != nil {
		span.RecordError(out.err)
		span.SetStatus(codes.Error, outcome)
		o.logger.Warn("Signal check unavailable, using placeholder",
			logger.Signal(string(signal)),
			logger.Domain(target.Domain),
			logger.String("outcome", outcome),
			logger.Duration("duration", time.Since(start)),
			logger.Error(out.err),
		)
		return domain.Placeholder(signal, o.weight(signal))
	}

	out.result.Type = signal
	return out.result
}
