// Package evaluator is the inbound entry point: it turns a URL string into
// an AggregateResult, consulting the aggregate cache before any signal
// check runs.
package evaluator

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/storetrust/infrastructure/logger"
	"github.com/jonesrussell/storetrust/internal/cache"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/urlnorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyURL is returned when the input has no host candidate at all.
var ErrEmptyURL = errors.New("url is required")

// Runner collects every signal for a target.
type Runner interface {
	Run(ctx context.Context, target urlnorm.Target) []domain.SignalResult
}

// Scorer turns signals into a verdict.
type Scorer interface {
	Score(url, domainName string, signals []domain.SignalResult) (domain.AggregateResult, error)
}

// Recorder receives evaluation metrics.
type Recorder interface {
	RecordEvaluation(level string, cached bool, duration time.Duration)
	RecordEvaluationError()
}

type nopRecorder struct{}

func (nopRecorder) RecordEvaluation(string, bool, time.Duration) {}
func (nopRecorder) RecordEvaluationError()                       {}

// Service evaluates storefront URLs.
type Service struct {
	runner     Runner
	scorer     Scorer
	aggregates *cache.AggregateCache
	logger     logger.Logger
	tracer     trace.Tracer
	recorder   Recorder
	now        func() time.Time
	group      singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithTracer sets the tracer for the evaluate span.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the clock used for durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires an evaluator. A nil aggregate cache disables aggregate caching.
func NewService(runner Runner, scorer Scorer, aggregates *cache.AggregateCache, log logger.Logger, opts ...Option) *Service {
	if aggregates == nil {
		aggregates = cache.NewAggregateCache(cache.NopStore{}, cache.DefaultAggregateTTL, log, nil)
	}
	s := &Service{
		runner:     runner,
		scorer:     scorer,
		aggregates: aggregates,
		logger:     log,
		tracer:     otel.Tracer("storetrust/evaluator"),
		recorder:   nopRecorder{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate returns the verdict for rawURL. A cached verdict for the domain
// bypasses every signal check. Concurrent evaluations of one domain share a
// single run, which continues detached from ctx so it still fills both cache
// tiers; the caller only waits until ctx is done, and then gets ctx.Err().
// Other errors are ErrEmptyURL and scoring configuration errors.
func (s *Service) Evaluate(ctx context.Context, rawURL string) (domain.AggregateResult, error) {
	start := s.now()
	target := urlnorm.Normalize(rawURL)
	if target.Domain == "" {
		return domain.AggregateResult{}, ErrEmptyURL
	}

	ctx, span := s.tracer.Start(ctx, "evaluate", trace.WithAttributes(
		attribute.String("domain", target.Domain),
	))
	defer span.End()

	log := logger.FromContext(ctx).With(logger.Domain(target.Domain))

	if cached, ok := s.aggregates.Get(ctx, target.Domain); ok {
		cached.URL = target.URL
		span.SetAttributes(attribute.Bool("cache_hit", true), attribute.Int("score", cached.Score))
		s.recorder.RecordEvaluation(string(cached.Level), true, s.now().Sub(start))
		log.Debug("Aggregate cache hit", logger.Int("score", cached.Score))
		return cached, nil
	}

	detached := context.WithoutCancel(ctx)
	pending := s.group.DoChan(target.Domain, func() (any, error) {
		return s.evaluate(detached, target)
	})

	var res singleflight.Result
	select {
	case res = <-pending:
	case <-ctx.Done():
		err := ctx.Err()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.recorder.RecordEvaluationError()
		log.Warn("Evaluation abandoned, checks continue in background", logger.Error(err))
		return domain.AggregateResult{}, err
	}

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		s.recorder.RecordEvaluationError()
		log.Error("Evaluation failed", logger.Error(res.Err))
		return domain.AggregateResult{}, res.Err
	}

	result, _ := res.Val.(domain.AggregateResult)
	if res.Shared {
		result.URL = target.URL
	}
	span.SetAttributes(
		attribute.Bool("cache_hit", false),
		attribute.Int("score", result.Score),
		attribute.String("level", string(result.Level)),
	)
	s.recorder.RecordEvaluation(string(result.Level), false, s.now().Sub(start))
	log.Info("Evaluation complete",
		logger.Int("score", result.Score),
		logger.String("level", string(result.Level)),
		logger.Strings("overrides", result.Overrides),
		logger.Duration("duration", s.now().Sub(start)),
	)
	return result, nil
}

func (s *Service) evaluate(ctx context.Context, target urlnorm.Target) (domain.AggregateResult, error) {
	signals := s.runner.Run(ctx, target)
	result, err := s.scorer.Score(target.URL, target.Domain, signals)
	if err != nil {
		return domain.AggregateResult{}, err
	}
	s.aggregates.Set(ctx, result)
	return result, nil
}
