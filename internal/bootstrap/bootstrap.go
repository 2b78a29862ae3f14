// Package bootstrap assembles the evaluation pipeline from configuration.
// Both the HTTP server and the one-shot CLI go through Build so they score
// a URL identically.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/storetrust/infrastructure/config"
	infragin "github.com/jonesrussell/storetrust/infrastructure/gin"
	"github.com/jonesrussell/storetrust/infrastructure/logger"
	infraredis "github.com/jonesrussell/storetrust/infrastructure/redis"
	"github.com/jonesrussell/storetrust/internal/cache"
	"github.com/jonesrussell/storetrust/internal/config"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/evaluator"
	"github.com/jonesrussell/storetrust/internal/heuristics"
	"github.com/jonesrussell/storetrust/internal/providers"
	"github.com/jonesrussell/storetrust/internal/scoring"
	"github.com/jonesrussell/storetrust/internal/signals"
	"github.com/jonesrussell/storetrust/internal/telemetry"
)

const cachePingTimeout = 2 * time.Second

// Components is the wired pipeline.
type Components struct {
	Evaluator *evaluator.Service
	Policy    scoring.Policy
	Store     cache.Store
	// CacheCheck is nil for backends that cannot become unreachable.
	CacheCheck infragin.HealthChecker
	Signals    []domain.SignalType

	closers []func() error
}

// Close releases backend connections.
func (c *Components) Close() error {
	var firstErr error
	for _, fn := range c.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadConfig loads and validates the service configuration at path. An
// empty path falls back to CONFIG_PATH, then config.yml.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath("config.yml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the service logger. outputs overrides the default stdout sink.
func NewLogger(cfg *config.Config, outputs ...string) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
		OutputPaths: outputs,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// Build wires cache, checks, orchestrator, engine and evaluator. ctx bounds
// background work such as the memory cache sweeper.
func Build(ctx context.Context, cfg *config.Config, tel *telemetry.Provider, log logger.Logger) (*Components, error) {
	policy, err := scoring.Lookup(cfg.Scoring.Policy)
	if err != nil {
		return nil, err
	}
	detector := heuristics.New()
	engine, err := scoring.NewEngine(policy, detector)
	if err != nil {
		return nil, fmt.Errorf("scoring policy %s: %w", policy.Version, err)
	}

	comps := &Components{Policy: policy}
	comps.Store, comps.CacheCheck = comps.cacheStore(ctx, cfg, log)

	signalCache := cache.NewSignalCache(comps.Store, log,
		cache.WithTTLPolicy(cache.DefaultTTLPolicy().Merge(cfg.Cache.SignalTTLPolicy())),
		cache.WithDangerTTL(cfg.Cache.DangerTTL),
		cache.WithPaymentTTL(cfg.Cache.PaymentTTL, cfg.Cache.PaymentRetryTTL),
		cache.WithSignalRecorder(tel),
	)
	aggregates := cache.NewAggregateCache(comps.Store, cfg.Cache.AggregateTTL, log, tel)

	checks := Checks(cfg, policy, detector, log)
	for i, c := range checks {
		checks[i] = signals.Cached(c, signalCache)
	}
	orchestrator := signals.NewOrchestrator(checks, policy.Weight, log,
		signals.WithTimeout(cfg.Service.CheckTimeout),
		signals.WithTracer(tel.Tracer),
		signals.WithRecorder(tel),
	)
	comps.Signals = orchestrator.Types()

	comps.Evaluator = evaluator.NewService(orchestrator, engine, aggregates, log,
		evaluator.WithTracer(tel.Tracer),
		evaluator.WithRecorder(tel),
	)
	return comps, nil
}

// cacheStore builds the configured backend. An unreachable Redis degrades
// to no caching and a degraded health check instead of failing startup.
func (c *Components) cacheStore(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Store, infragin.HealthChecker) {
	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		return cache.NopStore{}, nil
	case config.CacheBackendRedis:
		client, err := infraredis.NewClient(cfg.Cache.Redis)
		if err != nil {
			log.Warn("Redis unavailable, caching disabled",
				logger.String("address", cfg.Cache.Redis.Address),
				logger.Error(err),
			)
			return cache.NopStore{}, infragin.DegradableChecker(func() error { return err })
		}
		c.closers = append(c.closers, client.Close)

		var opts []cache.RedisOption
		if cfg.Cache.KeyPrefix != "" {
			opts = append(opts, cache.WithKeyPrefix(cfg.Cache.KeyPrefix))
		}
		store := cache.NewRedisStore(client, log, opts...)
		return store, infragin.DegradableChecker(func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
			defer cancel()
			return store.Ping(pingCtx)
		})
	default:
		store := cache.NewMemoryStore()
		go store.RunSweeper(ctx, cfg.Cache.SweepInterval)
		return store, nil
	}
}

// Checks builds one uncached check per enabled provider. The heuristics
// check is always present.
func Checks(cfg *config.Config, policy scoring.Policy, detector *heuristics.Detector, log logger.Logger) []signals.Check {
	p := cfg.Providers
	var checks []signals.Check

	if !p.SafeBrowsing.Disabled && p.SafeBrowsing.APIKey != "" {
		client := providers.NewClient(p.SafeBrowsing.Client("safe-browsing"), log)
		checks = append(checks, providers.NewMalwareCheck(client, policy.Weight(domain.SignalMalware)))
	} else {
		log.Warn("Malware check disabled", logger.String("reason", "no safe browsing api key"))
	}

	if !p.RDAP.Disabled {
		client := providers.NewClient(p.RDAP.Client("rdap"), log)
		checks = append(checks, providers.NewDomainAgeCheck(client, policy.Weight(domain.SignalDomainAge)))
	}

	if !p.Certificate.Disabled {
		checks = append(checks, providers.NewCertificateCheck(policy.Weight(domain.SignalCertificate)))
	}

	if !p.Reputation.Disabled && p.Reputation.APIKey != "" {
		client := providers.NewClient(p.Reputation.Client("reputation"), log)
		checks = append(checks, providers.NewReputationCheck(client, policy.Weight(domain.SignalReputation)))
	} else {
		log.Warn("Reputation check disabled", logger.String("reason", "no reputation api key"))
	}

	if sources := reviewSources(p.Reviews, log); len(sources) > 0 {
		reviewWeight := func(count int) int { return policy.Weights(count)[domain.SignalReviews] }
		checks = append(checks, providers.NewReviewsCheck(sources, reviewWeight, log))
	}

	var scanner signals.PaymentScanner
	if !p.Payment.Disabled {
		scanner = providers.NewPaymentScanner(providers.NewClient(p.Payment.Client("storefront"), log))
	}
	return append(checks, signals.NewHeuristicsCheck(detector, scanner, log))
}

func reviewSources(cfgs []config.ReviewSourceConfig, log logger.Logger) []providers.ReviewSource {
	sources := make([]providers.ReviewSource, 0, len(cfgs))
	for _, rc := range cfgs {
		clientCfg := providers.ClientConfig{
			Name:          rc.Name,
			Timeout:       rc.Timeout,
			RatePerSecond: rc.RatePerSecond,
		}
		if rc.Kind == config.ReviewKindAPI {
			clientCfg.BaseURL = rc.URL
			sources = append(sources, providers.NewAPIReviewSource(rc.Name, providers.NewClient(clientCfg, log)))
			continue
		}
		sources = append(sources, providers.NewJSONLDReviewSource(rc.Name, providers.NewClient(clientCfg, log), rc.URL))
	}
	return sources
}
