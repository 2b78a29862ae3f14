package config

import (
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/storetrust/infrastructure/config"
	"github.com/jonesrussell/storetrust/infrastructure/profiling"
	infraredis "github.com/jonesrussell/storetrust/infrastructure/redis"
	"github.com/jonesrussell/storetrust/internal/domain"
	"github.com/jonesrussell/storetrust/internal/providers"
	"github.com/jonesrussell/storetrust/internal/scoring"
)

// Default configuration values.
const (
	defaultServiceName  = "storetrust"
	defaultServicePort  = 8095
	defaultVersion      = "0.1.0"
	defaultCheckTimeout = 10 * time.Second
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"

	defaultCacheBackend  = CacheBackendMemory
	defaultAggregateTTL  = 24 * time.Hour
	defaultDangerTTL     = time.Hour
	defaultPaymentTTL    = 24 * time.Hour
	defaultPaymentRetry  = time.Hour
	defaultSweepInterval = 10 * time.Minute

	defaultProviderTimeout = 8 * time.Second
	defaultReviewSource    = "trustpilot"
	defaultReviewTemplate  = "https://www.trustpilot.com/review/%s"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// Review source kinds.
const (
	ReviewKindJSONLD = "jsonld"
	ReviewKindAPI    = "api"
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig    `yaml:"service"`
	Cache     CacheConfig      `yaml:"cache"`
	Scoring   ScoringConfig    `yaml:"scoring"`
	Providers ProvidersConfig  `yaml:"providers"`
	Logging   LoggingConfig    `yaml:"logging"`
	Profiling profiling.Config `yaml:"profiling"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	Port         int           `env:"STORETRUST_PORT"          yaml:"port"`
	Debug        bool          `env:"APP_DEBUG"                yaml:"debug"`
	CheckTimeout time.Duration `env:"STORETRUST_CHECK_TIMEOUT" yaml:"check_timeout"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend      string            `env:"CACHE_BACKEND" yaml:"backend"`
	Redis        infraredis.Config `yaml:"redis"`
	KeyPrefix    string            `yaml:"key_prefix"`
	AggregateTTL time.Duration     `yaml:"aggregate_ttl"`
	DangerTTL    time.Duration     `yaml:"danger_ttl"`
	// PaymentTTL and PaymentRetryTTL cap heuristics results with a storefront
	// scan that succeeded or failed.
	PaymentTTL      time.Duration            `yaml:"payment_ttl"`
	PaymentRetryTTL time.Duration            `yaml:"payment_retry_ttl"`
	SignalTTLs      map[string]time.Duration `yaml:"signal_ttls"`
	SweepInterval   time.Duration            `yaml:"sweep_interval"`
}

// ScoringConfig selects the weighting policy.
type ScoringConfig struct {
	Policy string `env:"SCORING_POLICY" yaml:"policy"`
}

// ProviderConfig holds one HTTP signal provider's settings.
type ProviderConfig struct {
	Disabled      bool          `yaml:"disabled"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

// Client converts the settings into a provider client configuration.
func (p ProviderConfig) Client(name string) providers.ClientConfig {
	return providers.ClientConfig{
		Name:          name,
		BaseURL:       p.BaseURL,
		APIKey:        p.APIKey,
		Timeout:       p.Timeout,
		RatePerSecond: p.RatePerSecond,
		Burst:         p.Burst,
	}
}

// ReviewSourceConfig configures one review platform.
type ReviewSourceConfig struct {
	Name string `yaml:"name"`
	// Kind is "jsonld" (URL is a page template with %s for the domain) or
	// "api" (URL is the base of a /reviews/<domain> JSON endpoint).
	Kind          string        `yaml:"kind"`
	URL           string        `yaml:"url"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
}

// ProvidersConfig holds every signal collaborator's settings.
type ProvidersConfig struct {
	SafeBrowsing ProviderConfig       `yaml:"safe_browsing"`
	RDAP         ProviderConfig       `yaml:"rdap"`
	Reputation   ProviderConfig       `yaml:"reputation"`
	Certificate  ProviderConfig       `yaml:"certificate"`
	Payment      ProviderConfig       `yaml:"payment"`
	Reviews      []ReviewSourceConfig `yaml:"reviews"`

	SafeBrowsingKey string `env:"SAFE_BROWSING_API_KEY" yaml:"-"`
	ReputationKey   string `env:"IPQS_API_KEY"          yaml:"-"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setCacheDefaults(&cfg.Cache)
	if cfg.Scoring.Policy == "" {
		cfg.Scoring.Policy = scoring.DefaultVersion
	}
	setProviderDefaults(&cfg.Providers)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	if svc.CheckTimeout == 0 {
		svc.CheckTimeout = defaultCheckTimeout
	}
}

func setCacheDefaults(c *CacheConfig) {
	if c.Backend == "" {
		c.Backend = defaultCacheBackend
	}
	if c.AggregateTTL == 0 {
		c.AggregateTTL = defaultAggregateTTL
	}
	if c.DangerTTL == 0 {
		c.DangerTTL = defaultDangerTTL
	}
	if c.PaymentTTL == 0 {
		c.PaymentTTL = defaultPaymentTTL
	}
	if c.PaymentRetryTTL == 0 {
		c.PaymentRetryTTL = defaultPaymentRetry
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = defaultSweepInterval
	}
}

func setProviderDefaults(p *ProvidersConfig) {
	defaultURL(&p.SafeBrowsing, providers.DefaultSafeBrowsingURL)
	defaultURL(&p.RDAP, providers.DefaultRDAPURL)
	defaultURL(&p.Reputation, providers.DefaultReputationURL)
	for _, pc := range []*ProviderConfig{&p.SafeBrowsing, &p.RDAP, &p.Reputation, &p.Certificate, &p.Payment} {
		if pc.Timeout == 0 {
			pc.Timeout = defaultProviderTimeout
		}
	}

	if p.SafeBrowsingKey != "" {
		p.SafeBrowsing.APIKey = p.SafeBrowsingKey
	}
	if p.ReputationKey != "" {
		p.Reputation.APIKey = p.ReputationKey
	}

	if len(p.Reviews) == 0 {
		p.Reviews = []ReviewSourceConfig{{Name: defaultReviewSource, Kind: ReviewKindJSONLD, URL: defaultReviewTemplate}}
	}
	for i := range p.Reviews {
		if p.Reviews[i].Kind == "" {
			p.Reviews[i].Kind = ReviewKindJSONLD
		}
		if p.Reviews[i].Timeout == 0 {
			p.Reviews[i].Timeout = defaultProviderTimeout
		}
	}
}

func defaultURL(p *ProviderConfig, url string) {
	if p.BaseURL == "" {
		p.BaseURL = url
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// SignalTTLPolicy returns the per-signal TTL overrides keyed by signal type.
func (c *CacheConfig) SignalTTLPolicy() map[domain.SignalType]time.Duration {
	out := make(map[domain.SignalType]time.Duration, len(c.SignalTTLs))
	for name, ttl := range c.SignalTTLs {
		out[domain.SignalType(name)] = ttl
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if c.Service.CheckTimeout <= 0 {
		return &infraconfig.ValidationError{Field: "service.check_timeout", Message: "must be positive"}
	}
	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := infraconfig.ValidateOneOf("logging.format", c.Logging.Format, "json", "console"); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if _, err := scoring.Lookup(c.Scoring.Policy); err != nil {
		return &infraconfig.ValidationError{Field: "scoring.policy", Message: err.Error()}
	}
	return c.validateReviews()
}

func (c *Config) validateCache() error {
	err := infraconfig.ValidateOneOf("cache.backend", c.Cache.Backend,
		CacheBackendMemory, CacheBackendRedis, CacheBackendNone)
	if err != nil {
		return err
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.Redis.Address == "" {
		return &infraconfig.ValidationError{Field: "cache.redis.address", Message: "is required for the redis backend"}
	}
	if c.Cache.AggregateTTL <= 0 {
		return &infraconfig.ValidationError{Field: "cache.aggregate_ttl", Message: "must be positive"}
	}
	if c.Cache.DangerTTL <= 0 {
		return &infraconfig.ValidationError{Field: "cache.danger_ttl", Message: "must be positive"}
	}
	if c.Cache.PaymentTTL <= 0 {
		return &infraconfig.ValidationError{Field: "cache.payment_ttl", Message: "must be positive"}
	}
	if c.Cache.PaymentRetryTTL <= 0 {
		return &infraconfig.ValidationError{Field: "cache.payment_retry_ttl", Message: "must be positive"}
	}
	for name, ttl := range c.Cache.SignalTTLs {
		field := "cache.signal_ttls." + name
		if !domain.SignalType(name).Valid() {
			return &infraconfig.ValidationError{Field: field, Message: "unknown signal type"}
		}
		if ttl <= 0 {
			return &infraconfig.ValidationError{Field: field, Message: "must be positive"}
		}
	}
	return nil
}

func (c *Config) validateReviews() error {
	for i, src := range c.Providers.Reviews {
		field := fmt.Sprintf("providers.reviews[%d]", i)
		if src.Name == "" {
			return &infraconfig.ValidationError{Field: field + ".name", Message: "is required"}
		}
		if err := infraconfig.ValidateOneOf(field+".kind", src.Kind, ReviewKindJSONLD, ReviewKindAPI); err != nil {
			return err
		}
		if src.URL == "" {
			return &infraconfig.ValidationError{Field: field + ".url", Message: "is required"}
		}
	}
	return nil
}
