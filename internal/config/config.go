// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Session   SessionConfig   `koanf:"session"`
	Google    GoogleConfig    `koanf:"google"`
	LLM       LLMConfig       `koanf:"llm"`
	Stripe    StripeConfig    `koanf:"stripe"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Quota     QuotaConfig     `koanf:"quota"`
	Reveal    RevealConfig    `koanf:"reveal"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Admin     AdminConfig     `koanf:"admin"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	BaseURL     string `koanf:"base_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
	KeyPrefix    string `koanf:"key_prefix"`
}

type SessionConfig struct {
	PrivateKeyPath string        `koanf:"private_key_path"`
	PublicKeyPath  string        `koanf:"public_key_path"`
	Expire         time.Duration `koanf:"expire"`
	RenewWindow    time.Duration `koanf:"renew_window"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
	CookieName     string        `koanf:"cookie_name"`
	CookieSecure   bool          `koanf:"cookie_secure"`
}

type GoogleConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

type LLMConfig struct {
	BaseURL         string        `koanf:"base_url"`
	APIKey          string        `koanf:"api_key"`
	Model           string        `koanf:"model"`
	Timeout         time.Duration `koanf:"timeout"`
	MaxRetries      int           `koanf:"max_retries"`
	MaxOutputTokens int64         `koanf:"max_output_tokens"`
}

type StripeConfig struct {
	SecretKey      string        `koanf:"secret_key"`
	ProductID      string        `koanf:"product_id"`
	PriceID        string        `koanf:"price_id"`
	SuccessURL     string        `koanf:"success_url"`
	CancelURL      string        `koanf:"cancel_url"`
	StatusCacheTTL time.Duration `koanf:"status_cache_ttl"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

// QuotaConfig caps per-user daily usage of the model-backed endpoints by tier.
type QuotaConfig struct {
	FreeEntriesPerDay  int `koanf:"free_entries_per_day"`
	PaidEntriesPerDay  int `koanf:"paid_entries_per_day"`
	FreeAnalysesPerDay int `koanf:"free_analyses_per_day"`
	PaidAnalysesPerDay int `koanf:"paid_analyses_per_day"`
}

type RevealConfig struct {
	ChunkSize int           `koanf:"chunk_size"`
	Interval  time.Duration `koanf:"interval"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type AdminConfig struct {
	Emails []string `koanf:"emails"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Journal",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.base_url":    "http://localhost:3000",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "120s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.key_prefix":     "journal",

		"session.expire":           "30m",
		"session.renew_window":     "10m",
		"session.issuer":           "journal",
		"session.audience":         "journal-web",
		"session.cookie_name":      "journal_session",
		"session.cookie_secure":    false,
		"session.private_key_path": "keys/private.pem",
		"session.public_key_path":  "keys/public.pem",

		"llm.model":             "gpt-4o-mini",
		"llm.timeout":           "60s",
		"llm.max_retries":       0,
		"llm.max_output_tokens": 1024,

		"stripe.status_cache_ttl": "5m",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"quota.free_entries_per_day":  5,
		"quota.paid_entries_per_day":  50,
		"quota.free_analyses_per_day": 20,
		"quota.paid_analyses_per_day": 200,

		"reveal.chunk_size": 3,
		"reveal.interval":   "20ms",

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "journal",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                   "database.url",
	"DATABASE_AUTO_MIGRATE":          "database.auto_migrate",
	"REDIS_URL":                      "redis.url",
	"ENVIRONMENT":                    "app.environment",
	"APP_BASE_URL":                   "app.base_url",
	"HOST":                           "server.host",
	"PORT":                           "server.port",
	"LOG_LEVEL":                      "log.level",
	"LOG_FORMAT":                     "log.format",
	"SESSION_PRIVATE_KEY_PATH":       "session.private_key_path",
	"SESSION_PUBLIC_KEY_PATH":        "session.public_key_path",
	"SESSION_EXPIRE":                 "session.expire",
	"SESSION_RENEW_WINDOW":           "session.renew_window",
	"SESSION_COOKIE_SECURE":          "session.cookie_secure",
	"GOOGLE_CLIENT_ID":               "google.client_id",
	"GOOGLE_CLIENT_SECRET":           "google.client_secret",
	"GOOGLE_REDIRECT_URL":            "google.redirect_url",
	"LLM_BASE_URL":                   "llm.base_url",
	"LLM_API_KEY":                    "llm.api_key",
	"OPENAI_API_KEY":                 "llm.api_key",
	"LLM_MODEL":                      "llm.model",
	"LLM_TIMEOUT":                    "llm.timeout",
	"LLM_MAX_RETRIES":                "llm.max_retries",
	"STRIPE_SECRET_KEY":              "stripe.secret_key",
	"STRIPE_SUBSCRIPTION_PRODUCT_ID": "stripe.product_id",
	"STRIPE_SUBSCRIPTION_PRICE_ID":   "stripe.price_id",
	"STRIPE_SUCCESS_URL":             "stripe.success_url",
	"STRIPE_CANCEL_URL":              "stripe.cancel_url",
	"RATE_LIMIT_REQUESTS":            "rate_limit.requests",
	"RATE_LIMIT_WINDOW":              "rate_limit.window",
	"RATE_LIMIT_BURST":               "rate_limit.burst",
	"OTEL_ENDPOINT":                  "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":    "otel.endpoint",
	"OTEL_SERVICE_NAME":              "otel.service_name",
	"OTEL_ENABLED":                   "otel.enabled",
	"OTEL_INSECURE":                  "otel.insecure",
	"OTEL_SAMPLE_RATE":               "otel.sample_rate",
	"METRICS_ENABLED":                "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Session.PrivateKeyPath == "" {
		return fmt.Errorf("SESSION_PRIVATE_KEY_PATH is required")
	}

	if c.Session.Expire <= 0 {
		return fmt.Errorf("session.expire must be positive")
	}

	if c.Session.RenewWindow < 0 || c.Session.RenewWindow >= c.Session.Expire {
		return fmt.Errorf("session.renew_window must be within [0, session.expire)")
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}

	if c.Stripe.SecretKey != "" && c.Stripe.ProductID == "" {
		return fmt.Errorf("STRIPE_SUBSCRIPTION_PRODUCT_ID is required with STRIPE_SECRET_KEY")
	}

	if c.Reveal.ChunkSize <= 0 {
		return fmt.Errorf("reveal.chunk_size must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if !c.Session.CookieSecure {
			return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) BillingEnabled() bool {
	return c.Stripe.SecretKey != ""
}

func (c *Config) GoogleSignInEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (a *AdminConfig) IsAdmin(email string) bool {
	for _, e := range a.Emails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}
