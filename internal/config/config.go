package config

import (
	"context"
	"time"
)

// ListenerConfig holds the network/TLS settings for a single listener (main or management).
type ListenerConfig struct {
	Port              int
	EnablePlainText   bool
	EnableTLS         bool
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the gina service.
type Config struct {
	// Database
	DBURL string

	// Run datastore migrations on startup.
	DatastoreMigrateAtStart bool

	// Datastore backend type
	DatastoreType string // "postgres" or "sqlite"

	// Redis
	RedisURL string

	// Cache backend type
	CacheType string // "redis", "local", or "none"

	// How long cached intake/facts records stay valid.
	CacheTTL time.Duration

	// Maximum number of user records held by the local cache.
	CacheLocalMaxEntries int64

	// Completion provider type
	CompletionType string // "openai" or "disabled"

	// OpenAI-compatible provider
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIChatModel string
	OpenAITTSModel  string
	// CompletionTimeout bounds a single provider call. Zero leaves the call
	// bounded only by the caller's context.
	CompletionTimeout time.Duration

	// Auth
	JWTSecret string
	JWTExpiry time.Duration
	// OIDC
	OIDCIssuer       string
	OIDCDiscoveryURL string // Internal URL for OIDC discovery (when issuer URL is not reachable)

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	// Defaults to "service=gina-service".
	MetricsLabels string

	// Server
	Listener           ListenerConfig
	ManagementListener ListenerConfig
	// ManagementListenerEnabled is true when --management-port was explicitly provided.
	// When false, management endpoints are served on the main port.
	ManagementListenerEnabled bool
	// ManagementAccessLog enables HTTP access logging for /health, /ready and /metrics.
	ManagementAccessLog bool
	CORSEnabled         bool
	CORSOrigins         string

	// EncryptionKey is a comma-separated list of AES keys used to encrypt journal
	// content and conversation history at rest. The first key is primary; the
	// rest are decryption-only.
	EncryptionKey string

	// Body size limit (bytes)
	MaxBodySize int64

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int

	// DB pool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// SerializeUserWrites makes background enrichment for one user run one
	// task at a time inside this process.
	SerializeUserWrites bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DatastoreType:           "postgres",
		DatastoreMigrateAtStart: true,
		CacheType:               "none",
		CacheTTL:                10 * time.Minute,
		CacheLocalMaxEntries:    10_000,
		CompletionType:          "openai",
		OpenAIBaseURL:           "https://api.openai.com/v1",
		OpenAIChatModel:         "gpt-4o",
		OpenAITTSModel:          "gpt-4o-mini-tts",
		JWTExpiry:               7 * 24 * time.Hour,
		Listener: ListenerConfig{
			Port:              8080,
			EnablePlainText:   true,
			EnableTLS:         true,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ManagementListener: ListenerConfig{
			EnablePlainText: true,
			EnableTLS:       true,
		},
		CORSOrigins:    "http://localhost:3000",
		MaxBodySize:    1024 * 1024,
		DrainTimeout:   30,
		DBMaxOpenConns: 25,
		DBMaxIdleConns: 5,
	}
}
