// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StoreKind selects the catalog backend.
type StoreKind string

const (
	StoreMongo  StoreKind = "mongo"
	StoreMemory StoreKind = "memory"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string

	// API server settings.
	APIPort     string
	CORSOrigins []string

	// Store settings.
	Store        StoreKind
	MongoURI     string
	MongoDB      string
	StoreTimeout time.Duration

	// Catalog settings.
	ProjectionTimeout     time.Duration
	ProjectionConcurrency int
	MaxPageSize           int

	// Execution layer.
	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string

	// Auth. With neither an OIDC issuer nor a public key, auth is disabled.
	OIDCIssuer    string
	OIDCAudience  string
	JWTPublicKey  string
	JWTPrivateKey string
	JWTIssuer     string

	RateLimitRPS   float64
	RateLimitBurst int

	OTelEnabled bool
}

// AuthEnabled reports whether bearer tokens are verified.
func (c Config) AuthEnabled() bool {
	return c.OIDCIssuer != "" || c.JWTPublicKey != ""
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv reads configuration from environment variables with sensible defaults.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		LogLevel:          envOr("RHYTHM_LOG_LEVEL", "info"),
		APIPort:           envOr("RHYTHM_API_PORT", "5000"),
		CORSOrigins:       parseCORSOrigins(os.Getenv("RHYTHM_CORS_ORIGINS")),
		Store:             StoreKind(envOr("RHYTHM_STORE", string(StoreMongo))),
		MongoDB:           envOr("MONGO_DB", "rhythm"),
		TemporalAddress:   envOr("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace: envOr("TEMPORAL_NAMESPACE", "default"),
		TaskQueue:         os.Getenv("RHYTHM_TASK_QUEUE"),
		OIDCIssuer:        os.Getenv("RHYTHM_OIDC_ISSUER"),
		OIDCAudience:      os.Getenv("RHYTHM_OIDC_AUDIENCE"),
		JWTPublicKey:      os.Getenv("RHYTHM_JWT_PUBLIC_KEY"),
		JWTPrivateKey:     os.Getenv("RHYTHM_JWT_PRIVATE_KEY"),
		JWTIssuer:         envOr("RHYTHM_JWT_ISSUER", "rhythm-api"),
	}

	if cfg.Store != StoreMongo && cfg.Store != StoreMemory {
		return Config{}, fmt.Errorf("config: invalid RHYTHM_STORE %q (must be mongo or memory)", cfg.Store)
	}
	cfg.MongoURI = mongoURI(cfg.MongoDB)

	var err error
	if cfg.StoreTimeout, err = durationEnv("RHYTHM_STORE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ProjectionTimeout, err = durationEnv("RHYTHM_PROJECTION_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ProjectionConcurrency, err = positiveIntEnv("RHYTHM_PROJECTION_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.MaxPageSize, err = positiveIntEnv("RHYTHM_MAX_PAGE_SIZE", 100); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = positiveIntEnv("RHYTHM_RATE_LIMIT_BURST", 20); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv("RHYTHM_RATE_LIMIT_RPS"); raw != "" {
		cfg.RateLimitRPS, err = strconv.ParseFloat(raw, 64)
		if err != nil || cfg.RateLimitRPS < 0 {
			return Config{}, fmt.Errorf("config: invalid RHYTHM_RATE_LIMIT_RPS %q", raw)
		}
	}
	if raw := os.Getenv("OTEL_ENABLED"); raw != "" {
		cfg.OTelEnabled, err = strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid OTEL_ENABLED %q", raw)
		}
	}

	if cfg.OIDCIssuer != "" && cfg.JWTPublicKey != "" {
		return Config{}, fmt.Errorf("config: set only one of RHYTHM_OIDC_ISSUER and RHYTHM_JWT_PUBLIC_KEY")
	}

	return cfg, nil
}

// mongoURI prefers MONGO_URI and otherwise assembles one from the
// MONGO_HOST family of variables.
func mongoURI(db string) string {
	if v := os.Getenv("MONGO_URI"); v != "" {
		return v
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(envOr("MONGO_HOST", "localhost"), envOr("MONGO_PORT", "27017")),
		Path:   "/" + db,
	}
	if user := os.Getenv("MONGO_USER"); user != "" {
		u.User = url.UserPassword(user, os.Getenv("MONGO_PASS"))
	}
	if src := os.Getenv("MONGO_AUTH_SOURCE"); src != "" {
		u.RawQuery = url.Values{"authSource": {src}}.Encode()
	}
	return u.String()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q (must be a positive duration)", key, raw)
	}
	return d, nil
}

func positiveIntEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q (must be a positive integer)", key, raw)
	}
	return n, nil
}

func parseCORSOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
