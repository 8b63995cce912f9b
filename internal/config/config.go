package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultBackendTimeout  = 8 * time.Second
	defaultTemplatesDir    = "templates"
	defaultPublicDir       = "public"
	defaultLocalesDir      = "locales"
	defaultCurrency        = "JPY"
	defaultPurchaseField   = "isPurchased"
	defaultWishlistField   = "isWishlist"
	defaultFallbackLocale  = "ja"
	defaultEnvironment     = "local"
	defaultLogLevel        = "info"
	defaultUploadLimit     = 32 << 20
)

// Config captures the runtime configuration of the web frontend organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Backend     BackendConfig
	Views       ViewConfig
	Session     SessionConfig
	Logging     LoggingConfig
	Sentry      SentryConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	UploadLimit     int64
}

// BackendConfig points at the collection backend. An empty BaseURL serves sample data.
type BackendConfig struct {
	BaseURL       string
	Timeout       time.Duration
	PurchaseField string
	WishlistField string
}

// ViewConfig locates templates, assets and translations.
type ViewConfig struct {
	TemplatesDir    string
	PublicDir       string
	LocalesDir      string
	DevMode         bool
	FallbackLocale  string
	DefaultCurrency string
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv disables reading the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// Load assembles the configuration from defaults, the .env file, the process
// environment and explicit overrides, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := dotEnv[key]
		return v, ok
	}

	env := strings.ToLower(stringWithDefault(lookup, "TRACKER_WEB_ENV", defaultEnvironment))
	cfg := Config{
		Environment: env,
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "TRACKER_WEB_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:     durationWithDefault(lookup, "TRACKER_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "TRACKER_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "TRACKER_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "TRACKER_WEB_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			UploadLimit:     int64(intWithDefault(lookup, "TRACKER_WEB_UPLOAD_LIMIT", defaultUploadLimit)),
		},
		Backend: BackendConfig{
			BaseURL:       strings.TrimRight(stringWithDefault(lookup, "TRACKER_WEB_BACKEND_URL", ""), "/"),
			Timeout:       durationWithDefault(lookup, "TRACKER_WEB_BACKEND_TIMEOUT", defaultBackendTimeout),
			PurchaseField: stringWithDefault(lookup, "TRACKER_WEB_PURCHASE_FIELD", defaultPurchaseField),
			WishlistField: stringWithDefault(lookup, "TRACKER_WEB_WISHLIST_FIELD", defaultWishlistField),
		},
		Views: ViewConfig{
			TemplatesDir:    stringWithDefault(lookup, "TRACKER_WEB_TEMPLATES_DIR", defaultTemplatesDir),
			PublicDir:       stringWithDefault(lookup, "TRACKER_WEB_PUBLIC_DIR", defaultPublicDir),
			LocalesDir:      stringWithDefault(lookup, "TRACKER_WEB_LOCALES_DIR", defaultLocalesDir),
			DevMode:         boolWithDefault(lookup, "TRACKER_WEB_DEV", env == "local"),
			FallbackLocale:  strings.ToLower(stringWithDefault(lookup, "TRACKER_WEB_FALLBACK_LOCALE", defaultFallbackLocale)),
			DefaultCurrency: strings.ToUpper(stringWithDefault(lookup, "TRACKER_WEB_DEFAULT_CURRENCY", defaultCurrency)),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "TRACKER_WEB_SESSION_SIGNING_KEY", ""),
			Secure:     boolWithDefault(lookup, "TRACKER_WEB_SESSION_SECURE", env == "prod"),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "TRACKER_WEB_LOG_LEVEL", stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel))),
		},
		Sentry: SentryConfig{
			DSN: stringWithDefault(lookup, "TRACKER_WEB_SENTRY_DSN", ""),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UsesSampleData reports whether no backend is configured.
func (c Config) UsesSampleData() bool { return c.Backend.BaseURL == "" }

func validateConfig(cfg Config) error {
	var invalid []string

	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		invalid = append(invalid, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		invalid = append(invalid, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		invalid = append(invalid, "Server.WriteTimeout")
	}
	if cfg.Server.UploadLimit <= 0 {
		invalid = append(invalid, "Server.UploadLimit")
	}
	if cfg.Backend.BaseURL != "" {
		u, err := url.Parse(cfg.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			invalid = append(invalid, "Backend.BaseURL")
		}
	}
	if cfg.Backend.Timeout <= 0 {
		invalid = append(invalid, "Backend.Timeout")
	}
	if strings.TrimSpace(cfg.Backend.PurchaseField) == "" {
		invalid = append(invalid, "Backend.PurchaseField")
	}
	if strings.TrimSpace(cfg.Backend.WishlistField) == "" {
		invalid = append(invalid, "Backend.WishlistField")
	}
	if _, err := currency.ParseISO(cfg.Views.DefaultCurrency); err != nil {
		invalid = append(invalid, "Views.DefaultCurrency")
	}
	switch cfg.Views.FallbackLocale {
	case "ja", "en":
	default:
		invalid = append(invalid, "Views.FallbackLocale")
	}
	if cfg.Environment == "prod" && cfg.Session.SigningKey == "" {
		invalid = append(invalid, "Session.SigningKey")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
