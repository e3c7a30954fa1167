// Package config assembles the tripcarbon runtime configuration from
// defaults, TRIPCARBON_* environment variables and command-line flags, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/tripcarbon/internal/payment"
	"github.com/rshade/tripcarbon/internal/store"
	"github.com/rshade/tripcarbon/internal/wizard"
)

// Environment variables read by FromEnv.
const (
	EnvHTTPAddr       = "TRIPCARBON_HTTP_ADDR"
	EnvGRPCAddr       = "TRIPCARBON_GRPC_ADDR"
	EnvStoreDriver    = "TRIPCARBON_STORE"
	EnvStorePath      = "TRIPCARBON_STORE_PATH"
	EnvPolicyFile     = "TRIPCARBON_POLICY_FILE"
	EnvPixKey         = "TRIPCARBON_PIX_KEY"
	EnvSuccessReset   = "TRIPCARBON_SUCCESS_RESET"
	EnvRateLimit      = "TRIPCARBON_RATE_LIMIT"
	EnvRateBurst      = "TRIPCARBON_RATE_BURST"
	EnvAllowedOrigins = "TRIPCARBON_CORS_ALLOWED_ORIGINS"
	EnvTrustProxy     = "TRIPCARBON_TRUST_PROXY"
	EnvLogLevel       = "TRIPCARBON_LOG_LEVEL"
	EnvLogFormat      = "TRIPCARBON_LOG_FORMAT"
)

// Log formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config holds settings for the tripcarbon servers.
type Config struct {
	HTTPAddr string
	// GRPCAddr is empty when the gRPC listener is disabled.
	GRPCAddr string

	StoreDriver string
	StorePath   string

	// PolicyFile is an optional YAML file overriding the pricing policy.
	PolicyFile string

	PixKey string

	// SuccessReset is how long a session stays on the success page before
	// it is restarted on access.
	SuccessReset time.Duration

	// RateLimit is the sustained requests per second allowed per client;
	// zero disables limiting.
	RateLimit float64
	RateBurst int

	// TrustProxy keys the rate limiter on X-Forwarded-For / X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool

	// AllowedOrigins lists CORS origins. Empty disables CORS headers; "*"
	// allows any origin.
	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:     ":8080",
		GRPCAddr:     ":9090",
		StoreDriver:  store.DriverMemory,
		PixKey:       payment.DefaultPixKey,
		SuccessReset: wizard.DefaultSuccessResetAfter,
		RateLimit:    10,
		RateBurst:    20,
		LogLevel:     zerolog.LevelInfoValue,
		LogFormat:    LogFormatJSON,
	}
}

// FromEnv returns Default overlaid with any TRIPCARBON_* variables that are
// set. Unparseable values are logged and ignored.
func FromEnv(logger zerolog.Logger) Config {
	cfg := Default()
	cfg.ApplyEnv(os.LookupEnv, logger)
	return cfg
}

// ApplyEnv overlays variables returned by lookup onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), logger zerolog.Logger) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvHTTPAddr, &c.HTTPAddr)
	if v, ok := lookup(EnvGRPCAddr); ok {
		// An explicitly empty value disables gRPC.
		c.GRPCAddr = strings.TrimSpace(v)
	}
	str(EnvStoreDriver, &c.StoreDriver)
	str(EnvStorePath, &c.StorePath)
	str(EnvPolicyFile, &c.PolicyFile)
	str(EnvPixKey, &c.PixKey)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)

	if v, ok := lookup(EnvSuccessReset); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.SuccessReset = d
		} else {
			logger.Warn().Str("value", v).Msg("invalid " + EnvSuccessReset + ", using default")
		}
	}

	if v, ok := lookup(EnvRateLimit); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.RateLimit = f
		} else {
			logger.Warn().Str("value", v).Msg("invalid " + EnvRateLimit + ", using default")
		}
	}

	if v, ok := lookup(EnvTrustProxy); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TrustProxy = b
		} else {
			logger.Warn().Str("value", v).Msg("invalid " + EnvTrustProxy + ", using default")
		}
	}

	if v, ok := lookup(EnvRateBurst); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateBurst = n
		} else {
			logger.Warn().Str("value", v).Msg("invalid " + EnvRateBurst + ", using default")
		}
	}

	if v, ok := lookup(EnvAllowedOrigins); ok && v != "" {
		c.AllowedOrigins = SplitOrigins(v)
		for _, o := range c.AllowedOrigins {
			if o == "*" {
				logger.Warn().Msg("CORS wildcard origin (*) is insecure; use specific origins in production")
				break
			}
		}
	}
}

// SplitOrigins splits a comma-separated origin list, dropping blanks.
func SplitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate reports configuration errors that would prevent startup.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	switch c.StoreDriver {
	case store.DriverMemory:
	case store.DriverFile, store.DriverSQLite:
		if c.StorePath == "" {
			errs = append(errs, fmt.Errorf("store %q requires a path", c.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.StoreDriver))
	}
	if strings.TrimSpace(c.PixKey) == "" {
		errs = append(errs, errors.New("pix key is required"))
	}
	if c.SuccessReset <= 0 {
		errs = append(errs, errors.New("success reset must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit must be >= 0"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, errors.New("rate burst must be >= 1"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}
	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatConsole {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Store returns the store backend settings.
func (c Config) Store() store.Config {
	return store.Config{Driver: c.StoreDriver, Path: c.StorePath}
}
