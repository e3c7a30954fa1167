package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/tripcarbon/internal/carbon"
	"github.com/rshade/tripcarbon/internal/payment"
	"github.com/rshade/tripcarbon/internal/store"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, store.DriverMemory, cfg.StoreDriver)
	assert.Equal(t, payment.DefaultPixKey, cfg.PixKey)
	assert.Equal(t, 2*time.Minute, cfg.SuccessReset)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		validate func(t *testing.T, cfg Config, logs string)
	}{
		{
			name: "No variables",
			env:  nil,
			validate: func(t *testing.T, cfg Config, logs string) {
				assert.Equal(t, Default(), cfg)
				assert.Empty(t, logs)
			},
		},
		{
			name: "Store and addresses",
			env: map[string]string{
				EnvHTTPAddr:    "127.0.0.1:8000",
				EnvGRPCAddr:    "",
				EnvStoreDriver: "sqlite",
				EnvStorePath:   " /var/lib/tripcarbon.db ",
			},
			validate: func(t *testing.T, cfg Config, _ string) {
				assert.Equal(t, "127.0.0.1:8000", cfg.HTTPAddr)
				assert.Empty(t, cfg.GRPCAddr, "empty value disables gRPC")
				assert.Equal(t, store.DriverSQLite, cfg.StoreDriver)
				assert.Equal(t, "/var/lib/tripcarbon.db", cfg.StorePath)
			},
		},
		{
			name: "Durations and rates",
			env: map[string]string{
				EnvSuccessReset: "30s",
				EnvRateLimit:    "2.5",
				EnvRateBurst:    "5",
			},
			validate: func(t *testing.T, cfg Config, _ string) {
				assert.Equal(t, 30*time.Second, cfg.SuccessReset)
				assert.Equal(t, 2.5, cfg.RateLimit)
				assert.Equal(t, 5, cfg.RateBurst)
			},
		},
		{
			name: "Trust proxy",
			env:  map[string]string{EnvTrustProxy: "true"},
			validate: func(t *testing.T, cfg Config, logs string) {
				assert.True(t, cfg.TrustProxy)
				assert.False(t, Default().TrustProxy)
				assert.Empty(t, logs)
			},
		},
		{
			name: "Invalid trust proxy keeps default",
			env:  map[string]string{EnvTrustProxy: "sometimes"},
			validate: func(t *testing.T, cfg Config, logs string) {
				assert.False(t, cfg.TrustProxy)
				assert.Contains(t, logs, EnvTrustProxy)
			},
		},
		{
			name: "Invalid values keep defaults",
			env: map[string]string{
				EnvSuccessReset: "soon",
				EnvRateLimit:    "-1",
				EnvRateBurst:    "zero",
			},
			validate: func(t *testing.T, cfg Config, logs string) {
				def := Default()
				assert.Equal(t, def.SuccessReset, cfg.SuccessReset)
				assert.Equal(t, def.RateLimit, cfg.RateLimit)
				assert.Equal(t, def.RateBurst, cfg.RateBurst)
				assert.Contains(t, logs, EnvSuccessReset)
				assert.Contains(t, logs, EnvRateLimit)
				assert.Contains(t, logs, EnvRateBurst)
			},
		},
		{
			name: "Allowed origins",
			env: map[string]string{
				EnvAllowedOrigins: " https://ipass.com.br , ,http://localhost:3000",
			},
			validate: func(t *testing.T, cfg Config, logs string) {
				assert.Equal(t, []string{"https://ipass.com.br", "http://localhost:3000"}, cfg.AllowedOrigins)
				assert.Empty(t, logs)
			},
		},
		{
			name: "Wildcard origin warns",
			env: map[string]string{
				EnvAllowedOrigins: "*",
			},
			validate: func(t *testing.T, cfg Config, logs string) {
				assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
				assert.Contains(t, logs, "wildcard")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			cfg := Default()
			cfg.ApplyEnv(mapLookup(tt.env), logger)
			tt.validate(t, cfg, buf.String())
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvPixKey, "evento@pix.com.br")
	t.Setenv(EnvLogLevel, "debug")

	cfg := FromEnv(zerolog.Nop())
	assert.Equal(t, "evento@pix.com.br", cfg.PixKey)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"file store without path", func(c *Config) { c.StoreDriver = store.DriverFile }, "requires a path"},
		{"unknown store", func(c *Config) { c.StoreDriver = "redis" }, "unknown store"},
		{"missing http address", func(c *Config) { c.HTTPAddr = "" }, "http address"},
		{"blank pix key", func(c *Config) { c.PixKey = " " }, "pix key"},
		{"zero success reset", func(c *Config) { c.SuccessReset = 0 }, "success reset"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate limit"},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }, "rate burst"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	cfg := Default()
	cfg.RateLimit = 0
	cfg.RateBurst = 0
	assert.NoError(t, cfg.Validate(), "burst is ignored when limiting is off")
}

func TestConfig_Store(t *testing.T) {
	cfg := Default()
	cfg.StoreDriver = store.DriverFile
	cfg.StorePath = "/tmp/sessions"
	assert.Equal(t, store.Config{Driver: store.DriverFile, Path: "/tmp/sessions"}, cfg.Store())
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	t.Run("empty path", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, carbon.DefaultPolicy(), p)
	})

	t.Run("partial override", func(t *testing.T) {
		p, err := LoadPolicy(write("partial.yaml", "price_per_ton_brl: 50\n"))
		require.NoError(t, err)
		assert.Equal(t, 50.0, p.PricePerTonBRL)
		assert.Equal(t, carbon.MinimumCompensationBRL, p.MinimumCompensationBRL)
		assert.Equal(t, carbon.PassengerSurchargeRate, p.PassengerSurchargeRate)
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := LoadPolicy(write("negative.yaml", "minimum_compensation_brl: -1\n"))
		assert.ErrorIs(t, err, carbon.ErrInvalidPolicy)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadPolicy(write("bad.yaml", "price_per_ton_brl: [1, 2\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"service":"tripcarbon"`)

	buf.Reset()
	cfg.LogFormat = LogFormatConsole
	cfg.LogLevel = "bogus"
	logger = cfg.NewLogger(&buf)
	logger.Info().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), `"message"`)
}
