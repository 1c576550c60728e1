package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MaxMessageSize int           `mapstructure:"HL7_MAX_MESSAGE_SIZE"`
	ProfileFile    string        `mapstructure:"HL7_PROFILE_FILE"`
	DecodeCharset  bool          `mapstructure:"HL7_DECODE_CHARSET"`
	BatchWorkers   int           `mapstructure:"HL7_BATCH_WORKERS"`
	DefaultVersion string        `mapstructure:"HL7_DEFAULT_VERSION"`
	RateLimitRPS   float64       `mapstructure:"HL7_RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"HL7_RATE_LIMIT_BURST"`
	// DuplicateWindow is how long an acknowledged control ID is remembered
	// for retransmission detection. Zero disables it.
	DuplicateWindow time.Duration `mapstructure:"HL7_DUPLICATE_WINDOW"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("HL7_MAX_MESSAGE_SIZE", 1<<20)
	v.SetDefault("HL7_PROFILE_FILE", "")
	v.SetDefault("HL7_DECODE_CHARSET", true)
	v.SetDefault("HL7_BATCH_WORKERS", 4)
	v.SetDefault("HL7_DEFAULT_VERSION", "2.5.1")
	v.SetDefault("HL7_RATE_LIMIT_RPS", 50)
	v.SetDefault("HL7_RATE_LIMIT_BURST", 100)
	v.SetDefault("HL7_DUPLICATE_WINDOW", "0s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("HL7_MAX_MESSAGE_SIZE")
	v.BindEnv("HL7_PROFILE_FILE")
	v.BindEnv("HL7_DECODE_CHARSET")
	v.BindEnv("HL7_BATCH_WORKERS")
	v.BindEnv("HL7_DEFAULT_VERSION")
	v.BindEnv("HL7_RATE_LIMIT_RPS")
	v.BindEnv("HL7_RATE_LIMIT_BURST")
	v.BindEnv("HL7_DUPLICATE_WINDOW")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ZerologLevel returns the parsed LOG_LEVEL.
func (c *Config) ZerologLevel() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if _, err := c.ZerologLevel(); err != nil {
		return err
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("HL7_MAX_MESSAGE_SIZE must be positive, got %d", c.MaxMessageSize)
	}
	if c.MaxMessageSize > 64<<20 {
		return fmt.Errorf("HL7_MAX_MESSAGE_SIZE must be at most %d bytes, got %d", 64<<20, c.MaxMessageSize)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("HL7_BATCH_WORKERS must be at least 1, got %d", c.BatchWorkers)
	}
	// zero turns the per-request deadline off
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("HL7_RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("HL7_RATE_LIMIT_BURST must be at least 1 when rate limiting is on, got %d", c.RateLimitBurst)
	}
	if c.DuplicateWindow < 0 {
		return fmt.Errorf("HL7_DUPLICATE_WINDOW must not be negative, got %s", c.DuplicateWindow)
	}
	if !strings.HasPrefix(c.DefaultVersion, "2.") {
		return fmt.Errorf("HL7_DEFAULT_VERSION must be an HL7 v2.x version, got %q", c.DefaultVersion)
	}
	return nil
}
