package config

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.MaxMessageSize != 1<<20 {
		t.Errorf("expected default max message size %d, got %d", 1<<20, cfg.MaxMessageSize)
	}
	if cfg.BatchWorkers != 4 {
		t.Errorf("expected default batch workers 4, got %d", cfg.BatchWorkers)
	}
	if cfg.DefaultVersion != "2.5.1" {
		t.Errorf("expected default version 2.5.1, got %s", cfg.DefaultVersion)
	}
	if !cfg.DecodeCharset {
		t.Error("expected charset decoding to default to true")
	}
	if cfg.RateLimitRPS != 50 || cfg.RateLimitBurst != 100 {
		t.Errorf("expected default rate limit 50/100, got %g/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected default request timeout 30s, got %s", cfg.RequestTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	os.Setenv("HL7_MAX_MESSAGE_SIZE", "2048")
	os.Setenv("HL7_BATCH_WORKERS", "16")
	os.Setenv("HL7_DECODE_CHARSET", "false")
	os.Setenv("LOG_LEVEL", "DEBUG")
	defer func() {
		os.Unsetenv("HL7_MAX_MESSAGE_SIZE")
		os.Unsetenv("HL7_BATCH_WORKERS")
		os.Unsetenv("HL7_DECODE_CHARSET")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxMessageSize != 2048 {
		t.Errorf("expected max message size 2048, got %d", cfg.MaxMessageSize)
	}
	if cfg.BatchWorkers != 16 {
		t.Errorf("expected 16 batch workers, got %d", cfg.BatchWorkers)
	}
	if cfg.DecodeCharset {
		t.Error("expected charset decoding to be disabled")
	}
	lvl, err := cfg.ZerologLevel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lvl != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %s", lvl)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
	if !c.IsProduction() {
		t.Error("expected IsProduction() to return true for production")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           "8000",
			LogLevel:       "info",
			RequestTimeout: time.Second,
			MaxMessageSize: 1 << 20,
			BatchWorkers:   2,
			DefaultVersion: "2.5.1",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero message size", func(c *Config) { c.MaxMessageSize = 0 }},
		{"huge message size", func(c *Config) { c.MaxMessageSize = 1 << 30 }},
		{"no workers", func(c *Config) { c.BatchWorkers = 0 }},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }},
		{"v3 version", func(c *Config) { c.DefaultVersion = "3.0" }},
		{"negative rate", func(c *Config) { c.RateLimitRPS = -1 }},
		{"negative duplicate window", func(c *Config) { c.DuplicateWindow = -time.Second }},
		{"rate without burst", func(c *Config) { c.RateLimitRPS = 5; c.RateLimitBurst = 0 }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	noDeadline := valid()
	noDeadline.RequestTimeout = 0
	if err := noDeadline.Validate(); err != nil {
		t.Errorf("expected a zero request timeout to disable the deadline, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
