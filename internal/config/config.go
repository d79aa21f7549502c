// Package config loads the dashboard settings from the environment and an
// optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the dashboard server.
type Config struct {
	APIURL      string // enrichment backend base URL (required)
	ListenAddr  string // HTTP listen address (default ":3000")
	TLSCertFile string // TLS certificate file path (optional)
	TLSKeyFile  string // TLS private key file path (optional)
	LogLevel    string // log level: debug, info, warn, error (default "info")
	Env         string // environment: "development" (default) or "production"

	// Job status polling
	PollInterval      time.Duration // status refresh period (default 5s)
	PollerIdleTimeout time.Duration // unviewed pollers are closed after this (default 10m)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS for the snapshot API
	CORSAllowedOrigins []string // default: ["*"]

	// Scheduled export of all results
	ExportSchedule string // cron expression; empty disables the scheduler
	ExportDest     string // path, s3://, gs:// or az:// destination

	// Object store credentials used by exports
	S3KeyID          string
	S3Secret         string
	S3Endpoint       string
	S3Region         string
	GCSKeyFile       string
	AzureAccountName string
	AzureAccountKey  string

	// Non-fatal problems found while loading; logged once the logger exists.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction reports ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config returns true if static S3 credentials are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != "" && c.S3Secret != ""
}

// ExportEnabled returns true when scheduled exports are configured.
func (c *Config) ExportEnabled() bool {
	return c.ExportSchedule != ""
}

// Load reads the configuration from environment variables, falling back to
// the optional dotenv file at envFile (missing is fine) and then to defaults.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", envFile, err)
		}
	}
	for key, def := range map[string]any{
		"LISTEN_ADDR":         ":3000",
		"LOG_LEVEL":           "info",
		"POLL_INTERVAL":       "5s",
		"POLLER_IDLE_TIMEOUT": "10m",
		"RATE_LIMIT_RPS":      "100",
		"RATE_LIMIT_BURST":    "200",
	} {
		v.SetDefault(key, def)
	}
	str := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	cfg := &Config{
		APIURL:           str("ENRICH_API_URL"),
		ListenAddr:       str("LISTEN_ADDR"),
		TLSCertFile:      str("TLS_CERT_FILE"),
		TLSKeyFile:       str("TLS_KEY_FILE"),
		LogLevel:         str("LOG_LEVEL"),
		Env:              str("ENV"),
		ExportSchedule:   str("EXPORT_SCHEDULE"),
		ExportDest:       str("EXPORT_DEST"),
		S3KeyID:          str("KEY_ID"),
		S3Secret:         str("SECRET"),
		S3Endpoint:       str("ENDPOINT"),
		S3Region:         str("REGION"),
		GCSKeyFile:       str("GCS_KEY_FILE"),
		AzureAccountName: str("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  str("AZURE_ACCOUNT_KEY"),
	}

	var err error
	if cfg.PollInterval, err = positiveDuration("POLL_INTERVAL", str("POLL_INTERVAL")); err != nil {
		return nil, err
	}
	if cfg.PollerIdleTimeout, err = positiveDuration("POLLER_IDLE_TIMEOUT", str("POLLER_IDLE_TIMEOUT")); err != nil {
		return nil, err
	}

	cfg.RateLimitRPS = 100
	if f, err := strconv.ParseFloat(str("RATE_LIMIT_RPS"), 64); err == nil && f > 0 {
		cfg.RateLimitRPS = f
	} else {
		cfg.warnf("ignoring invalid RATE_LIMIT_RPS %q", str("RATE_LIMIT_RPS"))
	}
	cfg.RateLimitBurst = 200
	if n, err := strconv.Atoi(str("RATE_LIMIT_BURST")); err == nil && n > 0 {
		cfg.RateLimitBurst = n
	} else {
		cfg.warnf("ignoring invalid RATE_LIMIT_BURST %q", str("RATE_LIMIT_BURST"))
	}

	for _, o := range strings.Split(str("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects unusable settings and records warnings for suspicious ones.
func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("ENRICH_API_URL is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ENRICH_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	switch {
	case c.ExportSchedule != "" && c.ExportDest == "":
		return fmt.Errorf("EXPORT_DEST is required when EXPORT_SCHEDULE is set")
	case c.ExportSchedule == "" && c.ExportDest != "":
		c.warnf("EXPORT_DEST is set but EXPORT_SCHEDULE is empty; scheduled export disabled")
	}
	if strings.HasPrefix(c.ExportDest, "s3://") && !c.HasS3Config() {
		c.warnf("EXPORT_DEST is an s3:// URL but KEY_ID/SECRET are not set")
	}

	if c.IsProduction() {
		if slices.Contains(c.CORSAllowedOrigins, "*") {
			return fmt.Errorf("CORS wildcard (*) is not allowed when ENV=production")
		}
		if u.Scheme == "http" {
			c.warnf("ENRICH_API_URL uses plain http in production")
		}
	}
	return nil
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func positiveDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}
