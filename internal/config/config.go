package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is everything dxportal needs to reach the portal API and its
// identity provider.
type Config struct {
	ServerURL      string
	AuthDomain     string
	AuthClientID   string
	AuthAudience   string
	MapsToken      string
	Token          string
	ExportDir      string
	LogPath        string
	RequestTimeout time.Duration
	RetryAttempts  int
	DedupeInterval time.Duration
	SearchDebounce time.Duration
}

const (
	defaultConfigPath     = "~/.config/dxportal/config.toml"
	defaultExportDir      = "~/Downloads"
	defaultLogPath        = "~/.local/state/dxportal/dxportal.log"
	defaultRequestTimeout = 30 * time.Second
	defaultRetryAttempts  = 3
	defaultDedupeInterval = 2 * time.Second
	defaultSearchDebounce = 200 * time.Millisecond
)

// Environment variables that override the file.
const (
	EnvServerURL    = "DXPORTAL_SERVER_URL"
	EnvAuthDomain   = "DXPORTAL_AUTH_DOMAIN"
	EnvAuthClientID = "DXPORTAL_AUTH_CLIENT_ID"
	EnvAuthAudience = "DXPORTAL_AUTH_AUDIENCE"
	EnvMapsToken    = "DXPORTAL_MAPS_TOKEN"
	EnvToken        = "DXPORTAL_TOKEN"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ExportDir:      mustExpand(defaultExportDir),
		LogPath:        mustExpand(defaultLogPath),
		RequestTimeout: defaultRequestTimeout,
		RetryAttempts:  defaultRetryAttempts,
		DedupeInterval: defaultDedupeInterval,
		SearchDebounce: defaultSearchDebounce,
	}

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		applyEnv(&cfg)
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL      string `toml:"server_url"`
		AuthDomain     string `toml:"auth_domain"`
		AuthClientID   string `toml:"auth_client_id"`
		AuthAudience   string `toml:"auth_audience"`
		MapsToken      string `toml:"maps_token"`
		ExportDir      string `toml:"export_dir"`
		LogFile        string `toml:"log_file"`
		RequestTimeout string `toml:"request_timeout"`
		RetryAttempts  int    `toml:"retry_attempts"`
		DedupeInterval string `toml:"dedupe_interval"`
		SearchDebounce string `toml:"search_debounce"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.ServerURL = strings.TrimSpace(raw.ServerURL)
	cfg.AuthDomain = strings.TrimSpace(raw.AuthDomain)
	cfg.AuthClientID = strings.TrimSpace(raw.AuthClientID)
	cfg.AuthAudience = strings.TrimSpace(raw.AuthAudience)
	cfg.MapsToken = strings.TrimSpace(raw.MapsToken)
	if dir := strings.TrimSpace(raw.ExportDir); dir != "" {
		cfg.ExportDir = mustExpand(dir)
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogPath = mustExpand(logFile)
	}
	if raw.RetryAttempts > 0 {
		cfg.RetryAttempts = raw.RetryAttempts
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"dedupe_interval", raw.DedupeInterval, &cfg.DedupeInterval},
		{"search_debounce", raw.SearchDebounce, &cfg.SearchDebounce},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.value)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvServerURL, &cfg.ServerURL},
		{EnvAuthDomain, &cfg.AuthDomain},
		{EnvAuthClientID, &cfg.AuthClientID},
		{EnvAuthAudience, &cfg.AuthAudience},
		{EnvMapsToken, &cfg.MapsToken},
		{EnvToken, &cfg.Token},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

// UsesStaticToken reports whether sessions use a fixed bearer token instead
// of an interactive sign-in.
func (c Config) UsesStaticToken() bool {
	return c.Token != ""
}

// Validate reports the first setting that prevents the client from starting.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required (or set %s)", EnvServerURL)
	}
	if c.UsesStaticToken() {
		return nil
	}
	if c.AuthDomain == "" || c.AuthClientID == "" {
		return fmt.Errorf("auth_domain and auth_client_id are required unless %s is set", EnvToken)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
