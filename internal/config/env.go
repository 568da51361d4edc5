package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OUTREACH_"

// LoadDotEnv loads path into the process environment without replacing
// variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides cfg with OUTREACH_* variables found by lookup, then
// normalizes it. Call Validate afterwards.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	fields := map[string]*string{
		"BACKEND":       &cfg.Backend,
		"USER":          &cfg.User,
		"FILE_PATH":     &cfg.FilePath,
		"POLL_INTERVAL": &cfg.PollInterval,
		"POSTGRES_DSN":  &cfg.PostgresDSN,
		"SERVER_URL":    &cfg.ServerURL,
		"TOKEN":         &cfg.Token,
		"LISTEN_ADDR":   &cfg.ListenAddr,
		"TOKEN_SECRET":  &cfg.TokenSecret,
		"TOKEN_TTL":     &cfg.TokenTTL,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
	}
	for key, field := range fields {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*field = v
		}
	}
	cfg.Normalize()
}

// Resolve loads the config file at path (defaults when missing), applies
// .env and environment overrides and validates the result.
func Resolve(path, dotenv string) (Config, error) {
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return Config{}, err
	}
	if err := LoadDotEnv(dotenv); err != nil {
		return Config{}, err
	}
	ApplyEnv(&cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
