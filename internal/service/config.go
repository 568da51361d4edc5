package service

import (
	"fmt"
	"os"

	"github.com/xolan/outreach/internal/config"
)

// ConfigService manages the configuration file.
type ConfigService struct {
	configPath string
	config     config.Config
}

// NewConfigService creates a ConfigService for the file at configPath
// holding the effective cfg.
func NewConfigService(configPath string, cfg config.Config) *ConfigService {
	return &ConfigService{configPath: configPath, config: cfg}
}

// Get returns the effective configuration.
func (s *ConfigService) Get() config.Config {
	return s.config
}

func (s *ConfigService) GetPath() string {
	return s.configPath
}

// Exists reports whether the config file exists.
func (s *ConfigService) Exists() bool {
	_, err := os.Stat(s.configPath)
	return err == nil
}

// Init writes the commented sample config. It refuses to overwrite.
func (s *ConfigService) Init() error {
	if s.Exists() {
		return fmt.Errorf("config file already exists at %s", s.configPath)
	}
	if err := os.WriteFile(s.configPath, []byte(config.GenerateSampleConfig()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Update validates cfg and writes it to the config file.
func (s *ConfigService) Update(cfg config.Config) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Save(s.configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	s.config = cfg
	return nil
}
