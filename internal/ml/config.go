package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BaseConfig provides common configuration functionality
type BaseConfig struct {
	ConfigPath string `json:"-"`
}

// LoadConfig loads configuration from a file, falling back to environment variables
func (c *BaseConfig) LoadConfig(configPath string, envPrefix string, config interface{}) error {
	// Try to load from file first
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read %s config: %w", envPrefix, err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse %s config: %w", envPrefix, err)
		}
		log.Infof("Loaded %s configuration from file: %s", envPrefix, configPath)
		return nil
	}

	// Try default config file in config directory
	defaultPath := filepath.Join("config", fmt.Sprintf("%s.json", envPrefix))
	if data, err := os.ReadFile(defaultPath); err == nil {
		if err := json.Unmarshal(data, config); err == nil {
			log.Infof("Loaded configuration from default file: %s", defaultPath)
			return nil
		}
		log.Warnf("Ignoring unparsable config file %s", defaultPath)
	}

	// Fall back to environment variables
	log.Debugf("Using environment variables for %s configuration", envPrefix)
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
