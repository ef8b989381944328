package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	logging "github.com/ipfs/go-log"
)

var log = logging.Logger("wastedetect")

// DefaultCredentialPaths are the places a service-account key is looked for
// when none is configured: the working directory and the secret-file mount.
var DefaultCredentialPaths = []string{
	"serviceAccountKey.json",
	"/etc/secrets/serviceAccountKey.json",
}

// Config holds all application configuration
type Config struct {
	Server struct {
		Port              string   `json:"port"`
		AllowedOrigins    []string `json:"allowed_origins"`
		RequestTimeoutSec int      `json:"request_timeout_sec"`
		StrictStatus      bool     `json:"strict_status"`
		MaxMemoryMB       int64    `json:"max_memory_mb"`
		Debug             bool     `json:"debug"`
		StaticDir         string   `json:"static_dir"`
	} `json:"server"`

	Database struct {
		Type            string   `json:"type"` // "firestore", "sqlite" or "none"
		Path            string   `json:"path"`
		CredentialPaths []string `json:"credential_paths"`
		ProjectID       string   `json:"project_id"`
		Collection      string   `json:"collection"`
	} `json:"database"`

	ML struct {
		Type             string `json:"type"` // "gemini", "vertex" or "static"
		Model            string `json:"model"`
		ValidateResponse *bool  `json:"validate_response"`
	} `json:"ml"`
}

// RequestTimeout is the deadline applied to each request's upstream calls
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// ValidateResponse reports whether model replies are schema-checked
func (c *Config) ValidateResponse() bool {
	return c.ML.ValidateResponse == nil || *c.ML.ValidateResponse
}

// LoadConfig loads configuration from a JSON file. A missing file is not an
// error: the defaults plus environment overrides are used instead.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Infof("config file %s not found, using defaults", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&config)
	applyDefaults(&config)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyEnv lets the environment override values from the file
func applyEnv(c *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Server.Port = port
	}
	if model := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); model != "" {
		c.ML.Model = model
	}
	if pid := strings.TrimSpace(os.Getenv("GOOGLE_PROJECT_ID")); pid != "" {
		c.Database.ProjectID = pid
	}
}

func applyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.RequestTimeoutSec <= 0 {
		c.Server.RequestTimeoutSec = 60
	}
	if c.Server.MaxMemoryMB <= 0 {
		c.Server.MaxMemoryMB = 32
	}
	if c.Database.Type == "" {
		c.Database.Type = "firestore"
	}
	if c.Database.Path == "" {
		c.Database.Path = "waste.db"
	}
	if len(c.Database.CredentialPaths) == 0 {
		c.Database.CredentialPaths = DefaultCredentialPaths
	}
	if c.Database.Collection == "" {
		c.Database.Collection = "waste_records"
	}
	if c.ML.Type == "" {
		c.ML.Type = "gemini"
	}
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "firestore", "sqlite", "none":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	switch c.ML.Type {
	case "gemini", "vertex", "static":
	default:
		return fmt.Errorf("unsupported ml type: %s", c.ML.Type)
	}
	return nil
}

// FindCredentials returns the first configured credential file that exists
func (c *Config) FindCredentials() (string, bool) {
	for _, p := range c.Database.CredentialPaths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("WASTEDETECT_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}
