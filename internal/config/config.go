package config

import (
	"log"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config holds runtime settings shared across modules. Values come from an
// optional config.yaml, with environment variables taking precedence.
type Config struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	UploadsDir     string   `yaml:"uploads_dir"`

	// Login attempts allowed per second (token bucket) and burst size.
	LoginRatePerSec float64 `yaml:"login_rate_per_sec"`
	LoginBurst      int     `yaml:"login_burst"`
}

// DefaultConfigPath is checked when CONFIG_PATH is not set.
const DefaultConfigPath = "config.yaml"

func defaults() Config {
	return Config{
		Port:            "5050",
		UploadsDir:      "uploads",
		LoginRatePerSec: 1,
		LoginBurst:      5,
	}
}

// Load reads config.yaml (if present) and applies env overrides.
//
// Environment variables:
//   - PORT: listen port
//   - ALLOWED_ORIGINS: comma-separated CORS allow-list
//   - UPLOADS_DIR: directory for captured point photos
//   - CONFIG_PATH: alternate path for the yaml file
func Load() Config {
	cfg := defaults()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatal("Failed to parse config file: ", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		cfg.UploadsDir = dir
	}

	if cfg.LoginRatePerSec <= 0 {
		cfg.LoginRatePerSec = 1
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = 5
	}

	return cfg
}
