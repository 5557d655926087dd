// Package config loads gateway configuration from an optional YAML file,
// IMPLTRACK_* environment overrides, and SF_* Salesforce credentials.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration. Salesforce credentials come from the
// environment only; they are never read from or written to the YAML file.
type Config struct {
	Salesforce SalesforceConfig `yaml:"-"`
	Server     ServerConfig     `yaml:"server"`
	Transport  TransportConfig  `yaml:"transport"`
	Log        LogConfig        `yaml:"log"`
	Audit      AuditConfig      `yaml:"audit"`
}

// SalesforceConfig holds the connected-app credentials and caller identity.
// Populated from SF_CLIENT_ID, SF_CLIENT_SECRET, SF_INSTANCE_URL,
// SF_USER_EMAIL, and SF_API_VERSION.
type SalesforceConfig struct {
	ClientID     string `envconfig:"CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"CLIENT_SECRET" required:"true"`
	InstanceURL  string `envconfig:"INSTANCE_URL" required:"true"`
	UserEmail    string `envconfig:"USER_EMAIL" required:"true"`
	APIVersion   string `envconfig:"API_VERSION" default:"v62.0"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AuditConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from an optional YAML file and environment
// variables. Environment overrides win over the file.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("IMPLTRACK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("IMPLTRACK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("IMPLTRACK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IMPLTRACK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("IMPLTRACK_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if level := os.Getenv("IMPLTRACK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if auditPath := os.Getenv("IMPLTRACK_AUDIT_PATH"); auditPath != "" {
		cfg.Audit.Path = auditPath
	}

	if cfg.Transport.Mode != "stdio" && cfg.Transport.Mode != "http" {
		return Config{}, fmt.Errorf("invalid transport mode %q: must be stdio or http", cfg.Transport.Mode)
	}

	if err := envconfig.Process("sf", &cfg.Salesforce); err != nil {
		return Config{}, fmt.Errorf("salesforce config: %w", err)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
