package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration, loaded from a YAML file.
type Config struct {
	SpecDir   string `yaml:"spec_dir"`
	RedisAddr string `yaml:"redis_addr"`

	// Actor is recorded on every write the daemon makes. Change events
	// carrying this actor are ignored, so the daemon never reacts to its
	// own writes.
	Actor string `yaml:"actor"`

	AuditLog string `yaml:"audit_log"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// Pipeline controls whether a successful sync triggers the
	// backup/intended/push pipeline against the uplink switch.
	Pipeline bool `yaml:"pipeline"`

	Webhook WebhookConfig `yaml:"webhook"`
}

// WebhookConfig configures the optional HTTP trigger endpoint. An empty
// Listen disables it.
type WebhookConfig struct {
	Listen string `yaml:"listen"`
	Secret string `yaml:"secret"`
}

// DefaultConfigPath is used when no -config flag is given.
const DefaultConfigPath = "/etc/portsync/portsyncd.yaml"

// LoadConfig reads and validates a daemon configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{Pipeline: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyDefaults()

	if cfg.Webhook.Listen != "" && cfg.Webhook.Secret == "" {
		return nil, fmt.Errorf("webhook.secret is required when webhook.listen is set")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SpecDir == "" {
		c.SpecDir = "/etc/portsync"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Actor == "" {
		c.Actor = "portsyncd"
	}
	if c.AuditLog == "" {
		c.AuditLog = c.SpecDir + "/audit.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
