// Package config loads the task orchestrator's configuration from
// AGENT_CONFIG_DIR/.taskorchestrator/config.yaml, falling back to a bundled
// default. Precedence: environment variables > config file > defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the task orchestrator MCP server.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Transport   TransportConfig   `yaml:"transport"`
	Log         LogConfig         `yaml:"log"`
	AutoCascade AutoCascadeConfig `yaml:"auto_cascade"`
	Cleanup     CleanupConfig     `yaml:"cleanup"`
}

// ServerConfig holds MCP server metadata.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// TransportConfig holds transport-related settings.
type TransportConfig struct {
	// Mode selects the transport: "stdio" (default) or "http".
	Mode string `yaml:"mode"`
	// Port is the HTTP listen port. Only used when Mode is "http".
	Port string `yaml:"port"`
	// Host is the HTTP listen address. Only used when Mode is "http".
	Host string `yaml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins.
	CORSOrigins string `yaml:"cors_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RoleAggregationRule is one entry of auto_cascade.role_aggregation.rules.
type RoleAggregationRule struct {
	RoleThreshold       string  `yaml:"role_threshold"`
	Percentage          float64 `yaml:"percentage"`
	TargetFeatureStatus string  `yaml:"target_feature_status"`
}

// RoleAggregationConfig configures the role-aggregation cascade rule set.
type RoleAggregationConfig struct {
	Enabled bool                  `yaml:"enabled"`
	Rules   []RoleAggregationRule `yaml:"rules"`
}

// AutoCascadeConfig configures CascadeService.applyCascades.
type AutoCascadeConfig struct {
	Enabled         bool                  `yaml:"enabled"`
	MaxDepth        int                   `yaml:"max_depth"`
	RoleAggregation RoleAggregationConfig `yaml:"role_aggregation"`
}

// CleanupConfig configures CompletionCleanupService.
type CleanupConfig struct {
	Enabled  bool     `yaml:"enabled"`
	KeepTags []string `yaml:"keep_tags"`
}

// Load builds a Config by layering a YAML config file and environment
// variables on top of defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. TASKORCHESTRATOR_CONFIG environment variable
//  3. AGENT_CONFIG_DIR/.taskorchestrator/config.yaml
//  4. ./.taskorchestrator/config.yaml (current directory)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Name:    "taskorchestrator",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Mode:        "stdio",
			Port:        "8420",
			Host:        "0.0.0.0",
			CORSOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
		AutoCascade: AutoCascadeConfig{
			Enabled:  true,
			MaxDepth: 3,
			RoleAggregation: RoleAggregationConfig{
				Enabled: false,
			},
		},
		Cleanup: CleanupConfig{
			Enabled: true,
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the YAML config file. If no file is found, this
// is a no-op: the config file is optional. A malformed file is reported
// back to the caller rather than silently ignored, since callers (main)
// already log and exit on Load errors.
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty
// string if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	// 1. Explicit path from --config flag
	if explicit != "" {
		return explicit
	}

	// 2. TASKORCHESTRATOR_CONFIG env var
	if p := os.Getenv("TASKORCHESTRATOR_CONFIG"); p != "" {
		return p
	}

	// 3. AGENT_CONFIG_DIR/.taskorchestrator/config.yaml
	if dir := os.Getenv("AGENT_CONFIG_DIR"); dir != "" {
		p := dir + "/.taskorchestrator/config.yaml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// 4. ./.taskorchestrator/config.yaml in the current directory
	if _, err := os.Stat(".taskorchestrator/config.yaml"); err == nil {
		return ".taskorchestrator/config.yaml"
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty/parseable.
func (c *Config) applyEnv() {
	envOverride("TASKORCHESTRATOR_TRANSPORT", &c.Transport.Mode)
	envOverride("TASKORCHESTRATOR_PORT", &c.Transport.Port)
	envOverride("TASKORCHESTRATOR_HOST", &c.Transport.Host)
	envOverride("TASKORCHESTRATOR_CORS_ORIGINS", &c.Transport.CORSOrigins)
	envOverride("TASKORCHESTRATOR_LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("TASKORCHESTRATOR_AUTO_CASCADE_ENABLED"); v != "" {
		c.AutoCascade.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TASKORCHESTRATOR_AUTO_CASCADE_MAX_DEPTH"); v != "" {
		var depth int
		if _, err := fmt.Sscanf(v, "%d", &depth); err == nil && depth > 0 {
			c.AutoCascade.MaxDepth = depth
		}
	}
	if v := os.Getenv("TASKORCHESTRATOR_CLEANUP_ENABLED"); v != "" {
		c.Cleanup.Enabled = v == "true" || v == "1"
	}
}

// Validate checks that required fields are present and well formed.
// Malformed role-aggregation rules are dropped silently: no warning is
// logged and no count of dropped rules is returned. They never make Load
// fail outright.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"stdio\" or \"http\")", c.Transport.Mode)
	}

	if c.AutoCascade.MaxDepth <= 0 {
		return fmt.Errorf("auto_cascade.max_depth must be positive, got %d", c.AutoCascade.MaxDepth)
	}

	kept := c.AutoCascade.RoleAggregation.Rules[:0]
	for _, rule := range c.AutoCascade.RoleAggregation.Rules {
		if rule.Percentage < 0 || rule.Percentage > 1 || rule.RoleThreshold == "" || rule.TargetFeatureStatus == "" {
			continue // malformed entries are skipped, never fatal
		}
		kept = append(kept, rule)
	}
	c.AutoCascade.RoleAggregation.Rules = kept

	return nil
}

// envOverride sets *dst to the value of the named env var, if it is
// non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
