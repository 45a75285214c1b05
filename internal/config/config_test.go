package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Transport.Mode)
	assert.Equal(t, 3, cfg.AutoCascade.MaxDepth)
	assert.True(t, cfg.Cleanup.Enabled)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, `
transport:
  mode: http
  port: "9000"
auto_cascade:
  max_depth: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Transport.Mode)
	assert.Equal(t, "9000", cfg.Transport.Port)
	assert.Equal(t, 5, cfg.AutoCascade.MaxDepth)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, `
transport:
  mode: http
`)
	t.Setenv("TASKORCHESTRATOR_TRANSPORT", "stdio")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Transport.Mode)
}

func TestLoadEnvMaxDepthIgnoresNonPositive(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TASKORCHESTRATOR_AUTO_CASCADE_MAX_DEPTH", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.AutoCascade.MaxDepth)
}

func TestLoadRejectsInvalidTransportMode(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, "transport:\n  mode: carrier-pigeon\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDropsMalformedRoleAggregationRules(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, `
auto_cascade:
  role_aggregation:
    enabled: true
    rules:
      - role_threshold: review
        percentage: 0.8
        target_feature_status: IN_DEVELOPMENT
      - role_threshold: ""
        percentage: 0.5
        target_feature_status: IN_DEVELOPMENT
      - role_threshold: review
        percentage: 1.5
        target_feature_status: IN_DEVELOPMENT
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.AutoCascade.RoleAggregation.Rules, 1)
	assert.Equal(t, "review", cfg.AutoCascade.RoleAggregation.Rules[0].RoleThreshold)
}

func TestLoadExplicitMissingConfigFileIsAnError(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TASKORCHESTRATOR_CONFIG",
		"TASKORCHESTRATOR_TRANSPORT",
		"TASKORCHESTRATOR_PORT",
		"TASKORCHESTRATOR_HOST",
		"TASKORCHESTRATOR_CORS_ORIGINS",
		"TASKORCHESTRATOR_LOG_LEVEL",
		"TASKORCHESTRATOR_AUTO_CASCADE_ENABLED",
		"TASKORCHESTRATOR_AUTO_CASCADE_MAX_DEPTH",
		"TASKORCHESTRATOR_CLEANUP_ENABLED",
		"AGENT_CONFIG_DIR",
	} {
		t.Setenv(key, "")
	}
}
