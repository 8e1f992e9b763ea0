package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLookup(vars map[string]string) envLookup {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadDefaultsWhenNoEnvOrFile(t *testing.T) {
	cfg, err := load("", fixedLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 20, cfg.MaxConcurrentPollers)
	assert.Equal(t, 80.0, cfg.CPUThreshold)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	cfg, err := load("", fixedLookup(map[string]string{
		"NMS_ENV":                "production",
		"DB_PASSWORD":            "secret",
		"DB_PORT":                "6543",
		"CPU_THRESHOLD":          "90.5",
		"NMS_DEBUG":              "true",
		"MAX_CONCURRENT_POLLERS": "not-a-number",
	}))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "secret", cfg.DBPassword)
	assert.Equal(t, 6543, cfg.DBPort)
	assert.Equal(t, 90.5, cfg.CPUThreshold)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 20, cfg.MaxConcurrentPollers, "invalid int should leave default in place")
}

func TestLoadFileOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"db_name":"from_file"}`), 0o600))

	cfg, err := load(path, fixedLookup(map[string]string{"DB_NAME": "from_env"}))
	require.NoError(t, err)

	assert.Equal(t, "from_file", cfg.DBName)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.json"), fixedLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, "nms_db", cfg.DBName)
}

func TestValidateRequiresPasswordInProduction(t *testing.T) {
	cfg := Default()
	cfg.Env = "production"

	err := cfg.Validate()
	require.Error(t, err)

	cfg.DBPassword = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidateAllowsEmptyPasswordInDevelopment(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
