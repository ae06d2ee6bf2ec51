package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.IndexDir)
	assert.Equal(t, 200*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, DefaultFreshnessWindowDays, cfg.FreshnessWindowDays)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
index_dir: /var/lib/filesearch
debounce_window: 500ms
freshness_window_days: 30
log_level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/filesearch", cfg.IndexDir)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 30, cfg.FreshnessWindowDays)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_PartialYamlFile_KeepsRemainingDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := "log_level: warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, DefaultFreshnessWindowDays, cfg.FreshnessWindowDays)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	content := "log_level: [not valid\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EnvVarOverridesFileAndDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := "log_level: warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644))
	t.Setenv("FILESEARCH_LOG_LEVEL", "error")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_EnvVarOverridesDebounceWindow(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("FILESEARCH_DEBOUNCE_WINDOW", "1s")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.DebounceWindow)
}

func TestLoad_EnvVarOverridesFreshnessWindow(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("FILESEARCH_FRESHNESS_WINDOW_DAYS", "7")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.FreshnessWindowDays)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("FILESEARCH_LOG_LEVEL", "")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_InvalidLogLevel_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	content := "log_level: verbose\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_NegativeFreshnessWindow_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	content := "freshness_window_days: -1\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, FileName), []byte(content), 0644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestConfig_WriteYAML_RoundTrips(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, FileName)

	cfg := defaults()
	cfg.LogLevel = "debug"
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.LogLevel)
}
