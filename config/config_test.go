package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telestate.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"platform": {"id": "test-node", "log_level": "debug"},
		"registry": {"slot_count": 2}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-node", cfg.Platform.ID)
	assert.Equal(t, 2, cfg.Registry.SlotCount)
	assert.True(t, cfg.Metrics.Enabled, "unset sections keep their defaults")
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoad_RejectsInvalidSections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing platform id", `{"platform": {"id": ""}}`},
		{"bad slot count", `{"registry": {"slot_count": -1}}`},
		{"bad gateway", `{"gateway": {"enabled": true, "addr": ""}}`},
		{"nats without urls", `{"nats": {"enabled": true, "urls": []}}`},
		{"malformed json", `{"platform": `},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeConfig(t, test.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_PathValidation(t *testing.T) {
	_, err := Load("../../../etc/passwd.json")
	assert.Error(t, err, "traversal paths are rejected")

	_, err = Load("config.yaml")
	assert.Error(t, err, "non-JSON files are rejected")

	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_RejectsDeepNesting(t *testing.T) {
	deep := strings.Repeat("[", 200) + strings.Repeat("]", 200)
	path := writeConfig(t, deep)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateJSONDepth_IgnoresBracketsInStrings(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"note": "deep [[[[ brackets }}}}"}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"open": [`)))
}

func TestPlatformConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, PlatformConfig{LogLevel: test.level}.SlogLevel(), test.level)
	}
}

func TestConfig_ToJSON(t *testing.T) {
	cfg := Default()
	out, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"telestated"`)
}
