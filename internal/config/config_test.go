package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./userstore.db", cfg.DBPath)
	assert.False(t, cfg.Tiered)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := "db:\n  path: /var/lib/gateway/users.db\n  tiered: true\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/gateway/users.db", cfg.DBPath)
	assert.True(t, cfg.Tiered)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadDiscoversFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "userstore.yaml"), []byte("db:\n  path: found.db\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "found.db", cfg.DBPath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  path: file.db\n"), 0o600))
	t.Setenv("USERSTORE_DB_PATH", "env.db")
	t.Setenv("USERSTORE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DBPath)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "explicit file missing",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.yaml")
			},
		},
		{
			name: "bad log level",
			setup: func(t *testing.T) string {
				t.Setenv("USERSTORE_LOG_LEVEL", "chatty")
				t.Chdir(t.TempDir())
				return ""
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.setup(t))
			assert.Error(t, err)
		})
	}
}
