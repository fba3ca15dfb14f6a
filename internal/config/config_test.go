package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":7801", cfg.ListenAddr)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Empty(t, cfg.ScriptURL)
	assert.True(t, cfg.DisableTLS)
}

func TestLoadJSONOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"listen_addr": ":9000",
		"script_url": "https://script.example.com/exec",
		"access_token_ttl": "30m",
		"release_mode": true
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "https://script.example.com/exec", cfg.ScriptURL)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.True(t, cfg.ReleaseMode)
	// Untouched keys keep their defaults.
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadFlagsWinOverJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen_addr": ":9000"}`), 0o644))

	cfg, err := Load([]string{"-c", path, "-a", ":9100"})
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.ListenAddr)
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("EVENSIA_SCRIPT_URL", "https://env.example.com/exec")
	t.Setenv("EVENSIA_RELEASE_MODE", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/exec", cfg.ScriptURL)
	assert.True(t, cfg.ReleaseMode)
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load([]string{"-c", path})
	assert.Error(t, err)
}
