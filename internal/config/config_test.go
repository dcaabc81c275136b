package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCheckManagementKeyPlain(t *testing.T) {
	cfg := &Config{ManagementKey: "secret"}
	if !CheckManagementKey(cfg, "secret") {
		t.Fatalf("expected plain key to match")
	}
	if CheckManagementKey(cfg, "other") {
		t.Fatalf("expected mismatch to fail")
	}
}

func TestCheckManagementKeyHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &Config{ManagementKeyHash: string(hash)}
	if !CheckManagementKey(cfg, "secret") {
		t.Fatalf("expected hashed key to match")
	}
	if CheckManagementKey(cfg, "wrong") {
		t.Fatalf("expected wrong key to fail against hash")
	}
}

func TestManagerDefaultsWithoutFile(t *testing.T) {
	m := NewManager("")
	cfg := m.Get()
	assert.Equal(t, 8317, cfg.Port)
	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, 30, cfg.CookieLifetimeDays)
	assert.Equal(t, "addonshub:", cfg.RedisPrefix)
}

func TestManagerLoadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("port: 9001\nmanagement_key: topsecret\ncookie_lifetime_days: 7\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m := NewManager(path)
	cfg := m.Get()
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "topsecret", cfg.ManagementKey)
	assert.Equal(t, 7, cfg.CookieLifetimeDays)
	// Defaults still fill what the file omits
	assert.Equal(t, "en", cfg.DefaultLocale)
}

func TestManagerEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9001\n"), 0o644))

	t.Setenv("ADDONSHUB_PORT", "9100")
	t.Setenv("ADDONSHUB_REDIS_ADDR", "127.0.0.1:6390")

	m := NewManager(path)
	cfg := m.Get()
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "127.0.0.1:6390", cfg.RedisAddr)
}

func TestManagerReloadNotifiesSubscribers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9001\n"), 0o644))

	m := NewManager(path)
	var seen int
	m.OnReload(func(cfg *Config) { seen = cfg.Port })

	require.NoError(t, os.WriteFile(path, []byte("port: 9002\n"), 0o644))
	require.NoError(t, m.Reload())
	assert.Equal(t, 9002, seen)
}
