package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"zozotech/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	return path
}

func TestLoadPath_Defaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
dsn: postgres://u:p@localhost:5432/db
auth:
  token_secret: secret
  session_secret: session
`)

	cfg, err := config.LoadPath(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, int64(5242880), cfg.FileStorage.MaxSize)
	assert.Equal(t, uint(900), cfg.Gallery.ThumbWidth)
	assert.Equal(t, "ZOZOTECH", cfg.Site.Name)
	assert.Equal(t, "Rp", cfg.Site.Currency)
	assert.Equal(t, "/logo-zozotech.svg", cfg.Site.NavbarLogoURL)
}

func TestLoadPath_MissingRequired(t *testing.T) {
	path := writeConfig(t, `
env: local
auth:
  token_secret: secret
  session_secret: session
`)

	t.Setenv("DATABASE_URL", "unused")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	_, err := config.LoadPath(path)
	assert.Error(t, err)
}

func TestLoadPath_MissingFile(t *testing.T) {
	_, err := config.LoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMustLoadPath_Panics(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
