package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `env:
  servicename: passport
  debug: true
  log:
    level: debug
http:
  port: 8080
auth:
  accesstokenttl: 30m
secretkey:
  access: from-file
`

func TestLoadWithEnv_FileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfigYAML), 0o600))
	t.Chdir(dir)

	// Environment overlays the file: SECRETKEY_ACCESS maps to secretkey.access.
	t.Setenv("SECRETKEY_ACCESS", "from-env")
	t.Setenv("AUTH_REFRESHTOKENTTL", "48h")

	cfg, err := LoadWithEnv[Config]("config")

	require.NoError(t, err)
	assert.Equal(t, "passport", cfg.Env.ServiceName)
	assert.True(t, cfg.Env.Debug)
	assert.Equal(t, "debug", cfg.Env.Log.Level)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, "from-env", cfg.SecretKey.Access)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadWithEnv[Config]("config")

	require.Error(t, err)
}
