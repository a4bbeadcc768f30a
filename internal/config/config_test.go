package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/moveops
rabbitmq:
  url: amqp://localhost
auth:
  jwks_url: https://idp.example.com/.well-known/jwks.json
  issuer: https://idp.example.com/realm
directory:
  base_url: https://idp.example.com/admin
workers: 4
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/moveops", cfg.Database.URL)
	require.Equal(t, "PLATFORM_ADMIN", cfg.Auth.AdminGroup, "admin group defaults")
	require.Equal(t, 4, cfg.Workers)
}

func TestLoadConfigMissingRequiredKey(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/moveops
rabbitmq:
  url: amqp://localhost
auth:
  issuer: https://idp.example.com/realm
directory:
  base_url: https://idp.example.com/admin
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "jwks_url")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
