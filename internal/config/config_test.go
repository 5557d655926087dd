package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwhitt/impltrack-mcp/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SF_CLIENT_ID", "client-id")
	t.Setenv("SF_CLIENT_SECRET", "client-secret")
	t.Setenv("SF_INSTANCE_URL", "https://example.my.salesforce.com")
	t.Setenv("SF_USER_EMAIL", "cde@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "v62.0", cfg.Salesforce.APIVersion)
	require.Equal(t, "cde@example.com", cfg.Salesforce.UserEmail)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("SF_CLIENT_ID", "")
	t.Setenv("SF_CLIENT_SECRET", "")
	t.Setenv("SF_INSTANCE_URL", "")
	t.Setenv("SF_USER_EMAIL", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPLTRACK_SERVER_HOST", "127.0.0.1")
	t.Setenv("IMPLTRACK_SERVER_PORT", "9090")
	t.Setenv("IMPLTRACK_TRANSPORT", "http")
	t.Setenv("IMPLTRACK_LOG_LEVEL", "debug")
	t.Setenv("IMPLTRACK_AUDIT_PATH", "/tmp/audit.db")
	t.Setenv("SF_API_VERSION", "v60.0")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/tmp/audit.db", cfg.Audit.Path)
	require.Equal(t, "v60.0", cfg.Salesforce.APIVersion)
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPLTRACK_SERVER_PORT", "not-a-port")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_InvalidTransport(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPLTRACK_TRANSPORT", "websocket")

	_, err := config.Load()
	require.ErrorContains(t, err, "transport mode")
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 10.0.0.1
  port: 7070
transport:
  mode: http
log:
  level: warn
audit:
  path: gateway.db
`), 0o644))
	t.Setenv("IMPLTRACK_CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", cfg.Server.Host)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "gateway.db", cfg.Audit.Path)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o644))
	t.Setenv("IMPLTRACK_CONFIG_PATH", path)
	t.Setenv("IMPLTRACK_SERVER_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
}
