package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KELAS_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "KELAS API", cfg.AppName)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, time.Hour, cfg.HelpScanInterval)
	require.Equal(t, 5*time.Minute, cfg.HelpFeedCacheTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KELAS_JWT_SECRET", "test-secret")
	t.Setenv("KELAS_APP_ENV", "production")
	t.Setenv("KELAS_DATABASE_URL", "postgres://db/kelas")
	t.Setenv("KELAS_HELP_SCAN_INTERVAL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "production", cfg.AppEnv)
	require.Equal(t, "postgres://db/kelas", cfg.DatabaseURL)
	require.Equal(t, 30*time.Minute, cfg.HelpScanInterval)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("KELAS_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("KELAS_JWT_SECRET", "test-secret")
	t.Setenv("KELAS_HELP_SCAN_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddress(t *testing.T) {
	require.Equal(t, ":8080", Config{AppPort: "8080"}.HTTPAddress())
	require.Equal(t, ":9090", Config{AppPort: ":9090"}.HTTPAddress())
}
