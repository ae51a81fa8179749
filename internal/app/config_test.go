package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "IM001VP", cfg.BarcodePrefix)
	require.False(t, cfg.UnitTracking)
	require.Equal(t, 5*time.Minute, cfg.ScanCacheTTL)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BARCODE_PREFIX", "WH9")
	t.Setenv("UNIT_TRACKING", "true")
	t.Setenv("SCAN_CACHE_TTL", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "WH9", cfg.BarcodePrefix)
	require.True(t, cfg.UnitTracking)
	require.Equal(t, 30*time.Second, cfg.ScanCacheTTL)
	require.True(t, cfg.IsProduction())
}
