package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "config.conf"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"store": {"dsn": ":memory:"}}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, ":memory:", loaded.Config.Store.DSN)
}

func TestLoadParseFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"store": {`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestResolvePathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/xdg-config/voxcart/config.conf", path)
}

func TestResolveDSNPrefersConfigured(t *testing.T) {
	cfg := Default()
	cfg.Store.DSN = ":memory:"

	dsn, err := ResolveDSN(cfg)
	require.NoError(t, err)
	require.Equal(t, ":memory:", dsn)
}

func TestResolveDSNFallsBackToXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	dsn, err := ResolveDSN(Default())
	require.NoError(t, err)
	require.Equal(t, "/tmp/xdg-data/voxcart/voxcart.db", dsn)
}
