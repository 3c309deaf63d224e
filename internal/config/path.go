package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath applies CLI/XDG/home fallback rules for config.conf location.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "voxcart", "config.conf"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "voxcart", "config.conf"), nil
}

// ResolveDSN returns the configured store DSN, falling back to the
// XDG data directory.
func ResolveDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.Store.DSN); dsn != "" {
		return dsn, nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "voxcart", "voxcart.db"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for data fallback")
	}

	return filepath.Join(home, ".local", "share", "voxcart", "voxcart.db"), nil
}
