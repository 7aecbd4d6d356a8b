package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDir   = "vowelpro"
	fileName = "config.jsonc"

	// EnvPath overrides the config location when --config is not given.
	EnvPath = "VOWELPRO_CONFIG"
)

// ResolvePath picks the --config value, then $VOWELPRO_CONFIG, then
// $XDG_CONFIG_HOME/vowelpro/config.jsonc, then ~/.config/vowelpro/config.jsonc.
// A leading "~/" in an explicit path expands to the home directory.
func ResolvePath(explicit string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv(EnvPath)} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return expandHome(candidate)
		}
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDir, fileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return filepath.Join(home, ".config", appDir, fileName), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
