package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// candidateNames are tried in order inside the hark config directory.
var candidateNames = []string{"config.jsonc", "config.yaml", "config.yml"}

// ResolvePath returns the explicit path when given. Otherwise it returns the
// first existing candidate under $XDG_CONFIG_HOME/hark (or ~/.config/hark),
// and config.jsonc there when none exists.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}
	for _, name := range candidateNames {
		path := filepath.Join(dir, name)
		if _, statErr := os.Stat(path); statErr == nil {
			return path, nil
		}
	}
	return filepath.Join(dir, candidateNames[0]), nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "hark"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "hark"), nil
}
