package infra

import (
	"os"
	"path/filepath"
)

const (
	AppName = "rollup-book"
)

// ResolveConfigPath attempts to find the config.yaml.
// Priority: 1. OBCLIENT_CONFIG, 2. Current Dir, 3. OS Config Dir
func ResolveConfigPath() string {
	if p := os.Getenv("OBCLIENT_CONFIG"); p != "" {
		return p
	}

	defaultPath := filepath.Join("configs", "config.yaml")

	// 1. Current working directory (standard)
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	// 2. OS Standard Config Dir
	configRoot, err := os.UserConfigDir()
	if err == nil {
		osPath := filepath.Join(configRoot, AppName, "config.yaml")
		if _, err := os.Stat(osPath); err == nil {
			return osPath
		}
	}

	// Return default and let LoadConfig fall back to built-in defaults if it's really missing
	return defaultPath
}

// UserAgent identifies this client to the read API.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return AppName + "/" + version
}
