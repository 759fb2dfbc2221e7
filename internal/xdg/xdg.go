// Package xdg provides helpers to resolve XDG Base Directory paths for athenacli.
// It implements the XDG Base Directory specification for determining where the
// config file, the diagnostic log and the shell history live.
//
// The package handles fallback to traditional locations when XDG environment
// variables are not set and ensures private permissions on the directories it creates.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "athenacli"

// ConfigDir returns the XDG config directory for athenacli.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/athenacli when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for athenacli.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/athenacli when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// LogFile returns the default diagnostic log path inside StateDir.
func LogFile() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".log"), nil
}

// HistoryFile returns the default shell history path inside StateDir.
func HistoryFile() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

func resolve(envVar, homeFallback string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeFallback)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
