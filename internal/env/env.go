// Package env resolves environment-driven defaults for the CLI.
package env

import (
	"os"
	"path/filepath"
)

// DBPathEnv overrides the store location when set.
const DBPathEnv = "OTPKEEP_DB"

// DBPath returns the store location: $OTPKEEP_DB when set, otherwise
// otpkeep/otpkeep.db under the user config directory, falling back to
// a dotfile in the home directory when no config dir exists.
func DBPath() string {
	if p := os.Getenv(DBPathEnv); p != "" {
		return p
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "otpkeep", "otpkeep.db")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "otpkeep.db"
	}
	return filepath.Join(home, ".otpkeep.db")
}

// EnsureParentDir creates the directory containing path if needed.
func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}
