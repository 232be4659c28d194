// Package paths resolves where parsevideo keeps its config, database, log
// and lock files.
//
// Under sudo the files of the invoking user (SUDO_USER) are used rather than
// root's. PARSEVIDEO_HOME overrides the directory entirely.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
)

// HomeEnv names the environment variable that overrides AppDir.
const HomeEnv = "PARSEVIDEO_HOME"

// UserHomeDir returns the home directory of the actual user.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// AppDir returns ~/.config/parsevideo for the actual user, or $PARSEVIDEO_HOME.
func AppDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "parsevideo"), nil
}

func inAppDir(name string) (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPath returns the path of config.toml.
func ConfigPath() (string, error) {
	return inAppDir("config.toml")
}

// DatabasePath returns the path of the parse history database.
func DatabasePath() (string, error) {
	return inAppDir("parsevideo.db")
}

// LogPath returns the default daemon log file.
func LogPath() (string, error) {
	return inAppDir(filepath.Join("logs", "parsevideod.log"))
}

// LockPath returns the lock file that keeps a single daemon running.
func LockPath() (string, error) {
	return inAppDir("parsevideod.lock")
}

// ActualUser returns the actual username (not root when using sudo).
func ActualUser() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		return sudoUser
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
