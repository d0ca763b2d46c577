package log

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "whisperkey"

// defaultDir is the per-user log location: ~/Library/Logs on macOS,
// %LOCALAPPDATA% on Windows and $XDG_STATE_HOME (~/.local/state) elsewhere.
func defaultDir() (string, error) {
	return platformDir(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func platformDir(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	var base string
	switch goos {
	case "darwin":
		h, err := home()
		if err != nil {
			return "", err
		}
		return filepath.Join(h, "Library", "Logs", appName), nil
	case "windows":
		base = getenv("LOCALAPPDATA")
		if base == "" {
			h, err := home()
			if err != nil {
				return "", err
			}
			base = filepath.Join(h, "AppData", "Local")
		}
	default:
		base = getenv("XDG_STATE_HOME")
		if base == "" {
			h, err := home()
			if err != nil {
				return "", err
			}
			base = filepath.Join(h, ".local", "state")
		}
	}
	return filepath.Join(base, appName, "logs"), nil
}
