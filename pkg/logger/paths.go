/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
)

// PlatformLogPaths lists candidate log file locations in preference order.
// The first writable one wins.
func PlatformLogPaths() []string {
	paths := []string{
		"/var/log/scriptship/scriptship.log",
	}
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		paths = append(paths, filepath.Join(stateHome, "scriptship", "scriptship.log"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".local", "state", "scriptship", "scriptship.log"),
			filepath.Join(home, ".scriptship", "scriptship.log"),
		)
	}
	return paths
}

// ResolveLogPath attempts to find the best writable log file path.
func ResolveLogPath() string {
	for _, path := range PlatformLogPaths() {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			continue
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err == nil {
			_ = file.Close()
			return path
		}
	}
	return ""
}
