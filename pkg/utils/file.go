package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileExists checks whether a path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDirectory checks whether a path is a directory
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirectory creates a directory if it does not exist
func EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", path, err)
	}
	return nil
}

// ExecutableDir returns the directory holding the running binary, or the
// working directory when it cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// DefaultDownloadDir returns ~/Desktop when it exists, otherwise the working directory
func DefaultDownloadDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		desktop := filepath.Join(home, "Desktop")
		if IsDirectory(desktop) {
			return desktop
		}
	}
	return "."
}

// ResolveDownloadPath picks the local file for remoteName.
//
// dest wins when set: an existing directory (or one written with a trailing
// separator) receives the file under its base name, anything else is used as
// the file path. Without dest the file goes to downloadDir, then to
// DefaultDownloadDir.
func ResolveDownloadPath(dest, downloadDir, remoteName string) string {
	base := path.Base(remoteName)

	if dest != "" {
		if IsDirectory(dest) || strings.HasSuffix(dest, string(filepath.Separator)) || strings.HasSuffix(dest, "/") {
			return filepath.Join(dest, base)
		}
		return dest
	}

	if downloadDir == "" {
		downloadDir = DefaultDownloadDir()
	}
	return filepath.Join(downloadDir, base)
}
