//go:build !js

package location

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// DataDir returns the directory holding the application's data. It follows
// each platform's conventions:
//
//   - Linux and other Unix: $XDG_DATA_HOME/<application>, with the
//     application lowercased and spaces removed.
//   - macOS: ~/Library/Application Support/<qualifier>.<organization>.<application>,
//     with spaces replaced by hyphens.
//   - Windows: %LOCALAPPDATA%\<organization>\<application>\data
func (l Location) DataDir() (string, error) {
	return l.dataDir(runtime.GOOS, xdg.DataHome)
}

func (l Location) dataDir(goos, dataHome string) (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}

	switch goos {
	case "darwin", "ios":
		bundleID := strings.ReplaceAll(l.Namespace(), " ", "-")
		return filepath.Join(dataHome, bundleID), nil
	case "windows":
		parts := []string{dataHome}
		if org := strings.TrimSpace(l.Organization); org != "" {
			parts = append(parts, org)
		}
		parts = append(parts, strings.TrimSpace(l.Application), "data")
		return filepath.Join(parts...), nil
	default:
		app := strings.ToLower(strings.TrimSpace(l.Application))
		return filepath.Join(dataHome, strings.ReplaceAll(app, " ", "")), nil
	}
}

// Prepare creates dir and any missing parents, accessible only by the
// current user.
func Prepare(fs vfs.FileSystem, dir string) error {
	return fs.MkdirAll(dir, 0o700)
}
