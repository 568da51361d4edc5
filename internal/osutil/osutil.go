// Package osutil resolves per-user application directories behind a
// swappable provider so tests can redirect them.
package osutil

import (
	"os"
	"path/filepath"
)

// PathProvider is the subset of the os package used to locate and create
// application directories.
type PathProvider interface {
	UserConfigDir() (string, error)
	MkdirAll(path string, perm os.FileMode) error
}

// DefaultPathProvider calls the os package.
type DefaultPathProvider struct{}

func (DefaultPathProvider) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

func (DefaultPathProvider) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Provider is used by AppDir and the path helpers of other packages.
var Provider PathProvider = DefaultPathProvider{}

// SetProvider replaces Provider.
func SetProvider(p PathProvider) {
	Provider = p
}

// ResetProvider restores DefaultPathProvider.
func ResetProvider() {
	Provider = DefaultPathProvider{}
}

// AppDir returns <user config dir>/<app>, creating it when missing.
func AppDir(app string) (string, error) {
	base, err := Provider.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, app)
	if err := Provider.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
