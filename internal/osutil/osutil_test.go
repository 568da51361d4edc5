package osutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type mockProvider struct {
	userConfigDir func() (string, error)
	mkdirAll      func(path string, perm os.FileMode) error
}

func (m *mockProvider) UserConfigDir() (string, error) {
	if m.userConfigDir != nil {
		return m.userConfigDir()
	}
	return "", nil
}

func (m *mockProvider) MkdirAll(path string, perm os.FileMode) error {
	if m.mkdirAll != nil {
		return m.mkdirAll(path, perm)
	}
	return nil
}

func TestDefaultPathProvider_MkdirAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := (DefaultPathProvider{}).MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll returned error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("MkdirAll did not create a directory")
	}
}

func TestAppDir(t *testing.T) {
	base := t.TempDir()
	SetProvider(&mockProvider{
		userConfigDir: func() (string, error) { return base, nil },
		mkdirAll:      os.MkdirAll,
	})
	defer ResetProvider()

	dir, err := AppDir("outreach")
	if err != nil {
		t.Fatalf("AppDir returned error: %v", err)
	}
	if expected := filepath.Join(base, "outreach"); dir != expected {
		t.Errorf("AppDir = %q, expected %q", dir, expected)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestAppDir_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		provider *mockProvider
	}{
		{
			name:     "config dir",
			provider: &mockProvider{userConfigDir: func() (string, error) { return "", boom }},
		},
		{
			name: "mkdir",
			provider: &mockProvider{
				userConfigDir: func() (string, error) { return "/tmp", nil },
				mkdirAll:      func(string, os.FileMode) error { return boom },
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetProvider(tt.provider)
			defer ResetProvider()

			if _, err := AppDir("outreach"); !errors.Is(err, boom) {
				t.Errorf("AppDir error = %v, expected %v", err, boom)
			}
		})
	}
}

func TestResetProvider(t *testing.T) {
	SetProvider(&mockProvider{})
	ResetProvider()
	if _, ok := Provider.(DefaultPathProvider); !ok {
		t.Errorf("Provider = %T, expected DefaultPathProvider", Provider)
	}
}
