package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xolan/outreach/internal/osutil"
)

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), ConfigFile)
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	return tmpFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig() is invalid: %v", err)
	}
	if cfg.Backend != BackendFile {
		t.Errorf("Backend = %q, expected %q", cfg.Backend, BackendFile)
	}
	if cfg.Poll() != time.Second {
		t.Errorf("Poll() = %v, expected 1s", cfg.Poll())
	}
	if cfg.TTL() != 720*time.Hour {
		t.Errorf("TTL() = %v, expected 720h", cfg.TTL())
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		expectedBackend string
		expectedUser    string
		expectedLevel   string
	}{
		{
			name: "memory backend",
			content: `backend = "memory"
user = "ada"`,
			expectedBackend: "memory",
			expectedUser:    "ada",
			expectedLevel:   "warn",
		},
		{
			name: "mixed case normalized",
			content: `backend = " Postgres "
postgres_dsn = "postgres://localhost/outreach"
log_level = "DEBUG"`,
			expectedBackend: "postgres",
			expectedUser:    "",
			expectedLevel:   "debug",
		},
		{
			name: "remote backend",
			content: `backend = "remote"
server_url = "wss://example.com/v1/collection"
token = "abc"`,
			expectedBackend: "remote",
			expectedLevel:   "warn",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(createTempConfigFile(t, tt.content))
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			if cfg.Backend != tt.expectedBackend {
				t.Errorf("Backend = %q, expected %q", cfg.Backend, tt.expectedBackend)
			}
			if cfg.User != tt.expectedUser {
				t.Errorf("User = %q, expected %q", cfg.User, tt.expectedUser)
			}
			if cfg.LogLevel != tt.expectedLevel {
				t.Errorf("LogLevel = %q, expected %q", cfg.LogLevel, tt.expectedLevel)
			}
			if err := cfg.RequireBackend(); err != nil {
				t.Errorf("RequireBackend() = %v", err)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"malformed toml", `backend = "memory`, "read config"},
		{"unknown backend", `backend = "redis"`, "invalid backend"},
		{"bad poll interval", `poll_interval = "soon"`, "invalid poll_interval"},
		{"negative poll interval", `poll_interval = "-1s"`, "must be positive"},
		{"bad log level", `log_level = "loud"`, "invalid log_level"},
		{"bad log format", `log_format = "xml"`, "invalid log_format"},
		{"http server url", `server_url = "http://example.com"`, "invalid server_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(createTempConfigFile(t, tt.content))
			if err == nil {
				t.Fatal("Load() should return an error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q should contain %q", err, tt.errPart)
			}
		})
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, ""))
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load(empty) = %+v, expected defaults", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() returned unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadOrDefault(missing) = %+v, expected defaults", cfg)
	}

	if _, err := LoadOrDefault(createTempConfigFile(t, `backend = "nope"`)); err == nil {
		t.Error("LoadOrDefault() should return error for an invalid file")
	}
}

func TestRequireBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Backend: BackendMemory}, false},
		{"file", Config{Backend: BackendFile}, false},
		{"postgres without dsn", Config{Backend: BackendPostgres}, true},
		{"postgres", Config{Backend: BackendPostgres, PostgresDSN: "postgres://x"}, false},
		{"remote without url", Config{Backend: BackendRemote, Token: "t"}, true},
		{"remote without token", Config{Backend: BackendRemote, ServerURL: "ws://x"}, true},
		{"remote", Config{Backend: BackendRemote, ServerURL: "ws://x", Token: "t"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.RequireBackend()
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireBackend() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireServer(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.RequireServer(); err == nil {
		t.Error("RequireServer() should reject an empty secret")
	}
	cfg.TokenSecret = "0123456789abcdef"
	if err := cfg.RequireServer(); err != nil {
		t.Errorf("RequireServer() = %v", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	in := DefaultConfig()
	in.Backend = BackendMemory
	in.User = "ada"

	if err := Save(path, in); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, expected %+v", out, in)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OUTREACH_BACKEND":      "MEMORY",
		"OUTREACH_USER":         " bob ",
		"OUTREACH_TOKEN_SECRET": "s3cr3t",
		"OUTREACH_LOG_LEVEL":    "",
		"UNRELATED":             "x",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	ApplyEnv(&cfg, lookup)

	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q, expected memory", cfg.Backend)
	}
	if cfg.User != "bob" {
		t.Errorf("User = %q, expected bob", cfg.User)
	}
	if cfg.TokenSecret != "s3cr3t" {
		t.Errorf("TokenSecret = %q, expected s3cr3t", cfg.TokenSecret)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("empty variable should not override, LogLevel = %q", cfg.LogLevel)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(path, []byte(`backend = "file"`+"\n"+`user = "ada"`), 0o644); err != nil {
		t.Fatal(err)
	}
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("OUTREACH_TEST_ONLY_MARKER=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OUTREACH_BACKEND", "memory")
	t.Cleanup(func() { _ = os.Unsetenv("OUTREACH_TEST_ONLY_MARKER") })

	cfg, err := Resolve(path, dotenv)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q, env should override file", cfg.Backend)
	}
	if cfg.User != "ada" {
		t.Errorf("User = %q, expected value from file", cfg.User)
	}
	if os.Getenv("OUTREACH_TEST_ONLY_MARKER") != "1" {
		t.Error(".env file was not loaded")
	}
}

func TestResolve_InvalidEnv(t *testing.T) {
	t.Setenv("OUTREACH_LOG_FORMAT", "yaml")
	if _, err := Resolve(filepath.Join(t.TempDir(), "nope.toml"), ""); err == nil {
		t.Error("Resolve() should reject an invalid override")
	}
}

func TestGenerateSampleConfig(t *testing.T) {
	content := GenerateSampleConfig()
	for _, key := range []string{"backend", "user", "file_path", "poll_interval", "postgres_dsn",
		"server_url", "token", "listen_addr", "token_secret", "token_ttl", "log_level", "log_format"} {
		if !strings.Contains(content, "# "+key+" = ") {
			t.Errorf("GenerateSampleConfig() missing commented key %q", key)
		}
	}

	// The sample decodes to the defaults.
	cfg, err := Load(createTempConfigFile(t, content))
	if err != nil {
		t.Fatalf("Load(sample) = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load(sample) = %+v, expected defaults", cfg)
	}
}

func TestGetConfigPath(t *testing.T) {
	dir := t.TempDir()
	osutil.SetProvider(&mockPathProvider{
		userConfigDirFn: func() (string, error) { return dir, nil },
		mkdirAllFn:      os.MkdirAll,
	})
	defer osutil.ResetProvider()

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() = %v", err)
	}
	if expected := filepath.Join(dir, AppName, ConfigFile); path != expected {
		t.Errorf("GetConfigPath() = %q, expected %q", path, expected)
	}
}

func TestGetConfigPath_UserConfigDirError(t *testing.T) {
	defer osutil.ResetProvider()
	osutil.SetProvider(&mockPathProvider{
		userConfigDirFn: func() (string, error) { return "", os.ErrPermission },
	})
	if _, err := GetConfigPath(); err == nil {
		t.Error("GetConfigPath() should return error when UserConfigDir fails")
	}
}

type mockPathProvider struct {
	userConfigDirFn func() (string, error)
	mkdirAllFn      func(path string, perm os.FileMode) error
}

func (m *mockPathProvider) UserConfigDir() (string, error) {
	if m.userConfigDirFn != nil {
		return m.userConfigDirFn()
	}
	return "", nil
}

func (m *mockPathProvider) MkdirAll(path string, perm os.FileMode) error {
	if m.mkdirAllFn != nil {
		return m.mkdirAllFn(path, perm)
	}
	return nil
}
