package cmd

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/outreach/internal/auth"
	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/config"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/logging"
	"github.com/xolan/outreach/internal/remote/jsonlfile"
	"github.com/xolan/outreach/internal/remote/wsremote"
)

const testSecret = "0123456789abcdef-test"

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)
	listCategories(category.Default())

	expected := "Categories:\n  0  Misc.\n  1  Politics\n  2  Business\n  3  Entertainment\n"
	assert.Equal(t, expected, env.stdout.String())
}

func TestMintToken(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.TokenSecret = testSecret

	mintToken(" ada ", 0)

	require.Equal(t, -1, env.exitCode, env.stderr.String())
	token := strings.TrimSpace(env.stdout.String())
	user, err := auth.UserIDFromToken(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "ada", user)
}

func TestMintToken_Errors(t *testing.T) {
	t.Run("no secret", func(t *testing.T) {
		env := newTestEnv(t)
		mintToken("ada", time.Hour)
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stderr.String(), "OUTREACH_TOKEN_SECRET")
		assert.Empty(t, env.stdout.String())
	})
	t.Run("empty user", func(t *testing.T) {
		env := newTestEnv(t)
		env.cfg.TokenSecret = testSecret
		mintToken("  ", time.Hour)
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stderr.String(), "User cannot be empty")
	})
}

func TestServe_Errors(t *testing.T) {
	t.Run("no secret", func(t *testing.T) {
		env := newTestEnv(t)
		serve(context.Background(), "127.0.0.1:0")
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stderr.String(), "Cannot start the server")
	})
	t.Run("remote backend", func(t *testing.T) {
		env := newTestEnv(t)
		env.cfg.TokenSecret = testSecret
		env.cfg.Backend = config.BackendRemote
		serve(context.Background(), "127.0.0.1:0")
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stderr.String(), "Cannot serve the remote backend")
	})
}

func TestRunServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendMemory
	cfg.TokenSecret = testSecret

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, cfg, ln, logging.Nop()) }()

	token, err := auth.GenerateToken("ada", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	client, err := wsremote.Dial(context.Background(), "ws://"+ln.Addr().String()+wsremote.Path, token, wsremote.ClientOptions{})
	require.NoError(t, err)

	created, err := client.Create(context.Background(), entry.Entry{Name: "Zoe Park", OwnerID: "ada"})
	require.NoError(t, err)
	got, err := client.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zoe Park", got.Name)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
	_ = client.Close()
}

func TestShowConfig_NoConfigFile(t *testing.T) {
	env := newTestEnv(t)
	showConfig()

	out := env.stdout.String()
	assert.Equal(t, -1, env.exitCode)
	assert.Contains(t, out, "Config file:     "+env.configPath)
	assert.Contains(t, out, "No config file (using defaults)")
	assert.Contains(t, out, "Backend:         file")
	assert.Contains(t, out, "User:            ada")
	assert.Contains(t, out, "Token secret:    (not set)")
	assert.Contains(t, out, "outreach config --init")
}

func TestShowConfig_HidesSecrets(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Backend = config.BackendPostgres
	env.cfg.PostgresDSN = "postgres://app:hunter2@db/outreach"
	env.cfg.TokenSecret = testSecret

	showConfig()

	out := env.stdout.String()
	assert.Contains(t, out, "Postgres DSN:    (set)")
	assert.Contains(t, out, "Token secret:    (set)")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, testSecret)
}

func TestShowConfig_MissingBackendSettings(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Backend = config.BackendRemote
	showConfig()
	assert.Contains(t, env.stdout.String(), "Warning: remote backend requires server_url")
}

func TestInitConfig(t *testing.T) {
	env := newTestEnv(t)
	initConfig()

	require.Equal(t, -1, env.exitCode, env.stderr.String())
	assert.Contains(t, env.stdout.String(), "Created config file at "+env.configPath)
	content, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, config.GenerateSampleConfig(), string(content))

	env.reset()
	initConfig()
	assert.Equal(t, 1, env.exitCode)
	assert.Contains(t, env.stderr.String(), "already exists")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestValidateFile(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, env.cfg.FilePath, `{"id":"e1","name":"Zoe Park","category":2,"owner_id":"ada"}`+"\n"+
		"not json\n")

	validateFile()

	out := env.stdout.String()
	assert.Equal(t, 1, env.exitCode)
	assert.Contains(t, out, "Found 1 corrupted line (1 valid entry)")
	assert.Contains(t, out, "Line 2: not json")
	assert.Contains(t, out, "outreach restore")
}

func TestValidateFile_OK(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, env.cfg.FilePath, `{"id":"e1","name":"Zoe Park","owner_id":"ada"}`+"\n"+
		`{"id":"e2","name":"Bob Stone","owner_id":"ada"}`+"\n")

	validateFile()

	assert.Equal(t, -1, env.exitCode)
	assert.Contains(t, env.stdout.String(), "OK: 2 entries, no corrupted lines")
}

func TestValidateFile_WrongBackend(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Backend = config.BackendMemory
	validateFile()

	assert.Equal(t, 1, env.exitCode)
	assert.Contains(t, env.stderr.String(), "The memory backend has no entries file")
}

func TestRestoreFromBackup(t *testing.T) {
	env := newTestEnv(t)
	path := env.cfg.FilePath
	old := `{"id":"e1","name":"Zoe Park","owner_id":"ada"}` + "\n"
	writeFile(t, path, old)
	require.NoError(t, jsonlfile.CreateBackup(path))
	writeFile(t, path, "broken\n")

	restoreFromBackup(nil)

	require.Equal(t, -1, env.exitCode, env.stderr.String())
	assert.Contains(t, env.stdout.String(), "Successfully restored from backup 1")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, old, string(content))
}

func TestRestoreFromBackup_Errors(t *testing.T) {
	t.Run("no backups", func(t *testing.T) {
		env := newTestEnv(t)
		restoreFromBackup(nil)
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stdout.String(), "No backups available")
	})

	withBackup := func(t *testing.T) *testEnv {
		env := newTestEnv(t)
		writeFile(t, env.cfg.FilePath, "{}\n")
		require.NoError(t, jsonlfile.CreateBackup(env.cfg.FilePath))
		return env
	}
	t.Run("not a number", func(t *testing.T) {
		env := withBackup(t)
		restoreFromBackup([]string{"two"})
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stderr.String(), "Invalid backup number 'two'")
	})
	t.Run("out of range", func(t *testing.T) {
		env := withBackup(t)
		restoreFromBackup([]string{"9"})
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stderr.String(), "Failed to restore backup")
	})
	t.Run("missing backup", func(t *testing.T) {
		env := withBackup(t)
		restoreFromBackup([]string{"2"})
		assert.Equal(t, 1, env.exitCode)
		assert.Contains(t, env.stderr.String(), "backup 2 does not exist")
		assert.Contains(t, env.stderr.String(), filepath.Base(jsonlfile.BackupPath(env.cfg.FilePath, 1)))
	})
}

func TestShowStats(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "ada",
		entry.Draft{Name: "Zoe Park", Email: "zoe@acme.io", User: "zpark", Category: 2},
		entry.Draft{Name: "Bob Stone", Email: "bob@acme.io", Category: 2},
		entry.Draft{Name: "Mia Cole", Category: 3},
	)

	showStats(context.Background())

	require.Equal(t, -1, env.exitCode, env.stderr.String())
	out := env.stdout.String()
	assert.Contains(t, out, "Statistics for ada")
	assert.Contains(t, out, "Entries:        3")
	assert.Contains(t, out, "With email:     2")
	assert.Contains(t, out, "  Business           2  ( 66.7%)")
	assert.Contains(t, out, "  Misc.              0  (  0.0%)")
	assert.Contains(t, out, "  acme.io            2")
}
