package jsonlfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/osutil"
)

type fakeProvider struct {
	dir string
}

func (f fakeProvider) UserConfigDir() (string, error) { return f.dir, nil }
func (f fakeProvider) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	osutil.SetProvider(fakeProvider{dir: dir})
	defer osutil.ResetProvider()

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, AppName, EntriesFile), path)

	info, err := os.Stat(filepath.Join(dir, AppName))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReadEntries_MissingFile(t *testing.T) {
	res, err := ReadEntries(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Empty(t, res.Warnings)
}

func TestReadEntries_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), EntriesFile)
	content := `{"id":"1","name":"Ada","owner_id":"u1","category":1}
not json

{"name":"no id"}
{"id":"2","name":"Bob","owner_id":"u1","category":2}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "Ada", res.Entries[0].Name)
	assert.Equal(t, "Bob", res.Entries[1].Name)

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, 2, res.Warnings[0].LineNumber)
	assert.Equal(t, "not json", res.Warnings[0].Content)
	assert.Equal(t, 4, res.Warnings[1].LineNumber)
	assert.Equal(t, "missing id", res.Warnings[1].Error)
}

func TestWriteEntries_RoundTripAndNoTempLeft(t *testing.T) {
	path := filepath.Join(t.TempDir(), EntriesFile)
	in := []entry.Entry{
		{ID: "1", Name: "Ada", Email: "ada@example.com", OwnerID: "u1"},
		{ID: "2", Name: "Bob", OwnerID: "u2", Category: 3},
	}
	require.NoError(t, writeEntries(path, in))

	res, err := ReadEntries(path)
	require.NoError(t, err)
	assert.Equal(t, in, res.Entries)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCreateBackup_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), EntriesFile)

	require.NoError(t, CreateBackup(path), "missing file is not an error")
	assert.Empty(t, ListBackups(path))

	for i, body := range []string{"one\n", "two\n", "three\n", "four\n"} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		require.NoError(t, CreateBackup(path), "backup %d", i)
	}

	backups := ListBackups(path)
	require.Len(t, backups, MaxBackupCount)

	for n, want := range map[int]string{1: "four\n", 2: "three\n", 3: "two\n"} {
		got, err := os.ReadFile(BackupPath(path, n))
		require.NoError(t, err)
		assert.Equal(t, want, string(got), "backup %d", n)
	}
}

func TestBackupPath(t *testing.T) {
	assert.Equal(t, "/x/entries.jsonl.bak.2", BackupPath("/x/entries.jsonl", 2))
}

func TestRestoreBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), EntriesFile)
	require.NoError(t, writeEntries(path, []entry.Entry{{ID: "old", Name: "Old", OwnerID: "u"}}))
	require.NoError(t, CreateBackup(path))
	require.NoError(t, writeEntries(path, []entry.Entry{{ID: "new", Name: "New", OwnerID: "u"}}))

	require.NoError(t, RestoreBackup(path, 1))

	res, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "old", res.Entries[0].ID)

	// The replaced file became the newest backup
	res, err = ReadEntries(BackupPath(path, 1))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "new", res.Entries[0].ID)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestRestoreBackup_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), EntriesFile)

	err := RestoreBackup(path, 0)
	assert.ErrorContains(t, err, "invalid backup number")
	err = RestoreBackup(path, MaxBackupCount+1)
	assert.ErrorContains(t, err, "invalid backup number")
	err = RestoreBackup(path, 2)
	assert.ErrorContains(t, err, "backup 2 does not exist")
}
