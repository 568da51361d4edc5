package jsonlfile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/osutil"
)

const (
	// AppName is the directory name under the user config dir.
	AppName = "outreach"
	// EntriesFile is the default file name.
	EntriesFile = "entries.jsonl"
	// BackupSuffix is inserted between the file name and the rotation number.
	BackupSuffix = ".bak"
	// MaxBackupCount is the number of rotated backups kept.
	MaxBackupCount = 3
)

// ParseWarning describes a line that could not be decoded.
type ParseWarning struct {
	LineNumber int    // 1-indexed
	Content    string // raw line
	Error      string
}

// ReadResult holds decoded entries and warnings for skipped lines.
type ReadResult struct {
	Entries  []entry.Entry
	Warnings []ParseWarning
}

// DefaultPath returns the entries file under the user config directory,
// creating the directory if needed.
func DefaultPath() (string, error) {
	dir, err := osutil.AppDir(AppName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, EntriesFile), nil
}

// ReadEntries decodes path. A missing file yields an empty result. Blank
// lines are ignored; malformed lines are reported as warnings and skipped.
func ReadEntries(path string) (ReadResult, error) {
	result := ReadResult{Entries: []entry.Entry{}}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return result, err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e entry.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			result.Warnings = append(result.Warnings, ParseWarning{
				LineNumber: line,
				Content:    string(raw),
				Error:      err.Error(),
			})
			continue
		}
		if e.ID == "" {
			result.Warnings = append(result.Warnings, ParseWarning{
				LineNumber: line,
				Content:    string(raw),
				Error:      "missing id",
			})
			continue
		}
		result.Entries = append(result.Entries, e)
	}
	return result, scanner.Err()
}

// appendEntry appends one line, creating the file if needed.
func appendEntry(path string, e entry.Entry) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	line, err := json.Marshal(e)
	if err != nil {
		_ = file.Close()
		return err
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// writeEntries replaces path atomically through a temp file and rename.
func writeEntries(path string, entries []entry.Entry) error {
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err == nil {
			_, err = w.Write(append(line, '\n'))
		}
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// BackupPath returns the path of rotation n for path. .bak.1 is newest.
func BackupPath(path string, n int) string {
	return fmt.Sprintf("%s%s.%d", path, BackupSuffix, n)
}

func rotateBackups(path string) error {
	if err := os.Remove(BackupPath(path, MaxBackupCount)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for i := MaxBackupCount - 1; i >= 1; i-- {
		if err := os.Rename(BackupPath(path, i), BackupPath(path, i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// CreateBackup rotates existing backups and copies path to .bak.1. A
// missing path is not an error.
func CreateBackup(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := rotateBackups(path); err != nil {
		return err
	}
	return copyFile(path, BackupPath(path, 1))
}

// ListBackups returns the existing backups of path, newest first.
func ListBackups(path string) []string {
	var out []string
	for i := 1; i <= MaxBackupCount; i++ {
		p := BackupPath(path, i)
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// RestoreBackup replaces path with backup n. The current file is backed up
// first, so a restore can itself be undone with the next backup.
func RestoreBackup(path string, n int) error {
	if n < 1 || n > MaxBackupCount {
		return fmt.Errorf("invalid backup number %d, must be between 1 and %d", n, MaxBackupCount)
	}
	data, err := os.ReadFile(BackupPath(path, n))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("backup %d does not exist", n)
		}
		return err
	}
	if err := CreateBackup(path); err != nil {
		return fmt.Errorf("back up current file: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
