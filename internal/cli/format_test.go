package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/remote/jsonlfile"
	"github.com/xolan/outreach/internal/view"
)

func row(e entry.Entry) view.Row {
	return view.Row{Entry: e, Category: category.Default().Resolve(e.Category)}
}

func TestFormatContact(t *testing.T) {
	tests := []struct {
		name     string
		entry    entry.Entry
		expected string
	}{
		{"with email", entry.Entry{Name: "Zoe Park", Email: "zoe@example.com"}, "Zoe Park <zoe@example.com>"},
		{"without email", entry.Entry{Name: "Zoe Park"}, "Zoe Park"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatContact(tt.entry); got != tt.expected {
				t.Errorf("FormatContact() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestFormatEntryLine(t *testing.T) {
	tests := []struct {
		name     string
		entry    entry.Entry
		expected string
	}{
		{
			name:     "all fields",
			entry:    entry.Entry{ID: "e1", Name: "Zoe Park", Email: "zoe@example.com", User: "zpark", Category: 2},
			expected: "e1 Zoe Park <zoe@example.com> @zpark [Business]",
		},
		{
			name:     "name only",
			entry:    entry.Entry{ID: "e2", Name: "Bob Stone", Category: 0},
			expected: "e2 Bob Stone [Misc.]",
		},
		{
			name:     "unknown category",
			entry:    entry.Entry{ID: "e3", Name: "Mia Cole", Category: 42},
			expected: "e3 Mia Cole [Unknown]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatEntryLine(row(tt.entry)); got != tt.expected {
				t.Errorf("FormatEntryLine() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestWriteEntryTable(t *testing.T) {
	var buf bytes.Buffer
	WriteEntryTable(&buf, []view.Row{
		row(entry.Entry{ID: "e1", Name: "Zoe Park", Email: "zoe@example.com", Category: 2}),
		row(entry.Entry{ID: "e22", Name: "Bob", User: "bstone", Category: 1}),
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	expected := []string{
		"ID   NAME      EMAIL            USER    CATEGORY",
		"e1   Zoe Park  zoe@example.com  -       Business",
		"e22  Bob       -                bstone  Politics",
	}
	for i, want := range expected {
		if lines[i] != want {
			t.Errorf("line %d = %q, expected %q", i, lines[i], want)
		}
	}
}

func TestWriteEntryTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	WriteEntryTable(&buf, nil)
	if got := buf.String(); got != "ID  NAME  EMAIL  USER  CATEGORY\n" {
		t.Errorf("WriteEntryTable(nil) = %q", got)
	}
}

func TestWriteEntryDetail(t *testing.T) {
	var buf bytes.Buffer
	WriteEntryDetail(&buf, row(entry.Entry{ID: "e1", Name: "Zoe Park", Category: 3}))
	out := buf.String()
	for _, want := range []string{"ID:       e1", "Name:     Zoe Park", "Email:    -", "User:     -", "Category: Entertainment (3)"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		shown, total int
		expected     string
	}{
		{0, 0, "0 entries"},
		{1, 1, "1 entry"},
		{3, 3, "3 entries"},
		{2, 5, "2 of 5 entries"},
		{0, 1, "0 of 1 entry"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.shown, tt.total); got != tt.expected {
			t.Errorf("FormatCount(%d, %d) = %q, expected %q", tt.shown, tt.total, got, tt.expected)
		}
	}
}

func TestFormatCorruptionWarning(t *testing.T) {
	tests := []struct {
		name     string
		warning  jsonlfile.ParseWarning
		expected string
	}{
		{
			name:     "short content",
			warning:  jsonlfile.ParseWarning{LineNumber: 1, Content: "short content", Error: "parse error"},
			expected: "  Line 1: short content (error: parse error)",
		},
		{
			name: "long content gets truncated",
			warning: jsonlfile.ParseWarning{
				LineNumber: 42,
				Content:    strings.Repeat("x", 60),
				Error:      "invalid json",
			},
			expected: "  Line 42: " + strings.Repeat("x", 47) + "... (error: invalid json)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCorruptionWarning(tt.warning); got != tt.expected {
				t.Errorf("FormatCorruptionWarning() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		word     string
		count    int
		expected string
	}{
		{"entry", 0, "entries"},
		{"entry", 1, "entry"},
		{"entry", 2, "entries"},
		{"line", 1, "line"},
		{"line", 3, "lines"},
	}
	for _, tt := range tests {
		if got := Pluralize(tt.word, tt.count); got != tt.expected {
			t.Errorf("Pluralize(%q, %d) = %q, expected %q", tt.word, tt.count, got, tt.expected)
		}
	}
}
