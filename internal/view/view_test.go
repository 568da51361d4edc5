package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
)

var reg = category.Default()

func names(es []entry.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name
	}
	return out
}

func byNames(ns ...string) []entry.Entry {
	out := make([]entry.Entry, len(ns))
	for i, n := range ns {
		out[i] = entry.Entry{ID: "id-" + n, Name: n}
	}
	return out
}

func TestFilter(t *testing.T) {
	ada := entry.Entry{ID: "1", Name: "Ada", Email: "a@x.com", User: "bob", Category: 1}
	zed := entry.Entry{ID: "2", Name: "Zed", Email: "zed@corp.io", User: "carol", Category: 3}
	odd := entry.Entry{ID: "3", Name: "Odd", Category: 99}
	all := []entry.Entry{ada, zed, odd}

	tests := []struct {
		query    string
		expected []entry.Entry
	}{
		{"pol", []entry.Entry{ada}},
		{"POL", []entry.Entry{ada}},
		{"corp", []entry.Entry{zed}},
		{"CAROL", []entry.Entry{zed}},
		{"unknown", []entry.Entry{odd}},
		{"a", []entry.Entry{ada, zed}},
		{"nothing-matches", []entry.Entry{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Filter(all, tt.query, reg)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestFilter_EmptyQueryIsPassThrough(t *testing.T) {
	in := byNames("Zed", "Ada", "Mo")
	got := Filter(in, "", reg)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("Filter with empty query changed input (-want +got):\n%s", diff)
	}
}

func TestSort_ByName(t *testing.T) {
	in := byNames("Zed", "Ada", "Mo")

	asc := Sort(in, ByName, Ascending, reg)
	if diff := cmp.Diff([]string{"Ada", "Mo", "Zed"}, names(asc)); diff != "" {
		t.Errorf("ascending (-want +got):\n%s", diff)
	}
	desc := Sort(in, ByName, Descending, reg)
	if diff := cmp.Diff([]string{"Zed", "Mo", "Ada"}, names(desc)); diff != "" {
		t.Errorf("descending (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Zed", "Ada", "Mo"}, names(in)); diff != "" {
		t.Errorf("Sort modified its input (-want +got):\n%s", diff)
	}
}

func TestSort_RoundTrip(t *testing.T) {
	in := byNames("Zed", "Ada", "Mo", "bea")
	once := Sort(Sort(in, ByName, Ascending, reg), ByName, Descending, reg)
	twice := Sort(Sort(once, ByName, Ascending, reg), ByName, Descending, reg)
	if diff := cmp.Diff(names(once), names(twice)); diff != "" {
		t.Errorf("round trip changed order (-want +got):\n%s", diff)
	}
}

func TestSort_CaseInsensitive(t *testing.T) {
	got := names(Sort(byNames("bob", "Alice", "carl"), ByName, Ascending, reg))
	if diff := cmp.Diff([]string{"Alice", "bob", "carl"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSort_ByCategoryIsStable(t *testing.T) {
	in := []entry.Entry{
		{ID: "1", Name: "first", Category: 2},  // Business
		{ID: "2", Name: "second", Category: 0}, // Misc.
		{ID: "3", Name: "third", Category: 2},  // Business
		{ID: "4", Name: "fourth", Category: 3}, // Entertainment
	}
	asc := names(Sort(in, ByCategory, Ascending, reg))
	if diff := cmp.Diff([]string{"first", "third", "fourth", "second"}, asc); diff != "" {
		t.Errorf("ascending (-want +got):\n%s", diff)
	}
	desc := names(Sort(in, ByCategory, Descending, reg))
	if diff := cmp.Diff([]string{"second", "fourth", "first", "third"}, desc); diff != "" {
		t.Errorf("descending (-want +got):\n%s", diff)
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in       string
		expected Column
		wantErr  bool
	}{
		{"name", ByName, false},
		{" Category ", ByCategory, false},
		{"email", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColumn(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColumn(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseColumn(%q) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}

func TestView_NoSortUntilFirstToggle(t *testing.T) {
	v := New(reg)
	v.Refresh(byNames("Zed", "Ada", "Mo"))

	if _, ok := v.Sort(); ok {
		t.Error("Sort reported a sort before any toggle")
	}
	if diff := cmp.Diff([]string{"Zed", "Ada", "Mo"}, names(v.Entries())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestView_ToggleSharesDirection(t *testing.T) {
	v := New(reg)
	v.Refresh(byNames("Zed", "Ada", "Mo"))

	v.ToggleSort(ByName)
	if diff := cmp.Diff([]string{"Ada", "Mo", "Zed"}, names(v.Entries())); diff != "" {
		t.Errorf("first toggle (-want +got):\n%s", diff)
	}
	v.ToggleSort(ByName)
	if diff := cmp.Diff([]string{"Zed", "Mo", "Ada"}, names(v.Entries())); diff != "" {
		t.Errorf("second toggle (-want +got):\n%s", diff)
	}

	// The next toggle is ascending even though the column changes.
	v.ToggleSort(ByCategory)
	got, _ := v.Sort()
	if got != (SortState{Column: ByCategory, Direction: Ascending}) {
		t.Errorf("Sort() = %+v, expected category asc", got)
	}
}

func TestView_SortSurvivesRefresh(t *testing.T) {
	v := New(reg)
	v.ToggleSort(ByName)
	v.Refresh(byNames("Zed", "Ada"))
	if diff := cmp.Diff([]string{"Ada", "Zed"}, names(v.Entries())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestView_RemoveLocal(t *testing.T) {
	v := New(reg)
	v.Refresh(byNames("Zed", "Ada", "Mo"))
	v.SetQuery("d")

	v.RemoveLocal("id-Ada")
	if diff := cmp.Diff([]string{"Zed"}, names(v.Entries())); diff != "" {
		t.Errorf("after removal (-want +got):\n%s", diff)
	}

	// Survives query and sort changes.
	v.SetQuery("")
	v.ToggleSort(ByName)
	if diff := cmp.Diff([]string{"Mo", "Zed"}, names(v.Entries())); diff != "" {
		t.Errorf("after query change (-want +got):\n%s", diff)
	}
	if v.Total() != 3 {
		t.Errorf("Total() = %d, expected 3", v.Total())
	}
}

func TestView_SnapshotIsAuthoritativeAfterRemoval(t *testing.T) {
	v := New(reg)
	snap := byNames("Zed", "Ada")
	v.Refresh(snap)
	v.RemoveLocal("id-Ada")

	// A later snapshot still holding the id displays it again.
	v.Refresh(snap)
	if diff := cmp.Diff([]string{"Zed", "Ada"}, names(v.Entries())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestView_Rows(t *testing.T) {
	v := New(reg)
	v.Refresh([]entry.Entry{{ID: "1", Name: "Ada", Category: 1}, {ID: "2", Name: "X", Category: 42}})

	rows := v.Rows()
	if len(rows) != 2 {
		t.Fatalf("len(Rows()) = %d, expected 2", len(rows))
	}
	if rows[0].Category.Name != "Politics" {
		t.Errorf("rows[0].Category = %v, expected Politics", rows[0].Category)
	}
	if rows[1].Category != category.Unknown {
		t.Errorf("rows[1].Category = %v, expected Unknown", rows[1].Category)
	}
}

func TestView_OwnerSwitchNeverMerges(t *testing.T) {
	v := New(reg)
	v.Refresh([]entry.Entry{{ID: "a1", Name: "A one", OwnerID: "A"}})
	v.Refresh([]entry.Entry{{ID: "b1", Name: "B one", OwnerID: "B"}})

	for _, e := range v.Entries() {
		if e.OwnerID != "B" {
			t.Errorf("entry %q of owner %q displayed after switch", e.ID, e.OwnerID)
		}
	}
}
