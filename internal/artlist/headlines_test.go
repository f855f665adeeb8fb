package artlist

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"Storm hits coast":                    "Storm hits coast",
		"Storm hits coast | Daily Gazette":    "Storm hits coast",
		"Storm hits coast (From The Herald)":  "Storm hits coast",
		"  Storm hits coast  ":                "Storm hits coast",
		"Storm hits coast | A | B":            "Storm hits coast",
		"Storm hits coast (live) | Gazette":   "Storm hits coast",
		"(all parenthetical)":                 "",
		"":                                    "",
	}

	for in, want := range cases {
		if got := NormalizeTitle(in); got != want {
			t.Errorf("NormalizeTitle(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDedupeHeadlines_KeepsFirst(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ArtList.csv")
	dst := filepath.Join(dir, "ArtListNoDuplicates.csv")

	header := []string{"URL", "Date", "Title"}
	rows := [][]string{
		{"example.com/a", "20200103000000", "Storm hits coast | Daily Gazette"},
		{"example.com/b", "20200102000000", "Storm hits coast (From The Herald)"},
		{"example.com/c", "20200101000000", "Quiet day inland"},
	}

	if err := writeTable(src, header, rows); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	kept, dropped, err := DedupeHeadlines(src, dst)
	if err != nil {
		t.Fatalf("DedupeHeadlines failed: %v", err)
	}

	if kept != 2 || dropped != 1 {
		t.Errorf("Expected 2 kept / 1 dropped, got %d / %d", kept, dropped)
	}

	gotHeader, gotRows, err := readTable(dst)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	if len(gotHeader) != 3 {
		t.Errorf("Normalisation column must not leak into the output, got header %v", gotHeader)
	}

	if gotRows[0][0] != "example.com/a" {
		t.Errorf("Expected the first occurrence to survive, got %s", gotRows[0][0])
	}
}

func TestDedupeHeadlines_EmptyTitlesNeverCollapse(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ArtList.csv")
	dst := filepath.Join(dir, "out.csv")

	header := []string{"URL", "Date", "Title"}
	rows := [][]string{
		{"example.com/a", "20200103000000", ""},
		{"example.com/b", "20200102000000", ""},
	}

	if err := writeTable(src, header, rows); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	kept, dropped, err := DedupeHeadlines(src, dst)
	if err != nil {
		t.Fatalf("DedupeHeadlines failed: %v", err)
	}

	if kept != 2 || dropped != 0 {
		t.Errorf("Untitled rows must all survive, got %d kept / %d dropped", kept, dropped)
	}
}

func TestDedupeHeadlines_NoTitleColumn(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.csv")

	if err := writeTable(src, []string{"URL", "Date"}, nil); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	_, _, err := DedupeHeadlines(src, filepath.Join(dir, "out.csv"))
	if !errors.Is(err, ErrNoTitleColumn) {
		t.Fatalf("Expected ErrNoTitleColumn, got %v", err)
	}
}
