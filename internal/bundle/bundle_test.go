package bundle

import (
	"archive/zip"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")

	m := Manifest{
		Keywords:      []string{"flood", "storm"},
		KeywordFormat: "OR",
		Language:      "english",
		Start:         "20200101000000",
		End:           "20200201000000",
		Translation:   "fr",
	}

	if err := WriteManifest(path, m); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}

	if !reflect.DeepEqual(*got, m) {
		t.Errorf("Manifest round trip changed data:\n%+v\nvs\n%+v", *got, m)
	}
}

func TestManifest_HistoricalKeyNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")

	if err := WriteManifest(path, Manifest{KeywordFormat: "AND"}); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}

	if !strings.Contains(string(data), `"Keyword Format"`) {
		t.Errorf("Expected the historical 'Keyword Format' key, got %s", data)
	}
}

func TestZipDir(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"ArtList.csv":        "URL,Date,Title\n",
		"TimelineVolRaw.csv": "Date,Value\n",
		"input.json":         "{}",
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", name, err)
		}
	}

	dst := filepath.Join(t.TempDir(), "output.zip")

	count, err := ZipDir(dir, dst)
	if err != nil {
		t.Fatalf("ZipDir failed: %v", err)
	}

	if count != len(files) {
		t.Errorf("Expected %d archived files, got %d", len(files), count)
	}

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer zr.Close()

	if len(zr.File) != len(files) {
		t.Fatalf("Expected %d entries, got %d", len(files), len(zr.File))
	}

	for _, f := range zr.File {
		if _, ok := files[f.Name]; !ok {
			t.Errorf("Unexpected archive entry %s", f.Name)
		}

		if f.Method != zip.Deflate {
			t.Errorf("Entry %s should be deflate-compressed", f.Name)
		}
	}
}

func TestZipDir_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()

	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	count, err := ZipDir(dir, filepath.Join(t.TempDir(), "out.zip"))
	if err != nil {
		t.Fatalf("ZipDir failed: %v", err)
	}

	if count != 1 {
		t.Errorf("Expected 1 archived file, got %d", count)
	}
}

func TestCollectReport(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "B.csv"),
		[]byte("Date,Value\n1,2\n3,4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "A.csv"),
		[]byte("Date,Value\n1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Non-CSV files don't belong in the table.
	if err := os.WriteFile(filepath.Join(dir, "input.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := CollectReport(dir)
	if err != nil {
		t.Fatalf("CollectReport failed: %v", err)
	}

	want := []ReportRow{{File: "A.csv", Rows: 1}, {File: "B.csv", Rows: 2}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Expected %v, got %v", want, rows)
	}
}

func TestRenderReport_Alignment(t *testing.T) {
	out := RenderReport([]ReportRow{
		{File: "ArtList.csv", Rows: 1234},
		{File: "T.csv", Rows: 7},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header, separator and 2 rows, got %d lines", len(lines))
	}

	if !strings.HasPrefix(lines[0], "File") {
		t.Errorf("Expected header line, got %q", lines[0])
	}

	// The numeric column starts at the same offset on every row.
	idx := strings.Index(lines[2], "1234")
	if idx == -1 {
		t.Fatalf("Expected row count in output, got %q", lines[2])
	}

	if strings.Index(lines[3], "7") != idx {
		t.Errorf("Columns are not aligned:\n%s", out)
	}
}

func TestCountDataRows_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	n, err := countDataRows(path)
	if err != nil {
		t.Fatalf("countDataRows failed: %v", err)
	}

	if n != 0 {
		t.Errorf("Expected 0 rows for an empty file, got %d", n)
	}
}
