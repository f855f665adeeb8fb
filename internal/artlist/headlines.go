package artlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoTitleColumn indicates a file without the Title column the
// headline pass keys on.
var ErrNoTitleColumn = errors.New("no Title column")

// NormalizeTitle reduces a headline to the part before any
// "| source" or "(From source)" suffix, with surrounding whitespace
// removed, so the same story syndicated by several outlets compares
// equal. Common in UK headlines; not exhaustive.
func NormalizeTitle(title string) string {
	title = strings.SplitN(title, "|", 2)[0]
	title = strings.SplitN(title, "(", 2)[0]

	return strings.TrimSpace(title)
}

// DedupeHeadlines reads the article list at srcPath, keeps the first
// row for every normalized title, and writes the survivors to
// dstPath. Rows whose title normalizes to the empty string are always
// kept: an absent headline says nothing about duplication.
func DedupeHeadlines(srcPath, dstPath string) (kept, dropped int, err error) {
	header, rows, err := readTable(srcPath)
	if err != nil {
		return 0, 0, err
	}

	titleIdx := -1

	for i, name := range header {
		if name == "Title" {
			titleIdx = i

			break
		}
	}

	if titleIdx == -1 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNoTitleColumn, srcPath)
	}

	seen := make(map[string]struct{}, len(rows))

	var unique [][]string

	for _, row := range rows {
		norm := ""
		if titleIdx < len(row) {
			norm = NormalizeTitle(row[titleIdx])
		}

		if norm != "" {
			if _, ok := seen[norm]; ok {
				dropped++

				continue
			}

			seen[norm] = struct{}{}
		}

		unique = append(unique, row)
	}

	if err := writeTable(dstPath, header, unique); err != nil {
		return 0, 0, err
	}

	return len(unique), dropped, nil
}

// readTable reads a CSV file leniently: quoting problems are
// tolerated and short rows are skipped.
func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows [][]string

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			continue
		}

		if len(row) != len(header) {
			continue
		}

		rows = append(rows, row)
	}

	return header, rows, nil
}

func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()

			return fmt.Errorf("failed to write row of %s: %w", path, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	return f.Close()
}
