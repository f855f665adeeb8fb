package bundle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ReportRow is one line of the end-of-run summary.
type ReportRow struct {
	File string
	Rows int
}

// CollectReport builds summary rows for every CSV file in dir,
// sorted by file name.
func CollectReport(dir string) ([]ReportRow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output dir: %w", err)
	}

	var rows []ReportRow

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		n, err := countDataRows(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		rows = append(rows, ReportRow{File: entry.Name(), Rows: n})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].File < rows[j].File })

	return rows, nil
}

// RenderReport lays the rows out as an aligned two-column table.
// Column widths use display width so non-ASCII file names line up.
func RenderReport(rows []ReportRow) string {
	header := [2]string{"File", "Rows"}
	widths := [2]int{runewidth.StringWidth(header[0]), runewidth.StringWidth(header[1])}

	cells := make([][2]string, 0, len(rows))

	for _, r := range rows {
		cell := [2]string{r.File, strconv.Itoa(r.Rows)}

		for i := 0; i < 2; i++ {
			if w := runewidth.StringWidth(cell[i]); w > widths[i] {
				widths[i] = w
			}
		}

		cells = append(cells, cell)
	}

	var sb strings.Builder

	writeLine := func(cell [2]string) {
		for i := 0; i < 2; i++ {
			sb.WriteString(cell[i])

			if i == 0 {
				padding := widths[i] - runewidth.StringWidth(cell[i])
				sb.WriteString(strings.Repeat(" ", padding+2))
			}
		}

		sb.WriteString("\n")
	}

	writeLine(header)
	writeLine([2]string{strings.Repeat("-", widths[0]), strings.Repeat("-", widths[1])})

	for _, cell := range cells {
		writeLine(cell)
	}

	return sb.String()
}

// countDataRows counts the non-header rows of a CSV file.
func countDataRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	count := -1 // discount the header

	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			continue
		}

		count++
	}

	if count < 0 {
		count = 0
	}

	return count, nil
}
