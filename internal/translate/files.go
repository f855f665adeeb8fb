package translate

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"gdeltpull/internal/logger"
)

// maxConcurrent caps in-flight translation requests. The backend
// tolerates at most around a hundred parallel streams.
const maxConcurrent = 100

// FileTranslator rewrites the title columns of tabular exports.
type FileTranslator struct {
	tr  Translator
	log *logger.Logger
}

// NewFileTranslator creates a file translator over the given backend.
func NewFileTranslator(tr Translator, log *logger.Logger) *FileTranslator {
	return &FileTranslator{tr: tr, log: log}
}

// TranslateFile reads the CSV at srcPath, translates every non-empty
// cell in columns whose name contains "Title" into target, and writes
// the result to dstPath. Cells whose translation fails keep their
// original text. Returns the number of cells translated.
func (f *FileTranslator) TranslateFile(ctx context.Context, srcPath, dstPath, target string) (int, error) {
	header, rows, err := readTable(srcPath)
	if err != nil {
		return 0, err
	}

	var titleCols []int

	for i, name := range header {
		if strings.Contains(name, "Title") {
			titleCols = append(titleCols, i)
		}
	}

	translated := 0

	if len(titleCols) > 0 {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrent)

		results := make([]string, len(rows)*len(titleCols))

		for ri, row := range rows {
			for ci, col := range titleCols {
				if col >= len(row) || strings.TrimSpace(row[col]) == "" {
					continue
				}

				slot := ri*len(titleCols) + ci
				text := row[col]

				g.Go(func() error {
					out, err := f.tr.Translate(ctx, text, target)
					if err != nil {
						// Leave the cell untouched; a partial
						// translation pass is still useful.
						f.log.Debug("Translation failed", "error", err)

						return nil
					}

					results[slot] = out

					return nil
				})
			}
		}

		if err := g.Wait(); err != nil {
			return 0, err
		}

		for ri, row := range rows {
			for ci, col := range titleCols {
				if out := results[ri*len(titleCols)+ci]; out != "" {
					row[col] = out
					translated++
				}
			}
		}
	}

	if err := writeTable(dstPath, header, rows); err != nil {
		return 0, err
	}

	return translated, nil
}

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
