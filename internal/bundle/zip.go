package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ZipDir bundles every regular file directly under dir into a
// deflate-compressed archive at dst. Returns the number of files
// archived. Subdirectories are not expected in the output dir and
// are skipped.
func ZipDir(dir, dst string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read output dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	count := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if err := addFile(zw, dir, entry.Name()); err != nil {
			_ = zw.Close()
			_ = out.Close()

			return 0, err
		}

		count++
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()

		return 0, fmt.Errorf("failed to finish archive: %w", err)
	}

	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("failed to close archive: %w", err)
	}

	return count, nil
}

func addFile(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to compress %s: %w", name, err)
	}

	return nil
}
