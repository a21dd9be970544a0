package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TempPrefix marks temporary files created next to the file being replaced.
const TempPrefix = ".tmp_csv_"

// WriteRecords writes records as CSV, optionally preceded by a BOM.
func WriteRecords(w io.Writer, records [][]string, withBOM bool) error {
	if withBOM {
		if _, err := w.Write(bom); err != nil {
			return fmt.Errorf("write bom: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

// ReplaceFile atomically replaces path with whatever write produces.
//
// The content goes to a temporary file in the same directory, is synced, and is
// then renamed over path. The temporary file is removed on every exit path, so a
// failed write never leaves a partial file in place of the original.
func ReplaceFile(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, TempPrefix)
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	defer func() {
		// No-op after a successful rename.
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = fmt.Errorf("remove temp file: %w", rmErr)
		}
	}()

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file over %s: %w", filepath.Base(path), err)
	}
	return nil
}
