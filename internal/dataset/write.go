package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/engage-cli/internal/utils"
)

// EncodeCSV renders the table as comma-separated UTF-8 with a header row.
// Nulls are written as empty fields.
func EncodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.ColumnNames()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for i, r := range t.Rows {
		for j, c := range t.Columns {
			rec[j] = r[j].Format(c.Kind)
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the table atomically to path, creating parent directories.
func WriteCSV(t *Table, path string) error {
	b, err := EncodeCSV(t)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	return utils.SafeWriteFile(path, b)
}
