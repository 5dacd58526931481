package dataset

import (
	"log/slog"

	"github.com/KaramelBytes/engage-cli/internal/logging"
)

// NormalizeOptions controls schema coercion.
type NormalizeOptions struct {
	Number NumberFormat
	Logger *slog.Logger
}

// Normalize coerces loosely-typed records into a table with exactly the
// schema's columns, in schema order. Missing columns are null, numeric
// columns that fail to parse are null, and rows whose schema columns are all
// null are dropped. Rows with partial nulls are kept. Normalize never fails:
// empty input yields an empty table and a warning.
func Normalize(records []Record, schema Schema, log *slog.Logger) *Table {
	return NormalizeWith(records, schema, NormalizeOptions{Logger: log})
}

// NormalizeWith is Normalize with explicit number parsing options.
func NormalizeWith(records []Record, schema Schema, opt NormalizeOptions) *Table {
	log := logging.OrDiscard(opt.Logger)
	out := schema.Empty()
	if len(records) == 0 {
		log.Warn("no valid records received", "schema", schema.Name)
		return out
	}

	missing := map[string]int{}
	coerced := 0
	dropped := 0
	for _, rec := range records {
		row := make(Row, len(schema.Columns))
		empty := true
		for j, col := range schema.Columns {
			raw, ok := col.lookup(rec)
			if !ok {
				missing[col.Name]++
				continue
			}
			var v Value
			if col.Kind == Numeric {
				v = toNumber(raw, opt.Number)
				if !v.Valid && raw != nil {
					coerced++
				}
			} else {
				v = toText(raw)
			}
			row[j] = v
			if v.Valid {
				empty = false
			}
		}
		if empty {
			dropped++
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	for name, n := range missing {
		log.Debug("column filled with nulls", "column", name, "records", n)
	}
	if coerced > 0 {
		log.Warn("non-numeric values coerced to null", "schema", schema.Name, "count", coerced)
	}
	if dropped > 0 {
		log.Info("dropped fully empty rows", "schema", schema.Name, "count", dropped)
	}
	return out
}

// NormalizeTable normalizes a loaded table (typically all text cells).
func NormalizeTable(raw *Table, schema Schema, opt NormalizeOptions) *Table {
	if raw == nil {
		return NormalizeWith(nil, schema, opt)
	}
	return NormalizeWith(raw.Records(), schema, opt)
}

// DropNulls returns a new table without rows that are null in any of cols.
// Unknown column names are reported as MissingColumnError.
func DropNulls(t *Table, cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j := t.Index(c)
		if j < 0 {
			return nil, &MissingColumnError{Column: c}
		}
		idx[i] = j
	}
	out := &Table{Columns: append([]Column(nil), t.Columns...), Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		keep := true
		for _, j := range idx {
			if r[j].IsNull() {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}
