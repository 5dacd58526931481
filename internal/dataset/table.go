package dataset

import (
	"strconv"
	"strings"
)

// Kind is the declared type of a column.
type Kind int

const (
	// Text columns keep their string form.
	Text Kind = iota
	// Numeric columns hold float64 values.
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	default:
		return "text"
	}
}

// Value is a single nullable cell. A zero Value is null.
type Value struct {
	Str   string
	Num   float64
	Valid bool
}

// Null returns an absent value.
func Null() Value { return Value{} }

// Number returns a present numeric value.
func Number(f float64) Value { return Value{Num: f, Valid: true} }

// String returns a present text value.
func String(s string) Value { return Value{Str: s, Valid: true} }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return !v.Valid }

// Format renders the value for CSV output; null renders as an empty field.
func (v Value) Format(k Kind) string {
	if !v.Valid {
		return ""
	}
	if k == Numeric {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Row is an ordered sequence of cells aligned with Table.Columns.
type Row []Value

// Record is a loosely-typed row keyed by column name, as produced by
// collectors and decoded request bodies.
type Record map[string]any

// Table is an ordered set of rows sharing one column layout.
// Transformations return new tables and never mutate their input.
type Table struct {
	Columns []Column
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column (case-insensitive) or -1.
func (t *Table) Index(name string) int {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, c := range t.Columns {
		if strings.ToLower(c.Name) == key {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column, or false if absent.
func (t *Table) Column(name string) ([]Value, bool) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// Records converts the table back into loosely-typed records. Null cells are
// omitted, numeric cells become float64 and text cells strings.
func (t *Table) Records() []Record {
	out := make([]Record, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(Record, len(t.Columns))
		for j, c := range t.Columns {
			v := r[j]
			if !v.Valid {
				continue
			}
			if c.Kind == Numeric {
				rec[c.Name] = v.Num
			} else {
				rec[c.Name] = v.Str
			}
		}
		out = append(out, rec)
	}
	return out
}

// JSONRows renders rows as maps with nulls preserved, for API responses.
func (t *Table) JSONRows() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			v := r[j]
			switch {
			case !v.Valid:
				m[c.Name] = nil
			case c.Kind == Numeric:
				m[c.Name] = v.Num
			default:
				m[c.Name] = v.Str
			}
		}
		out = append(out, m)
	}
	return out
}
