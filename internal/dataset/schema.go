package dataset

import "strings"

// SchemaColumn is an expected column with accepted header aliases.
type SchemaColumn struct {
	Name    string
	Kind    Kind
	Aliases []string
}

// Schema is the fixed, ordered column set a normalized table must have.
type Schema struct {
	Name    string
	Columns []SchemaColumn
}

// Names returns the expected column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// columns returns the table layout for the schema.
func (s Schema) columns() []Column {
	out := make([]Column, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = Column{Name: c.Name, Kind: c.Kind}
	}
	return out
}

// Empty returns a zero-row table with exactly the schema's columns.
func (s Schema) Empty() *Table {
	return &Table{Columns: s.columns(), Rows: []Row{}}
}

// lookup returns the record value for a schema column. The exact name wins;
// otherwise the name and aliases are tried in declared order, each matched
// case-insensitively. Several keys differing only in case resolve to the
// lexically smallest one.
func (c SchemaColumn) lookup(rec Record) (any, bool) {
	if v, ok := rec[c.Name]; ok {
		return v, true
	}
	for _, want := range c.keys() {
		best, found := "", false
		for k := range rec {
			if strings.EqualFold(strings.TrimSpace(k), want) && (!found || k < best) {
				best, found = k, true
			}
		}
		if found {
			return rec[best], true
		}
	}
	return nil, false
}

func (c SchemaColumn) keys() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// RequireColumns checks that every schema column named in cols is present
// in header, by name or alias. Names outside the schema are not checked.
func (s Schema) RequireColumns(header []string, cols ...string) error {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	for _, col := range cols {
		for _, sc := range s.Columns {
			if !strings.EqualFold(sc.Name, col) {
				continue
			}
			present := false
			for _, k := range sc.keys() {
				if _, ok := have[strings.ToLower(k)]; ok {
					present = true
					break
				}
			}
			if !present {
				return &MissingColumnError{Column: sc.Name}
			}
		}
	}
	return nil
}

// Column names shared by the engagement schema and the CLI defaults.
const (
	ColHour     = "hour"
	ColDay      = "day_of_week"
	ColTrending = "trending_hashtag"
	ColLikes    = "likes"
	ColComments = "comments"
)

// EngagementSchema is the model input layout: three predictors and the like count.
var EngagementSchema = Schema{
	Name: "engagement",
	Columns: []SchemaColumn{
		{Name: ColHour, Kind: Numeric, Aliases: []string{"hora_postagem", "posting_hour"}},
		{Name: ColDay, Kind: Numeric, Aliases: []string{"dia_semana", "weekday", "day"}},
		{Name: ColTrending, Kind: Numeric, Aliases: []string{"hashtag_tendencia", "trending"}},
		{Name: ColLikes, Kind: Numeric, Aliases: []string{"curtidas"}},
	},
}

// PostsSchema is the layout of collected posts.
var PostsSchema = Schema{
	Name: "posts",
	Columns: []SchemaColumn{
		{Name: "shortcode", Kind: Text},
		{Name: "post_date", Kind: Text, Aliases: []string{"date", "datetime"}},
		{Name: ColLikes, Kind: Numeric},
		{Name: ColComments, Kind: Numeric},
	},
}

// DefaultFeatures are the predictor columns of EngagementSchema.
func DefaultFeatures() []string { return []string{ColHour, ColDay, ColTrending} }

// DefaultTarget is the target column of EngagementSchema.
const DefaultTarget = ColLikes

// SchemaByName resolves "posts" or "engagement".
func SchemaByName(name string) (Schema, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "posts", "post":
		return PostsSchema, true
	case "engagement", "":
		return EngagementSchema, true
	}
	return Schema{}, false
}

// ExampleRecords is the fixed five-post dataset used when no input file exists.
func ExampleRecords() []Record {
	hours := []int{10, 12, 15, 18, 20}
	days := []int{1, 3, 5, 6, 7}
	trending := []int{1, 0, 1, 1, 0}
	likes := []int{150, 80, 200, 300, 90}
	out := make([]Record, len(hours))
	for i := range hours {
		out[i] = Record{
			ColHour:     hours[i],
			ColDay:      days[i],
			ColTrending: trending[i],
			ColLikes:    likes[i],
		}
	}
	return out
}
