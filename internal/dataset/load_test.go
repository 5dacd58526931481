package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestLoad_MissingFileIsNotFound(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope.csv")
	_, err := Load(p, DefaultLoadOptions())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Path != p {
		t.Fatalf("expected NotFoundError with path, got %#v", err)
	}
}

func TestLoad_UTF8WithBOM(t *testing.T) {
	data := "\xEF\xBB\xBFhour,day_of_week,trending_hashtag,likes\n10,1,1,150\n12,3,0,80\n"
	p := writeFile(t, "posts.csv", []byte(data))
	tbl, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows: got %d", tbl.Len())
	}
	if got := tbl.ColumnNames()[0]; got != "hour" {
		t.Fatalf("BOM not stripped: %q", got)
	}
	if tbl.Rows[1][3].Str != "80" {
		t.Fatalf("unexpected cell: %+v", tbl.Rows[1][3])
	}
}

func TestLoad_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in ISO-8859-1 and invalid as a lone UTF-8 byte.
	data := []byte("caption;likes\ncaf\xe9;10\n")
	p := writeFile(t, "legacy.csv", data)
	tbl, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0][0].Str != "café" {
		t.Fatalf("expected decoded café, got %+v", tbl.Rows)
	}
	if tbl.Rows[0][1].Str != "10" {
		t.Fatalf("semicolon delimiter not sniffed: %+v", tbl.Rows[0])
	}
}

func TestLoad_NoFallbackIsDecodeError(t *testing.T) {
	p := writeFile(t, "legacy.csv", []byte("a\n\xff\xfe\n"))
	_, err := Load(p, LoadOptions{})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	_, err = Load(p, LoadOptions{Fallback: "klingon"})
	if !errors.As(err, &de) || de.Encoding != "klingon" {
		t.Fatalf("expected DecodeError for unknown encoding, got %v", err)
	}
}

func TestLoad_EmptyCellsAndShortRowsAreNull(t *testing.T) {
	p := writeFile(t, "gaps.tsv", []byte("a\tb\tc\n1\t\t3\n4\n"))
	tbl, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl.Columns) != 3 || tbl.Len() != 2 {
		t.Fatalf("shape: %d cols %d rows", len(tbl.Columns), tbl.Len())
	}
	if !tbl.Rows[0][1].IsNull() || !tbl.Rows[1][1].IsNull() || !tbl.Rows[1][2].IsNull() {
		t.Fatalf("expected nulls: %+v", tbl.Rows)
	}
}

func TestLoad_RereadsFile(t *testing.T) {
	p := writeFile(t, "x.csv", []byte("likes\n1\n"))
	if _, err := Load(p, DefaultLoadOptions()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := os.WriteFile(p, []byte("likes\n1\n2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected fresh read with 2 rows, got %d", tbl.Len())
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tbl := Normalize(ExampleRecords(), EngagementSchema, nil)
	tbl.Rows[0][1] = Null()
	p := filepath.Join(t.TempDir(), "out", "normalized.csv")
	if err := WriteCSV(tbl, p); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if lines[0] != "hour,day_of_week,trending_hashtag,likes" {
		t.Fatalf("header: %q", lines[0])
	}
	if lines[1] != "10,,1,150" {
		t.Fatalf("null not written empty: %q", lines[1])
	}
	back, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	again := NormalizeTable(back, EngagementSchema, NormalizeOptions{})
	if again.Len() != tbl.Len() {
		t.Fatalf("rows: got %d want %d", again.Len(), tbl.Len())
	}
	for i := range tbl.Rows {
		for j := range tbl.Columns {
			if again.Rows[i][j] != tbl.Rows[i][j] {
				t.Fatalf("cell %d,%d: got %+v want %+v", i, j, again.Rows[i][j], tbl.Rows[i][j])
			}
		}
	}
}

func TestLoad_TSVEmptyCellKeepsColumns(t *testing.T) {
	p := writeFile(t, "posts.tsv", []byte("shortcode\tpost_date\tlikes\tcomments\nA\t\t120\t5\n"))
	raw, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tbl := NormalizeTable(raw, PostsSchema, NormalizeOptions{})
	if tbl.Len() != 1 {
		t.Fatalf("rows: %d", tbl.Len())
	}
	row := tbl.Rows[0]
	if row[0].Str != "A" || !row[1].IsNull() || row[2].Num != 120 || row[3].Num != 5 {
		t.Fatalf("cells shifted: %+v", row)
	}
}

func TestLoad_FallbackStripsBOM(t *testing.T) {
	p := writeFile(t, "legacy.csv", []byte("\xEF\xBB\xBFname\ncaf\xe9\n"))
	tbl, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tbl.ColumnNames()[0]; got != "name" {
		t.Fatalf("header = %q, want name", got)
	}
	if tbl.Rows[0][0].Str != "café" {
		t.Fatalf("cell = %q", tbl.Rows[0][0].Str)
	}
}
