package dataset

import (
	"errors"
	"strings"
	"testing"
)

func TestSplit_ExampleDataset(t *testing.T) {
	tbl := Normalize(ExampleRecords(), EngagementSchema, nil)
	fm, y, err := Split(tbl, DefaultFeatures(), DefaultTarget)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if fm.Rows() != 5 || len(y.Values) != 5 {
		t.Fatalf("rows: fm=%d y=%d", fm.Rows(), len(y.Values))
	}
	if got := fm.Row(4); got[0] != 20 || got[1] != 7 || got[2] != 0 {
		t.Fatalf("row 4: %v", got)
	}
	if y.Values[2] != 200 || y.Name != "likes" {
		t.Fatalf("target: %+v", y)
	}
}

func TestSplit_MissingTargetColumn(t *testing.T) {
	tbl := &Table{Columns: []Column{{Name: "hour", Kind: Numeric}, {Name: "day_of_week", Kind: Numeric}, {Name: "trending_hashtag", Kind: Numeric}}}
	_, _, err := Split(tbl, DefaultFeatures(), "likes")
	var mc *MissingColumnError
	if !errors.As(err, &mc) || mc.Column != "likes" {
		t.Fatalf("expected MissingColumnError for likes, got %v", err)
	}
	if !strings.Contains(err.Error(), "likes") {
		t.Fatalf("error should name the column: %v", err)
	}
}

func TestSplit_MissingFeatureColumn(t *testing.T) {
	tbl := Normalize(ExampleRecords(), EngagementSchema, nil)
	_, _, err := Split(tbl, []string{"hour", "shares"}, DefaultTarget)
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestSplit_NullCellRejected(t *testing.T) {
	tbl := Normalize([]Record{{"hour": 1, "likes": 2}}, EngagementSchema, nil)
	_, _, err := Split(tbl, DefaultFeatures(), DefaultTarget)
	var nv *NullValueError
	if !errors.As(err, &nv) || nv.Column != ColDay {
		t.Fatalf("expected NullValueError on day_of_week, got %v", err)
	}
}

func TestSplit_EmptyTable(t *testing.T) {
	fm, y, err := Split(EngagementSchema.Empty(), DefaultFeatures(), DefaultTarget)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if fm.Rows() != 0 || len(y.Values) != 0 {
		t.Fatalf("expected empty projection")
	}
}

func TestSplit_TextColumnsParsed(t *testing.T) {
	tbl := &Table{
		Columns: []Column{{Name: "a", Kind: Text}, {Name: "b", Kind: Text}},
		Rows:    []Row{{String("1.5"), String("3")}},
	}
	fm, y, err := Split(tbl, []string{"a"}, "b")
	if err != nil {
		t.Fatal(err)
	}
	if fm.Row(0)[0] != 1.5 || y.Values[0] != 3 {
		t.Fatalf("parsed: %v %v", fm.Row(0), y.Values)
	}
}
