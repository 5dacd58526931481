package dataset

import (
	"math"
	"strings"
	"testing"
)

func TestDescribe_ExampleDataset(t *testing.T) {
	tbl := Normalize(ExampleRecords(), EngagementSchema, nil)
	s := Describe("example", tbl, DefaultDescribeOptions())
	if s.Rows != 5 || len(s.Cols) != 4 {
		t.Fatalf("shape: rows=%d cols=%d", s.Rows, len(s.Cols))
	}
	likes := s.Cols[3]
	if likes.Kind != "numeric" || likes.Min != 80 || likes.Max != 300 {
		t.Fatalf("likes summary: %+v", likes)
	}
	if math.Abs(likes.Mean-164) > 1e-9 {
		t.Fatalf("mean: got %v", likes.Mean)
	}
	if s.Corr == nil || len(s.Corr.Columns) != 4 {
		t.Fatalf("expected correlation matrix")
	}
	for i := range s.Corr.Values {
		if s.Corr.Values[i][i] != 1 {
			t.Fatalf("diagonal must be 1")
		}
	}
	md := s.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 5", "- likes: numeric", "[CORRELATIONS]", "| hour | day_of_week"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestDescribe_CategoricalGroupByAndOutliers(t *testing.T) {
	types := []string{"photo", "video", "photo", "carousel", "photo", "video", "photo", "photo", "video", "photo"}
	likes := []string{"10", "11", "9", "10", "12", "10", "11", "9", "10", "500"}
	tbl := &Table{Columns: []Column{{Name: "post_type", Kind: Text}, {Name: "likes", Kind: Text}}}
	for i := range types {
		tbl.Rows = append(tbl.Rows, Row{String(types[i]), String(likes[i])})
	}
	opt := DefaultDescribeOptions()
	opt.GroupBy = []string{"post_type"}
	s := Describe("posts", tbl, opt)
	if s.Cols[0].Kind != "categorical" || s.Cols[0].TopValues[0].Value != "photo" || s.Cols[0].TopValues[0].Count != 6 {
		t.Fatalf("categorical: %+v", s.Cols[0])
	}
	if s.Cols[1].OutliersCount != 1 {
		t.Fatalf("expected one outlier, got %+v", s.Cols[1])
	}
	if len(s.Groups) != 3 || s.Groups[0].Key != "post_type=photo" || s.Groups[0].Size != 6 {
		t.Fatalf("groups: %+v", s.Groups)
	}
	if !strings.Contains(s.Markdown(), "[GROUP-BY SUMMARY]") {
		t.Fatalf("expected group-by section")
	}
}

func TestDescribe_UnknownGroupByWarns(t *testing.T) {
	tbl := Normalize(ExampleRecords(), EngagementSchema, nil)
	opt := DefaultDescribeOptions()
	opt.GroupBy = []string{"nope"}
	s := Describe("", tbl, opt)
	if len(s.Warnings) != 1 {
		t.Fatalf("expected warning, got %v", s.Warnings)
	}
}
