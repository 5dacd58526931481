package collect

import (
	"context"
	"time"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
)

// Post is one collected social-media post.
type Post struct {
	ID        string
	Shortcode string
	URL       string
	Caption   string
	PostedAt  time.Time
	Likes     int
	Comments  int
	Views     int
	IsVideo   bool
	MediaType string
	Source    string
}

// Collector fetches up to limit recent posts for target (a profile or channel).
type Collector interface {
	Collect(ctx context.Context, target string, limit int) ([]Post, error)
}

// Record converts the post into a loosely-typed record for normalization.
// Zero timestamps are left out.
func (p Post) Record() dataset.Record {
	r := dataset.Record{
		"post_id":   p.ID,
		"shortcode": p.Shortcode,
		"url":       p.URL,
		"caption":   p.Caption,
		"likes":     p.Likes,
		"comments":  p.Comments,
		"views":     p.Views,
		"is_video":  p.IsVideo,
	}
	if !p.PostedAt.IsZero() {
		r["post_date"] = p.PostedAt.UTC()
		r[dataset.ColHour] = p.PostedAt.UTC().Hour()
		r[dataset.ColDay] = isoWeekday(p.PostedAt.UTC())
	}
	return r
}

// Records converts posts for dataset.Normalize.
func Records(posts []Post) []dataset.Record {
	out := make([]dataset.Record, len(posts))
	for i, p := range posts {
		out[i] = p.Record()
	}
	return out
}

// isoWeekday maps Monday..Sunday to 1..7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
