package collect

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
)

// PostTypes are the media kinds drawn by Synthesize.
var PostTypes = []string{"photo", "video", "carousel"}

// SyntheticPost is a generated post with the features used by the
// engagement model.
type SyntheticPost struct {
	ID            string
	PostedAt      time.Time
	Hour          int
	DayOfWeek     int
	Trending      int
	Hashtags      int
	CaptionLength int
	PostType      string
	Likes         int
	Comments      int
	Engagement    float64
}

// Synthesize generates n posts dated now, now-1d, ... The same seed always
// yields the same posts.
func Synthesize(n int, seed int64, now time.Time) []SyntheticPost {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]SyntheticPost, 0, max(n, 0))
	for i := 0; i < n; i++ {
		day := now.AddDate(0, 0, -i)
		id, err := uuid.NewRandomFromReader(rnd)
		if err != nil {
			id = uuid.Nil
		}
		p := SyntheticPost{
			ID:            id.String(),
			Hour:          rnd.Intn(24),
			Likes:         rnd.Intn(400),
			Comments:      rnd.Intn(60),
			Hashtags:      rnd.Intn(11),
			CaptionLength: 50 + rnd.Intn(450),
			PostType:      PostTypes[rnd.Intn(len(PostTypes))],
			Trending:      rnd.Intn(2),
		}
		p.PostedAt = time.Date(day.Year(), day.Month(), day.Day(), p.Hour, 0, 0, 0, day.Location())
		p.DayOfWeek = isoWeekday(p.PostedAt)
		p.Engagement = 0.7*float64(p.Likes) + 1.3*float64(p.Comments)
		out = append(out, p)
	}
	return out
}

// SyntheticColumns is the column order of SynthesizedTable.
var SyntheticColumns = []dataset.Column{
	{Name: "post_id", Kind: dataset.Text},
	{Name: "post_date", Kind: dataset.Text},
	{Name: dataset.ColHour, Kind: dataset.Numeric},
	{Name: dataset.ColDay, Kind: dataset.Numeric},
	{Name: dataset.ColTrending, Kind: dataset.Numeric},
	{Name: "hashtags", Kind: dataset.Numeric},
	{Name: "caption_length", Kind: dataset.Numeric},
	{Name: "post_type", Kind: dataset.Text},
	{Name: dataset.ColLikes, Kind: dataset.Numeric},
	{Name: dataset.ColComments, Kind: dataset.Numeric},
	{Name: "engagement", Kind: dataset.Numeric},
}

// SynthesizedTable lays synthetic posts out as a table ready for WriteCSV.
func SynthesizedTable(posts []SyntheticPost) *dataset.Table {
	t := &dataset.Table{Columns: append([]dataset.Column(nil), SyntheticColumns...), Rows: make([]dataset.Row, 0, len(posts))}
	for _, p := range posts {
		t.Rows = append(t.Rows, dataset.Row{
			dataset.String(p.ID),
			dataset.String(p.PostedAt.Format(time.RFC3339)),
			dataset.Number(float64(p.Hour)),
			dataset.Number(float64(p.DayOfWeek)),
			dataset.Number(float64(p.Trending)),
			dataset.Number(float64(p.Hashtags)),
			dataset.Number(float64(p.CaptionLength)),
			dataset.String(p.PostType),
			dataset.Number(float64(p.Likes)),
			dataset.Number(float64(p.Comments)),
			dataset.Number(p.Engagement),
		})
	}
	return t
}
