package collect

import (
	"context"
	"testing"
	"time"

	"github.com/gotd/td/tg"

	"github.com/KaramelBytes/engage-cli/internal/dataset"
)

var fixedNow = time.Date(2025, 11, 10, 15, 30, 0, 0, time.UTC)

func TestSimulated_Collect(t *testing.T) {
	s := Simulated{Now: func() time.Time { return fixedNow }}
	posts, err := s.Collect(context.Background(), "demo", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 5 {
		t.Fatalf("posts: %d", len(posts))
	}
	p := posts[2]
	if p.Shortcode != "POST_2" || p.Likes != 30 || p.Comments != 6 || p.Caption != "Sample caption 2" || p.IsVideo {
		t.Fatalf("unexpected post: %+v", p)
	}
	if !p.PostedAt.Equal(fixedNow.AddDate(0, 0, -2)) {
		t.Fatalf("date: %v", p.PostedAt)
	}
}

func TestSimulated_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Simulated{}).Collect(ctx, "demo", 3); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRecords_NormalizeToPostsSchema(t *testing.T) {
	posts, _ := Simulated{Now: func() time.Time { return fixedNow }}.Collect(context.Background(), "demo", 3)
	tbl := dataset.Normalize(Records(posts), dataset.PostsSchema, nil)
	if tbl.Len() != 3 {
		t.Fatalf("rows: %d", tbl.Len())
	}
	if got := tbl.Rows[0][1].Str; got != "2025-11-10T15:30:00Z" {
		t.Fatalf("post_date: %q", got)
	}
	if tbl.Rows[1][2].Num != 20 || tbl.Rows[1][3].Num != 4 {
		t.Fatalf("likes/comments: %+v", tbl.Rows[1])
	}
	// 2025-11-10 is a Monday.
	if posts[0].Record()[dataset.ColDay] != 1 {
		t.Fatalf("weekday: %v", posts[0].Record()[dataset.ColDay])
	}
}

func TestSynthesize_DeterministicAndInRange(t *testing.T) {
	a := Synthesize(50, 7, fixedNow)
	b := Synthesize(50, 7, fixedNow)
	if len(a) != 50 {
		t.Fatalf("n: %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between runs", i)
		}
		p := a[i]
		if p.Likes < 0 || p.Likes >= 400 || p.Comments < 0 || p.Comments >= 60 {
			t.Fatalf("likes/comments out of range: %+v", p)
		}
		if p.Hashtags < 0 || p.Hashtags > 10 || p.Hour < 0 || p.Hour > 23 {
			t.Fatalf("hashtags/hour out of range: %+v", p)
		}
		if p.CaptionLength < 50 || p.CaptionLength >= 500 {
			t.Fatalf("caption length out of range: %+v", p)
		}
		if p.DayOfWeek < 1 || p.DayOfWeek > 7 || (p.Trending != 0 && p.Trending != 1) {
			t.Fatalf("day/trending out of range: %+v", p)
		}
		if want := 0.7*float64(p.Likes) + 1.3*float64(p.Comments); p.Engagement != want {
			t.Fatalf("engagement: got %v want %v", p.Engagement, want)
		}
		if p.PostedAt.Day() != fixedNow.AddDate(0, 0, -i).Day() {
			t.Fatalf("date for row %d: %v", i, p.PostedAt)
		}
	}
	if c := Synthesize(50, 8, fixedNow); c[0] == a[0] && c[1] == a[1] {
		t.Fatalf("different seeds should differ")
	}
}

func TestSynthesizedTable_FeedsEngagementSchema(t *testing.T) {
	tbl := SynthesizedTable(Synthesize(20, 1, fixedNow))
	if len(tbl.Columns) != len(SyntheticColumns) || tbl.Len() != 20 {
		t.Fatalf("shape: %d cols %d rows", len(tbl.Columns), tbl.Len())
	}
	norm := dataset.NormalizeTable(tbl, dataset.EngagementSchema, dataset.NormalizeOptions{})
	if _, _, err := dataset.Split(norm, dataset.DefaultFeatures(), dataset.DefaultTarget); err != nil {
		t.Fatalf("synthetic table should satisfy the engagement schema: %v", err)
	}
}

func TestChannelUsername(t *testing.T) {
	for in, want := range map[string]string{
		"durov":                 "durov",
		"@durov":                "durov",
		"https://t.me/durov":    "durov",
		"https://t.me/durov/42": "durov",
		" t.me/durov ":          "durov",
	} {
		got, err := channelUsername(in)
		if err != nil || got != want {
			t.Fatalf("channelUsername(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := channelUsername("@"); err == nil {
		t.Fatalf("expected error for empty username")
	}
}

func TestMessagePost(t *testing.T) {
	m := &tg.Message{
		ID:      42,
		Date:    int(fixedNow.Unix()),
		Message: "hello",
		Reactions: tg.MessageReactions{Results: []tg.ReactionCount{
			{Reaction: &tg.ReactionEmoji{Emoticon: "👍"}, Count: 12},
			{Reaction: &tg.ReactionEmoji{Emoticon: "🔥"}, Count: 3},
		}},
	}
	m.SetReplies(tg.MessageReplies{Replies: 4})
	m.SetViews(900)
	m.SetMedia(&tg.MessageMediaDocument{Document: &tg.Document{MimeType: "video/mp4"}})

	p := MessagePost("chan", m)
	if p.Shortcode != "chan/42" || p.URL != "https://t.me/chan/42" {
		t.Fatalf("identity: %+v", p)
	}
	if p.Likes != 15 || p.Comments != 4 || p.Views != 900 {
		t.Fatalf("counts: %+v", p)
	}
	if !p.IsVideo || p.MediaType != "video" || !p.PostedAt.Equal(fixedNow) {
		t.Fatalf("media/date: %+v", p)
	}
}

func TestHistoryMessages_NewestFirst(t *testing.T) {
	h := &tg.MessagesChannelMessages{Messages: []tg.MessageClass{
		&tg.Message{ID: 3}, &tg.MessageEmpty{ID: 9}, &tg.Message{ID: 7},
	}}
	got := historyMessages(h)
	if len(got) != 2 || got[0].ID != 7 || got[1].ID != 3 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestTelegram_RequiresCredentials(t *testing.T) {
	c := &Telegram{}
	if _, err := c.Collect(context.Background(), "durov", 5); err == nil {
		t.Fatalf("expected error without app credentials")
	}
}
