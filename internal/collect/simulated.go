package collect

import (
	"context"
	"fmt"
	"time"
)

// Simulated produces deterministic fake posts for offline runs and tests.
type Simulated struct {
	// Now anchors post dates; nil means time.Now.
	Now func() time.Time
}

// Collect returns limit posts POST_0..POST_{limit-1}, one per day going back
// from now, with likes (i+1)*10 and comments (i+1)*2.
func (s Simulated) Collect(ctx context.Context, target string, limit int) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	base := now().UTC()
	out := make([]Post, 0, max(limit, 0))
	for i := 0; i < limit; i++ {
		code := fmt.Sprintf("POST_%d", i)
		out = append(out, Post{
			ID:        fmt.Sprintf("%d", 1000+i),
			Shortcode: code,
			URL:       fmt.Sprintf("https://example.com/%s/p/%s/", target, code),
			Caption:   fmt.Sprintf("Sample caption %d", i),
			PostedAt:  base.AddDate(0, 0, -i),
			Likes:     (i + 1) * 10,
			Comments:  (i + 1) * 2,
			MediaType: "photo",
			Source:    "simulated",
		})
	}
	return out, nil
}
