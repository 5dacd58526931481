package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/engage-cli/internal/collect"
	"github.com/KaramelBytes/engage-cli/internal/dataset"
	"github.com/KaramelBytes/engage-cli/internal/store"
	"github.com/KaramelBytes/engage-cli/internal/utils"
)

var (
	colSource string
	colLimit  int
	colOutput string
	colForce  bool
	colStore  bool
)

var collectCmd = &cobra.Command{
	Use:   "collect <account>",
	Short: "Collect recent posts of an account into a CSV",
	Long: `Collects up to --limit recent posts of an account and writes them as a
normalized posts table (shortcode, post_date, likes, comments, ...).

Sources:
  simulated  deterministic sample posts, no network access
  telegram   a public broadcast channel, using an already authorized session file

With --store the posts are also saved to the PostgreSQL database_url.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		target := args[0]
		limit := colLimit
		if !cmd.Flags().Changed("limit") {
			limit = c.CollectLimit
		}

		var collector collect.Collector
		switch strings.ToLower(colSource) {
		case "simulated", "sim":
			collector = collect.Simulated{}
		case "telegram", "tg":
			collector = &collect.Telegram{
				AppID:       c.TelegramAppID,
				AppHash:     c.TelegramAppHash,
				SessionFile: c.TelegramSessionFile,
				Logger:      cmdLogger(),
			}
		default:
			return fmt.Errorf("unsupported --source: %s (use simulated|telegram)", colSource)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		posts, err := collector.Collect(ctx, target, limit)
		if err != nil {
			if errors.Is(err, collect.ErrUnauthorized) {
				return fmt.Errorf("%w: log in once with a Telegram client that writes %s", err, c.TelegramSessionFile)
			}
			return fmt.Errorf("collect %s: %w", target, err)
		}
		cmdLogger().Info("posts collected", "source", colSource, "target", target, "count", len(posts))
		if len(posts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "⚠ No posts collected")
			return nil
		}

		t := dataset.NormalizeWith(collect.Records(posts), dataset.PostsSchema, dataset.NormalizeOptions{Logger: cmdLogger()})
		out := colOutput
		if out == "" {
			out = filepath.Join("data", safeName(target)+"_posts.csv")
		}
		if !colForce {
			out = utils.UniquePath(out)
		}
		if err := dataset.WriteCSV(t, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d posts to %s\n", t.Len(), out)

		if colStore {
			if err := storePosts(ctx, cmd.OutOrStdout(), c.DatabaseURL, posts); err != nil {
				return err
			}
		}
		return nil
	},
}

func storePosts(ctx context.Context, w io.Writer, dsn string, posts []collect.Post) error {
	st, err := store.Open(dsn, cmdLogger())
	if err != nil {
		return fmt.Errorf("open post store: %w", err)
	}
	defer st.Close()
	n, err := st.SavePosts(ctx, posts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Stored %d new posts (%d already present)\n", n, int64(len(posts))-n)
	return nil
}

// safeName keeps letters, digits, '-' and '_' of an account name.
func safeName(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "account"
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().StringVar(&colSource, "source", "simulated", "post source: simulated|telegram")
	collectCmd.Flags().IntVar(&colLimit, "limit", 50, "maximum posts to collect (default: collect_limit from config)")
	collectCmd.Flags().StringVarP(&colOutput, "output", "o", "", "output CSV path (default data/<account>_posts.csv)")
	collectCmd.Flags().BoolVar(&colForce, "force", false, "overwrite the output file instead of adding a __N suffix")
	collectCmd.Flags().BoolVar(&colStore, "store", false, "also save posts to the database_url store")
}
