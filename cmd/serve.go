package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/engage-cli/internal/server"
	"github.com/KaramelBytes/engage-cli/internal/store"
)

var (
	serveAddr    string
	serveNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions over HTTP",
	Long: `Starts the HTTP API:

  GET  /health
  GET  /api/v1/example
  POST /api/v1/predict    (JSON rows or multipart CSV upload in field "file")
  POST /api/v1/normalize
  GET  /api/v1/posts      (requires database_url)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := serveAddr
		if addr == "" {
			addr = c.ServerAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}

		var posts server.PostLister
		if c.DatabaseURL != "" && !serveNoStore {
			st, err := store.Open(c.DatabaseURL, cmdLogger())
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: post store unavailable: %v\n", err)
			} else {
				defer st.Close()
				posts = st
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(baseOptions(""), posts, cmdLogger())
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server_addr from config)")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "do not connect to database_url")
}
