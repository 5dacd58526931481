package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/engage-cli/internal/collect"
	"github.com/KaramelBytes/engage-cli/internal/logging"
	"github.com/KaramelBytes/engage-cli/internal/pipeline"
)

// PostLister is the read side of the post store.
type PostLister interface {
	ListPosts(ctx context.Context, limit int) ([]collect.Post, error)
}

// Server exposes the pipeline over HTTP.
type Server struct {
	// Defaults seeds every predict request; requests may override the
	// test fraction and seed.
	Defaults pipeline.Options
	// Posts is optional; without it /api/v1/posts answers 503.
	Posts  PostLister
	Logger *slog.Logger
}

// New returns a server using opt for predictions.
func New(opt pipeline.Options, posts PostLister, log *slog.Logger) *Server {
	return &Server{Defaults: opt, Posts: posts, Logger: logging.OrDiscard(log)}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/health", s.HealthHandler)
	api := r.Group("/api/v1")
	api.GET("/example", s.ExampleHandler)
	api.POST("/predict", s.PredictHandler)
	api.POST("/normalize", s.NormalizeHandler)
	api.GET("/posts", s.PostsHandler)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log().Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) log() *slog.Logger { return logging.OrDiscard(s.Logger) }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log().Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log().Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
