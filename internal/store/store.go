package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/KaramelBytes/engage-cli/internal/collect"
	"github.com/KaramelBytes/engage-cli/internal/logging"
)

// PostRecord is the persisted form of a collected post.
type PostRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id"`
	Shortcode string    `json:"shortcode" gorm:"uniqueIndex;not null"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption"`
	PostedAt  time.Time `json:"posted_at" gorm:"index"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	Views     int       `json:"views"`
	IsVideo   bool      `json:"is_video"`
	MediaType string    `json:"media_type"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name stable across struct renames.
func (PostRecord) TableName() string { return "posts" }

// Store persists posts in PostgreSQL.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open connects to PostgreSQL and migrates the posts table.
func Open(dsn string, log *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database url is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s := New(db, log)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection.
func New(db *gorm.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: logging.OrDiscard(log)}
}

// AutoMigrate creates or updates the posts table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&PostRecord{}); err != nil {
		return fmt.Errorf("migrate posts: %w", err)
	}
	return nil
}

// SavePosts inserts posts, skipping shortcodes already stored. It returns the
// number of new rows.
func (s *Store) SavePosts(ctx context.Context, posts []collect.Post) (int64, error) {
	if len(posts) == 0 {
		s.log.Info("no posts to save")
		return 0, nil
	}
	recs := make([]PostRecord, 0, len(posts))
	for _, p := range posts {
		if p.Shortcode == "" {
			continue
		}
		recs = append(recs, FromPost(p))
	}
	if len(recs) == 0 {
		s.log.Warn("posts without shortcode skipped", "count", len(posts))
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "shortcode"}}, DoNothing: true}).
		CreateInBatches(&recs, 100)
	if res.Error != nil {
		return 0, fmt.Errorf("save posts: %w", res.Error)
	}
	s.log.Info("posts saved", "received", len(posts), "inserted", res.RowsAffected)
	return res.RowsAffected, nil
}

// ListPosts returns the most recent posts first; limit <= 0 returns all.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]collect.Post, error) {
	var recs []PostRecord
	q := s.db.WithContext(ctx).Order("posted_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]collect.Post, len(recs))
	for i, r := range recs {
		out[i] = r.Post()
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FromPost maps a collected post to its row.
func FromPost(p collect.Post) PostRecord {
	return PostRecord{
		PostID:    p.ID,
		Shortcode: p.Shortcode,
		URL:       p.URL,
		Caption:   p.Caption,
		PostedAt:  p.PostedAt.UTC(),
		Likes:     p.Likes,
		Comments:  p.Comments,
		Views:     p.Views,
		IsVideo:   p.IsVideo,
		MediaType: p.MediaType,
		Source:    p.Source,
	}
}

// Post maps a row back to a collected post.
func (r PostRecord) Post() collect.Post {
	return collect.Post{
		ID:        r.PostID,
		Shortcode: r.Shortcode,
		URL:       r.URL,
		Caption:   r.Caption,
		PostedAt:  r.PostedAt.UTC(),
		Likes:     r.Likes,
		Comments:  r.Comments,
		Views:     r.Views,
		IsVideo:   r.IsVideo,
		MediaType: r.MediaType,
		Source:    r.Source,
	}
}
