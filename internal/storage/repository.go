package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/glabrego/postdeck/internal/content"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultKeepFetches is how many cached fetches survive pruning.
const DefaultKeepFetches = 5

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Repository struct {
	db   *sqlx.DB
	keep int
	now  func() time.Time
}

func NewRepository(path string) (*Repository, error) {
	dsn := path + "?_pragma=journal_mode(DELETE)&_pragma=foreign_keys(ON)"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return &Repository{db: db, keep: DefaultKeepFetches, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SetKeep changes how many fetches are retained. Values below one are ignored.
func (r *Repository) SetKeep(n int) {
	if n > 0 {
		r.keep = n
	}
}

// Init applies pending schema migrations.
func (r *Repository) Init(ctx context.Context) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, r.db.DB, sub)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CheckWritable verifies the database accepts writes.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS write_probe (id INTEGER)`); err != nil {
		return fmt.Errorf("database is not writable: %w", err)
	}
	return nil
}

type fetchRow struct {
	ID        string `db:"id"`
	FetchedAt string `db:"fetched_at"`
	Offset    int    `db:"page_offset"`
	Limit     int    `db:"page_limit"`
	Total     int    `db:"total"`
}

type postRow struct {
	FetchID       string         `db:"fetch_id"`
	Position      int            `db:"position"`
	ID            int64          `db:"id"`
	Title         string         `db:"title"`
	Body          string         `db:"body"`
	Tags          string         `db:"tags"`
	Category      sql.NullString `db:"category"`
	CreatedAt     sql.NullString `db:"created_at"`
	UpdatedAt     sql.NullString `db:"updated_at"`
	ImageURL      sql.NullString `db:"image_url"`
	HasEngagement bool           `db:"has_engagement"`
	Likes         int64          `db:"likes"`
	Dislikes      int64          `db:"dislikes"`
	Views         int64          `db:"views"`
}

func newPostRow(fetchID string, position int, p content.Post) (postRow, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return postRow{}, fmt.Errorf("encode tags for post %d: %w", p.ID, err)
	}
	row := postRow{
		FetchID:   fetchID,
		Position:  position,
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Tags:      string(encoded),
		Category:  nullString(p.Category),
		CreatedAt: nullTime(p.CreatedAt),
		UpdatedAt: nullTime(p.UpdatedAt),
		ImageURL:  nullString(p.ImageURL),
	}
	if p.Engagement != nil {
		row.HasEngagement = true
		row.Likes = p.Engagement.Likes
		row.Dislikes = p.Engagement.Dislikes
		row.Views = p.Engagement.Views
	}
	return row, nil
}

func (r postRow) toPost() (content.Post, error) {
	p := content.Post{
		ID:       r.ID,
		Title:    r.Title,
		Body:     r.Body,
		Category: r.Category.String,
		ImageURL: r.ImageURL.String,
	}
	if err := json.Unmarshal([]byte(r.Tags), &p.Tags); err != nil {
		return content.Post{}, fmt.Errorf("decode tags for post %d: %w", r.ID, err)
	}
	var err error
	if p.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return content.Post{}, fmt.Errorf("parse post %d created_at: %w", r.ID, err)
	}
	if p.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return content.Post{}, fmt.Errorf("parse post %d updated_at: %w", r.ID, err)
	}
	if r.HasEngagement {
		p.Engagement = &content.Engagement{Likes: r.Likes, Dislikes: r.Dislikes, Views: r.Views}
	}
	return p, nil
}

// SavePage stores page as a new fetch and prunes older fetches.
func (r *Repository) SavePage(ctx context.Context, page content.Page) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fetch := fetchRow{
		ID:        uuid.NewString(),
		FetchedAt: r.now().UTC().Format(timeLayout),
		Offset:    page.Offset,
		Limit:     page.Limit,
		Total:     page.Total,
	}
	if _, err := tx.NamedExecContext(ctx, `
INSERT INTO fetches (id, fetched_at, page_offset, page_limit, total)
VALUES (:id, :fetched_at, :page_offset, :page_limit, :total)
`, fetch); err != nil {
		return "", fmt.Errorf("save fetch: %w", err)
	}

	for i, p := range page.Posts {
		row, err := newPostRow(fetch.ID, i, p)
		if err != nil {
			return "", err
		}
		if _, err := tx.NamedExecContext(ctx, `
INSERT INTO posts (fetch_id, position, id, title, body, tags, category, created_at, updated_at,
  image_url, has_engagement, likes, dislikes, views)
VALUES (:fetch_id, :position, :id, :title, :body, :tags, :category, :created_at, :updated_at,
  :image_url, :has_engagement, :likes, :dislikes, :views)
`, row); err != nil {
			return "", fmt.Errorf("save post %d: %w", p.ID, err)
		}
	}

	if err := prune(ctx, tx, r.keep); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return fetch.ID, nil
}

func prune(ctx context.Context, tx *sqlx.Tx, keep int) error {
	const stale = `
SELECT id FROM fetches
ORDER BY fetched_at DESC, rowid DESC
LIMIT -1 OFFSET ?
`
	var ids []string
	if err := tx.SelectContext(ctx, &ids, stale, keep); err != nil {
		return fmt.Errorf("list stale fetches: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM posts WHERE fetch_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build prune query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("prune posts: %w", err)
	}
	query, args, err = sqlx.In(`DELETE FROM fetches WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build prune query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("prune fetches: %w", err)
	}
	return nil
}

// LatestPage returns the most recent cached fetch in its original order. The
// boolean is false when nothing has been cached yet.
func (r *Repository) LatestPage(ctx context.Context) (content.Page, bool, error) {
	var fetch fetchRow
	err := r.db.GetContext(ctx, &fetch, `
SELECT id, fetched_at, page_offset, page_limit, total
FROM fetches
ORDER BY fetched_at DESC, rowid DESC
LIMIT 1
`)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Page{}, false, nil
	}
	if err != nil {
		return content.Page{}, false, fmt.Errorf("query latest fetch: %w", err)
	}

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, `
SELECT fetch_id, position, id, title, body, tags, category, created_at, updated_at,
  image_url, has_engagement, likes, dislikes, views
FROM posts
WHERE fetch_id = ?
ORDER BY position
`, fetch.ID); err != nil {
		return content.Page{}, false, fmt.Errorf("query cached posts: %w", err)
	}

	posts := make(content.Collection, 0, len(rows))
	for _, row := range rows {
		p, err := row.toPost()
		if err != nil {
			return content.Page{}, false, err
		}
		posts = append(posts, p)
	}
	return content.Page{
		Posts:  posts,
		Total:  fetch.Total,
		Offset: fetch.Offset,
		Limit:  fetch.Limit,
		Tags:   posts.Vocabulary(),
	}, true, nil
}

// FetchCount reports how many fetches are cached.
func (r *Repository) FetchCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM fetches`); err != nil {
		return 0, fmt.Errorf("count fetches: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s.String)
}
