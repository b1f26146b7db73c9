package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/glabrego/postdeck/internal/content"
)

type ContentClient interface {
	FetchPage(ctx context.Context, offset, limit int) (content.Page, error)
}

type Repository interface {
	SavePage(ctx context.Context, page content.Page) (string, error)
	LatestPage(ctx context.Context) (content.Page, bool, error)
}

type Service struct {
	client  ContentClient
	repo    Repository
	logger  *slog.Logger
	timeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout bounds each remote fetch. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService wires the remote client to an optional cache. repo may be nil.
func NewService(client ContentClient, repo Repository, opts ...Option) *Service {
	s := &Service{
		client: client,
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch retrieves one page from the content service and caches it. Cache
// failures are logged and never fail the fetch. Fetch errors are returned
// unwrapped so their reason reaches the user as-is.
func (s *Service) Fetch(ctx context.Context, offset, limit int) (content.Page, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	page, err := s.client.FetchPage(ctx, offset, limit)
	if err != nil {
		s.logger.Warn("fetch posts failed", "offset", offset, "limit", limit, "error", err)
		return content.Page{}, err
	}
	s.logger.Info("fetched posts", "offset", page.Offset, "limit", page.Limit, "count", len(page.Posts), "total", page.Total, "elapsed", time.Since(started))

	if s.repo != nil {
		fetchID, err := s.repo.SavePage(ctx, page)
		if err != nil {
			s.logger.Warn("cache posts failed", "error", err)
		} else {
			s.logger.Debug("cached posts", "fetch_id", fetchID, "count", len(page.Posts))
		}
	}
	return page, nil
}

// ListCached returns the most recently cached page. The boolean is false
// when nothing is cached or no cache is configured.
func (s *Service) ListCached(ctx context.Context) (content.Page, bool, error) {
	if s.repo == nil {
		return content.Page{}, false, nil
	}
	page, ok, err := s.repo.LatestPage(ctx)
	if err != nil {
		return content.Page{}, false, fmt.Errorf("load posts from cache: %w", err)
	}
	return page, ok, nil
}

// Load returns the cached page when cached is set, otherwise fetches.
func (s *Service) Load(ctx context.Context, cached bool, offset, limit int) (content.Page, error) {
	if !cached {
		return s.Fetch(ctx, offset, limit)
	}
	page, ok, err := s.ListCached(ctx)
	if err != nil {
		return content.Page{}, err
	}
	if !ok {
		return content.Page{}, fmt.Errorf("no cached posts; run without --cached first")
	}
	return page, nil
}
