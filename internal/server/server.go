// Package server exposes the cached posts as a read-only JSON API and serves
// the share pages the TUI links to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glabrego/postdeck/internal/catalog"
	"github.com/glabrego/postdeck/internal/content"
	article "github.com/glabrego/postdeck/internal/render/article"
)

// Source is where the server reads posts from.
type Source interface {
	ListCached(ctx context.Context) (content.Page, bool, error)
	Fetch(ctx context.Context, offset, limit int) (content.Page, error)
}

var errNoPosts = errors.New("no posts available")

type Server struct {
	source   Source
	logger   *slog.Logger
	router   chi.Router
	fallback *content.Page
}

func New(source Source, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{source: source, logger: logger}
	s.router = s.routes()
	return s
}

// Prime fetches one page when nothing is cached yet. It must be called before
// the server starts handling requests.
func (s *Server) Prime(ctx context.Context, offset, limit int) error {
	_, ok, err := s.source.ListCached(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	s.logger.Info("cache empty, fetching posts", "offset", offset, "limit", limit)
	page, err := s.source.Fetch(ctx, offset, limit)
	if err != nil {
		return err
	}
	s.fallback = &page
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{id}", s.handleGetPost)
		r.Get("/tags", s.handleTags)
	})
	r.Get("/article/{id}", s.handleArticle)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// page returns the posts a request works on. Every request gets its own
// copy so filtering never touches shared state.
func (s *Server) page(ctx context.Context) (content.Page, error) {
	page, ok, err := s.source.ListCached(ctx)
	if err != nil {
		return content.Page{}, err
	}
	if ok {
		return page, nil
	}
	if s.fallback != nil {
		fb := *s.fallback
		fb.Posts = append(content.Collection(nil), fb.Posts...)
		return fb, nil
	}
	return content.Page{}, errNoPosts
}

type listResponse struct {
	Posts   content.Collection  `json:"posts"`
	Showing int                 `json:"showing"`
	Loaded  int                 `json:"loaded"`
	Total   int                 `json:"total"`
	Filter  catalog.FilterState `json:"filter"`
}

type tagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	filter := catalog.FilterState{
		SearchText: r.URL.Query().Get("q"),
		Tag:        strings.TrimSpace(r.URL.Query().Get("tag")),
	}
	visible := catalog.Apply(page.Posts, filter)
	s.writeJSON(w, http.StatusOK, listResponse{
		Posts:   visible,
		Showing: len(visible),
		Loaded:  len(page.Posts),
		Total:   page.Total,
		Filter:  filter,
	})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	page, err := s.page(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	counts := catalog.Counts(page.Posts)
	out := make([]tagCount, 0, len(counts))
	for _, tag := range catalog.Vocabulary(page.Posts) {
		out = append(out, tagCount{Tag: tag, Count: counts[tag]})
	}
	s.writeJSON(w, http.StatusOK, out)
}

var articleTemplate = template.Must(template.New("article").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{if .Category}}{{.Category}} · {{end}}{{.Date}}{{if .Minutes}} · {{.Minutes}} min read{{end}}</p>
{{if .Tags}}<p>{{range .Tags}}#{{.}} {{end}}</p>{{end}}
<pre>{{.Body}}</pre>
</body>
</html>
`))

type articleView struct {
	Title    string
	Category string
	Date     string
	Minutes  int
	Tags     []string
	Body     string
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	post, ok := s.lookup(w, r)
	if !ok {
		return
	}
	view := articleView{
		Title:    post.Title,
		Category: post.Category,
		Minutes:  article.ReadingMinutes(post),
		Tags:     post.Tags,
		Body:     article.StripANSI(strings.Join(article.BodyLinesWithOptions(post, 80, article.Options{ShowImages: true}), "\n")),
	}
	if !post.CreatedAt.IsZero() {
		view.Date = post.CreatedAt.UTC().Format(time.DateOnly)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := articleTemplate.Execute(w, view); err != nil {
		s.logger.Warn("render article failed", "post_id", post.ID, "error", err)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (content.Post, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "InvalidID", "post id must be a positive integer")
		return content.Post{}, false
	}
	page, err := s.page(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return content.Post{}, false
	}
	post, ok := page.Posts.Find(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "NotFound", "post not found")
		return content.Post{}, false
	}
	return post, true
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoPosts) {
		s.writeError(w, http.StatusServiceUnavailable, "NoPosts", err.Error())
		return
	}
	s.logger.Error("load posts failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "InternalError", "could not load posts")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, errorType, message string) {
	s.writeJSON(w, status, errorResponse{Error: errorType, Message: message})
}
