package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/glabrego/postdeck/internal/app"
	"github.com/glabrego/postdeck/internal/catalog"
	"github.com/glabrego/postdeck/internal/config"
	"github.com/glabrego/postdeck/internal/content"
	article "github.com/glabrego/postdeck/internal/render/article"
	"github.com/glabrego/postdeck/internal/server"
	"github.com/glabrego/postdeck/internal/storage"
	"github.com/glabrego/postdeck/internal/tui"
	"github.com/glabrego/postdeck/internal/viewmodel"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("postdeck: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "postdeck",
		Usage: "browse blog posts from a remote content service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"POSTDECK_CONFIG"}},
			&cli.IntFlag{Name: "offset", Usage: "page offset", Value: 0},
			&cli.IntFlag{Name: "limit", Usage: "page size (1-100)"},
		},
		Action: runBrowse,
		Commands: []*cli.Command{
			{
				Name:   "browse",
				Usage: "interactive terminal UI (default)",
				Flags: []cli.Flag{
					cachedFlag(),
					&cli.BoolFlag{Name: "excerpts", Usage: "show a body excerpt under each post (toggle with e)"},
				},
				Action: runBrowse,
			},
			{
				Name:  "list",
				Usage: "print posts once, optionally filtered",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "case-insensitive text match"},
					&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "exact tag match"},
					&cli.BoolFlag{Name: "json", Usage: "print JSON"},
					cachedFlag(),
				},
				Action: runList,
			},
			{
				Name:   "tags",
				Usage:  "print the tag vocabulary with post counts",
				Flags:  []cli.Flag{cachedFlag()},
				Action: runTags,
			},
			{
				Name:  "serve",
				Usage: "serve cached posts over a read-only JSON API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address"},
				},
				Action: runServe,
			},
		},
	}
}

func cachedFlag() cli.Flag {
	return &cli.BoolFlag{Name: "cached", Usage: "read the last cached page instead of fetching"}
}

type env struct {
	cfg     config.Config
	logger  *slog.Logger
	repo    *storage.Repository
	service *app.Service
	offset  int
	limit   int
	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

// setup loads config and opens the cache. TUI sessions never log to the
// terminal.
func setup(c *cli.Context, interactive bool) (*env, error) {
	if c.Int("offset") < 0 {
		return nil, fmt.Errorf("offset must not be negative: %d", c.Int("offset"))
	}
	var overrides []config.Override
	if c.IsSet("limit") {
		overrides = append(overrides, config.WithPageLimit(c.Int("limit")))
	}
	cfg, err := config.Load(c.String("config"), overrides...)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	e := &env{cfg: cfg, offset: c.Int("offset"), limit: cfg.PageLimit}
	e.logger, err = newLogger(cfg, interactive, e)
	if err != nil {
		e.Close()
		return nil, err
	}

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	e.repo = repo
	e.closers = append(e.closers, repo.Close)

	ctx, cancel := context.WithTimeout(c.Context, 15*time.Second)
	defer cancel()
	if err := repo.Init(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("storage schema error: %w", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("storage write check failed (%v). Verify POSTDECK_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := content.NewClient(cfg.APIBaseURL, nil)
	e.service = app.NewService(client, repo, app.WithLogger(e.logger), app.WithTimeout(cfg.FetchTimeout))
	return e, nil
}

func newLogger(cfg config.Config, interactive bool, e *env) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	var out io.Writer = os.Stderr
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		e.closers = append(e.closers, f.Close)
		out = f
	case interactive:
		out = io.Discard
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}

// cacheFetcher serves the view model from the local cache.
type cacheFetcher struct {
	service *app.Service
}

func (f cacheFetcher) Fetch(ctx context.Context, offset, limit int) (content.Page, error) {
	return f.service.Load(ctx, true, offset, limit)
}

func runBrowse(c *cli.Context) error {
	e, err := setup(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	opts := tui.Options{
		Offset:       e.offset,
		Limit:        e.limit,
		ShareBaseURL: e.cfg.ShareBaseURL,
		Pill:         "live",
		RelativeTime: true,
		ShowExcerpts: c.Bool("excerpts"),
		Logger:       e.logger,
	}
	var fetcher viewmodel.Fetcher = e.service
	if c.Bool("cached") {
		fetcher = cacheFetcher{service: e.service}
		opts.Pill = "cached"
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	model := tui.NewModel(fetcher, opts).WithContext(ctx)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

type listOutput struct {
	Posts   content.Collection  `json:"posts"`
	Showing int                 `json:"showing"`
	Loaded  int                 `json:"loaded"`
	Total   int                 `json:"total"`
	Filter  catalog.FilterState `json:"filter"`
}

func runList(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	page, err := e.service.Load(c.Context, c.Bool("cached"), e.offset, e.limit)
	if err != nil {
		return err
	}
	filter := catalog.FilterState{SearchText: c.String("search"), Tag: c.String("tag")}
	visible := catalog.Apply(page.Posts, filter)

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(listOutput{
			Posts:   visible,
			Showing: len(visible),
			Loaded:  len(page.Posts),
			Total:   page.Total,
			Filter:  filter,
		})
	}

	w := c.App.Writer
	for _, p := range visible {
		date := "undated"
		if !p.CreatedAt.IsZero() {
			date = p.CreatedAt.UTC().Format(time.DateOnly)
		}
		line := fmt.Sprintf("%5d  %s  %s", p.ID, date, p.Title)
		if len(p.Tags) > 0 {
			line += "  #" + strings.Join(p.Tags, " #")
		}
		fmt.Fprintln(w, line)
		if excerpt := article.Excerpt(p, 100); excerpt != "" {
			fmt.Fprintln(w, "       "+excerpt)
		}
	}
	switch {
	case len(page.Posts) == 0:
		fmt.Fprintln(w, "No posts.")
	case len(visible) == 0:
		fmt.Fprintln(w, "No posts match the current filters.")
	}
	fmt.Fprintf(w, "Showing %d of %d posts\n", len(visible), len(page.Posts))
	return nil
}

func runTags(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	page, err := e.service.Load(c.Context, c.Bool("cached"), e.offset, e.limit)
	if err != nil {
		return err
	}
	counts := catalog.Counts(page.Posts)
	for _, tag := range catalog.Vocabulary(page.Posts) {
		fmt.Fprintf(c.App.Writer, "%-24s %d\n", tag, counts[tag])
	}
	return nil
}

func runServe(c *cli.Context) error {
	e, err := setup(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	addr := e.cfg.ListenAddr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(e.service, e.logger)
	if err := srv.Prime(ctx, e.offset, e.limit); err != nil {
		return fmt.Errorf("load posts: %w", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
