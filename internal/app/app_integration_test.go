package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glabrego/postdeck/internal/content"
	"github.com/glabrego/postdeck/internal/storage"
)

func TestIntegration_FetchAndCache(t *testing.T) {
	if os.Getenv("POSTDECK_INTEGRATION") != "1" {
		t.Skip("set POSTDECK_INTEGRATION=1 to run integration tests")
	}

	baseURL := os.Getenv("POSTDECK_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.slingacademy.com/v1/sample-data/blog-posts"
	}

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "postdeck-integration.db"))
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	svc := NewService(content.NewClient(baseURL, nil), repo)

	page, err := svc.Fetch(ctx, 0, 5)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(page.Posts) == 0 {
		t.Fatal("expected at least one post")
	}
	for _, p := range page.Posts {
		if p.Title == "" {
			t.Fatalf("post %d has empty title", p.ID)
		}
	}

	cached, ok, err := svc.ListCached(ctx)
	if err != nil {
		t.Fatalf("ListCached returned error: %v", err)
	}
	if !ok || len(cached.Posts) != len(page.Posts) {
		t.Fatalf("expected %d cached posts, got %d", len(page.Posts), len(cached.Posts))
	}
	if cached.Posts[0].ID != page.Posts[0].ID {
		t.Fatalf("expected cached order to match fetch order")
	}
}
