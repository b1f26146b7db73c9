package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glabrego/postdeck/internal/content"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "postdeck.db"))
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	return repo
}

func TestRepository_SaveAndLatestPage(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	page := content.Page{
		Posts: content.Collection{
			{
				ID:         7,
				Title:      "Second by id, first by order",
				Body:       "<p>hello</p>",
				Tags:       []string{"go", "web"},
				Category:   "web",
				CreatedAt:  created,
				ImageURL:   "https://example.com/7.png",
				Engagement: &content.Engagement{Likes: 3, Dislikes: 1, Views: 40},
			},
			{ID: 2, Title: "Untagged", Body: "plain"},
		},
		Total:  120,
		Offset: 10,
		Limit:  2,
	}

	id, err := repo.SavePage(ctx, page)
	if err != nil {
		t.Fatalf("SavePage returned error: %v", err)
	}
	if id == "" {
		t.Fatal("expected fetch id")
	}

	got, ok, err := repo.LatestPage(ctx)
	if err != nil {
		t.Fatalf("LatestPage returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected cached page")
	}
	if len(got.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(got.Posts))
	}
	if got.Posts[0].ID != 7 || got.Posts[1].ID != 2 {
		t.Fatalf("expected original order, got ids %d,%d", got.Posts[0].ID, got.Posts[1].ID)
	}
	if got.Total != 120 || got.Offset != 10 || got.Limit != 2 {
		t.Fatalf("unexpected page bounds: %+v", got)
	}

	first := got.Posts[0]
	if !first.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, first.CreatedAt)
	}
	if first.Engagement == nil || first.Engagement.Views != 40 || first.Engagement.Likes != 3 {
		t.Fatalf("unexpected engagement: %+v", first.Engagement)
	}
	if len(first.Tags) != 2 || first.Tags[1] != "web" {
		t.Fatalf("unexpected tags: %v", first.Tags)
	}
	if first.Category != "web" || first.ImageURL == "" {
		t.Fatalf("unexpected optional fields: %+v", first)
	}

	second := got.Posts[1]
	if second.Engagement != nil {
		t.Fatalf("expected nil engagement, got %+v", second.Engagement)
	}
	if !second.CreatedAt.IsZero() {
		t.Fatalf("expected zero created_at, got %v", second.CreatedAt)
	}
	if len(second.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", second.Tags)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected vocabulary of 2, got %v", got.Tags)
	}
}

func TestRepository_LatestPage_Empty(t *testing.T) {
	repo := newTestRepository(t)

	_, ok, err := repo.LatestPage(context.Background())
	if err != nil {
		t.Fatalf("LatestPage returned error: %v", err)
	}
	if ok {
		t.Fatal("expected no cached page")
	}
}

func TestRepository_SavePage_PrunesOldFetches(t *testing.T) {
	repo := newTestRepository(t)
	repo.SetKeep(2)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 1; i <= 4; i++ {
		page := content.Page{Posts: content.Collection{{ID: int64(i), Title: "fetch"}}}
		if _, err := repo.SavePage(ctx, page); err != nil {
			t.Fatalf("SavePage %d returned error: %v", i, err)
		}
	}

	n, err := repo.FetchCount(ctx)
	if err != nil {
		t.Fatalf("FetchCount returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 fetches after pruning, got %d", n)
	}

	var orphans int
	if err := repo.db.Get(&orphans, `SELECT COUNT(*) FROM posts WHERE fetch_id NOT IN (SELECT id FROM fetches)`); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected pruned posts to be removed, got %d orphans", orphans)
	}

	got, _, err := repo.LatestPage(ctx)
	if err != nil {
		t.Fatalf("LatestPage returned error: %v", err)
	}
	if len(got.Posts) != 1 || got.Posts[0].ID != 4 {
		t.Fatalf("expected newest fetch, got %+v", got.Posts)
	}
}

func TestRepository_InitIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("second Init returned error: %v", err)
	}
	if err := repo.CheckWritable(context.Background()); err != nil {
		t.Fatalf("CheckWritable returned error: %v", err)
	}
}
