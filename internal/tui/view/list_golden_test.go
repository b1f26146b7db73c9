package view

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glabrego/postdeck/internal/content"
	tuitheme "github.com/glabrego/postdeck/internal/tui/theme"
)

var updateViewGolden = flag.Bool("update-view-golden", false, "update view golden files")

func TestListRendering_Golden(t *testing.T) {
	th := tuitheme.Default()
	now := time.Date(2026, 2, 11, 16, 0, 0, 0, time.UTC)
	post := content.Post{
		ID:        42,
		Title:     "Designing a Terminal Reader",
		Tags:      []string{"go", "tui"},
		CreatedAt: now.Add(-3 * time.Hour),
	}
	vocab := []string{"go", "tui", "web"}
	counts := map[string]int{"go": 2, "tui": 1, "web": 1}

	lines := []string{
		TagBar(vocab, counts, "tui", 78, th),
		RenderPostLine(PostLineParams{
			Post:         post,
			Now:          now,
			RelativeTime: true,
			Active:       true,
			Width:        78,
		}, th),
		RenderPostLine(PostLineParams{
			Post:         post,
			Now:          now,
			RelativeTime: false,
			Active:       false,
			Width:        78,
			Excerpt:      "A walk through building list and detail views.",
		}, th),
		RenderPostLine(PostLineParams{
			Post:  content.Post{ID: 7},
			Now:   now,
			Width: 78,
		}, th),
		TagBar(vocab, counts, "", 78, th),
	}
	got := stripANSI(strings.Join(lines, "\n"))
	assertViewGolden(t, "list_rendering.golden", got)
}

func assertViewGolden(t *testing.T, name, got string) {
	t.Helper()
	path := filepath.Join("testdata", name)
	if *updateViewGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(got+"\n"), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
	}

	wantBytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	want := strings.TrimRight(string(wantBytes), "\n")
	got = strings.TrimRight(got, "\n")
	if got != want {
		t.Fatalf("golden mismatch for %s\n--- got ---\n%s\n--- want ---\n%s", name, got, want)
	}
}
