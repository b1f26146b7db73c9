package tui

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/postdeck/internal/content"
)

var updateScreenGolden = flag.Bool("update-tui-screen-golden", false, "update TUI screen golden files")

var ansiScreenStrip = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// plainScreen drops styling and the trailing blanks lipgloss pads lines with.
func plainScreen(view string) string {
	lines := strings.Split(ansiScreenStrip.ReplaceAllString(view, ""), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

func TestScreenGolden_ListAndDetail(t *testing.T) {
	now := time.Date(2026, 2, 11, 16, 0, 0, 0, time.UTC)
	f := &fakeFetcher{pages: []content.Page{{Posts: samplePosts(), Total: 3}}}

	m := NewModel(f, Options{Limit: 10, ShareBaseURL: "http://share.test", Pill: "live"})
	m.nowFn = func() time.Time { return now }
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	done := fetchDone(t, m.Init())
	done.Duration = 12 * time.Millisecond
	m, _ = update(t, m, done)
	assertScreenGolden(t, "list_screen.golden", plainScreen(m.View()))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assertScreenGolden(t, "detail_screen.golden", plainScreen(m.View()))
}

func assertScreenGolden(t *testing.T, name, got string) {
	t.Helper()
	path := filepath.Join("testdata", name)
	if *updateScreenGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(got+"\n"), 0o644); err != nil {
			t.Fatalf("write golden %s: %v", name, err)
		}
	}
	wantBytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %s: %v", name, err)
	}
	want := strings.TrimRight(string(wantBytes), "\n")
	got = strings.TrimRight(got, "\n")
	if got != want {
		t.Fatalf("golden mismatch for %s\n--- got ---\n%s\n--- want ---\n%s", name, got, want)
	}
}
