package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	tuitheme "github.com/glabrego/postdeck/internal/tui/theme"
)

func Toolbar(inDetail, searching bool) string {
	if searching {
		return "type to filter | enter keep | esc done | ctrl+u clear"
	}
	if inDetail {
		return "j/k scroll | o open | y copy link | esc/q close"
	}
	return "j/k move | enter open | / search | t/T tag | e excerpts | x clear | r retry | q quit"
}

// Header is the title row: app name, optional pill and the showing summary.
func Header(pill, summary string, th tuitheme.Theme) string {
	parts := []string{th.Title.Render("postdeck")}
	if pill != "" {
		parts = append(parts, th.ModePill.Render(pill))
	}
	if summary != "" {
		parts = append(parts, th.Count.Render(summary))
	}
	return strings.Join(parts, " ")
}

func Footer(offset, limit int, search, tag string, th tuitheme.Theme) string {
	parts := []string{
		th.MetaLabel.Render("page") + " " + th.MetaValue.Render(fmt.Sprintf("%d+%d", offset, limit)),
	}
	if search != "" {
		parts = append(parts, th.MetaLabel.Render("search")+" "+th.MetaValue.Render(fmt.Sprintf("%q", search)))
	}
	if tag != "" {
		parts = append(parts, th.MetaLabel.Render("tag")+" "+th.MetaValue.Render(tag))
	}
	return strings.Join(parts, " • ")
}

// StateMessage renders the load state and the latest status line. An empty
// status falls back to the state's own text.
func StateMessage(state, status string, th tuitheme.Theme) string {
	label := th.StateIdle.Render("state")
	switch state {
	case "failed":
		label = th.StateWarn.Render("state")
	case "loading":
		label = th.StateLoad.Render("state")
	}
	main := "Ready"
	switch {
	case status != "":
		main = status
	case state == "loading":
		main = "Loading posts..."
	case state == "idle":
		main = "Waiting"
	}
	return fmt.Sprintf("%s: %s | %s", label, state, th.MetaValue.Render(main))
}

func FailurePanel(reason string, width int, th tuitheme.Theme) string {
	if strings.TrimSpace(reason) == "" {
		reason = "unknown error"
	}
	body := "Could not load posts\n\n" + reason + "\n\npress r to retry"
	return panel(th.PanelWarn, body, width)
}

func NoMatchesPanel(width int, th tuitheme.Theme) string {
	return panel(th.Panel, "No posts match the current filters\n\npress x to clear filters", width)
}

func EmptyPanel(width int, th tuitheme.Theme) string {
	return panel(th.Panel, "No posts yet\n\npress r to fetch again", width)
}

func LoadingPanel(spinner string, width int, th tuitheme.Theme) string {
	return panel(th.Panel, strings.TrimSpace(spinner+" Loading posts..."), width)
}

// Overlay centres box in a width x height area.
func Overlay(box string, width, height int) string {
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// OverlayBounds reports the cell rectangle a centred box of the given size
// occupies inside a width x height area.
func OverlayBounds(boxWidth, boxHeight, width, height int) (x0, y0, x1, y1 int) {
	x0 = max(0, (width-boxWidth)/2)
	y0 = max(0, (height-boxHeight)/2)
	return x0, y0, x0 + boxWidth, y0 + boxHeight
}

func panel(style lipgloss.Style, body string, width int) string {
	limit := max(10, width-style.GetHorizontalBorderSize())
	return style.Width(min(limit, lipgloss.Width(body)+style.GetHorizontalPadding())).Render(body)
}
