package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glabrego/postdeck/internal/content"
	tuitheme "github.com/glabrego/postdeck/internal/tui/theme"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type PostLineParams struct {
	Post         content.Post
	Now          time.Time
	RelativeTime bool
	Active       bool
	Width        int
	// Excerpt, when set, is drawn on a second line under the row.
	Excerpt string
}

// RenderPostLine draws one list row: cursor, title, tags and a right-aligned
// date.
func RenderPostLine(p PostLineParams, th tuitheme.Theme) string {
	date := "[" + DateLabel(p.Now, p.Post.CreatedAt, p.RelativeTime) + "]"

	cursor := " "
	if p.Active {
		cursor = ">"
	}
	prefix := fmt.Sprintf(" %s ", cursor)

	tags := ""
	if len(p.Post.Tags) > 0 {
		tags = "#" + strings.Join(p.Post.Tags, " #")
	}

	available := p.Width - visibleLen(prefix) - 1 - visibleLen(date)
	if available < 1 {
		available = 1
	}
	title := strings.TrimSpace(p.Post.Title)
	if title == "" {
		title = "(untitled)"
	}
	title = truncateRunes(title, available)
	left := th.StylePostTitle(p.Post, title)
	used := visibleLen(title)
	if room := available - used - 2; tags != "" && room >= 4 {
		tag := truncateRunes(tags, room)
		left += "  " + th.Tag.Render(tag)
		used += 2 + visibleLen(tag)
	}

	gap := p.Width - visibleLen(prefix) - used - visibleLen(date)
	if gap < 1 {
		gap = 1
	}
	row := th.RenderActiveLine(p.Active, prefix+left+strings.Repeat(" ", gap)+th.MetaLabel.Render(date))
	if excerpt := strings.TrimSpace(p.Excerpt); excerpt != "" {
		indent := strings.Repeat(" ", visibleLen(prefix))
		row += "\n" + indent + th.MetaValue.Render(truncateRunes(excerpt, max(1, p.Width-len(indent))))
	}
	return row
}

// RenderListBody draws rows [start, end) of posts.
func RenderListBody(posts content.Collection, start, end int, line func(i int) string) string {
	if len(posts) == 0 || start >= end || start < 0 {
		return ""
	}
	end = min(end, len(posts))
	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(line(i))
		b.WriteString("\n")
	}
	return b.String()
}

// TagBar lists "all" followed by every tag with its post count, marking the
// active one.
func TagBar(vocab []string, counts map[string]int, active string, width int, th tuitheme.Theme) string {
	pill := func(label string, on bool) string {
		if on {
			return th.TagActive.Render(label)
		}
		return th.Tag.Render(label)
	}
	parts := []string{pill("all", active == "")}
	known := active == ""
	for _, tag := range vocab {
		parts = append(parts, pill(fmt.Sprintf("%s(%d)", tag, counts[tag]), tag == active))
		if tag == active {
			known = true
		}
	}
	if !known {
		parts = append(parts, pill(active+"(0)", true))
	}
	line := th.MetaLabel.Render("tags") + " " + strings.Join(parts, " ")
	if width > 0 && visibleLen(line) > width {
		return truncateRunes(stripANSIText(line), width)
	}
	return line
}

func ShowingSummary(visible, loaded int) string {
	noun := "posts"
	if loaded == 1 {
		noun = "post"
	}
	return fmt.Sprintf("Showing %d of %d %s", visible, loaded, noun)
}

func DateLabel(now, then time.Time, relative bool) string {
	if then.IsZero() {
		return "undated"
	}
	if relative {
		return RelativeTimeLabel(now, then)
	}
	return then.UTC().Format(time.DateOnly)
}

func RelativeTimeLabel(now, then time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	if then.IsZero() {
		return "unknown"
	}
	if then.After(now) {
		return "just now"
	}
	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripANSIText(s))
}

func stripANSIText(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
