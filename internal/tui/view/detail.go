package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/glabrego/postdeck/internal/content"
)

type WrapFunc func(string, int) []string

// DetailMeta is what the detail header shows besides the post itself.
type DetailMeta struct {
	ShareURL string
	Minutes  int
}

func DetailMetaLines(post content.Post, meta DetailMeta, width int, wrap WrapFunc) []string {
	lines := make([]string, 0, 12)
	title := strings.TrimSpace(post.Title)
	if title == "" {
		title = "(untitled)"
	}
	lines = append(lines, wrap(title, width)...)
	lines = append(lines, strings.Repeat("=", max(1, min(width, visibleLen(title)))))
	lines = append(lines, "")

	if post.Category != "" {
		lines = append(lines, wrap("Category: "+post.Category, width)...)
	}
	if len(post.Tags) > 0 {
		lines = append(lines, wrap("Tags: "+strings.Join(post.Tags, ", "), width)...)
	}
	if !post.CreatedAt.IsZero() {
		lines = append(lines, "Date: "+post.CreatedAt.UTC().Format(time.RFC3339))
	}
	if !post.UpdatedAt.IsZero() {
		lines = append(lines, "Updated: "+post.UpdatedAt.UTC().Format(time.RFC3339))
	}
	if meta.Minutes > 0 {
		lines = append(lines, fmt.Sprintf("Reading time: %d min", meta.Minutes))
	}
	if e := post.Engagement; e != nil {
		lines = append(lines, fmt.Sprintf("Likes: %d | Dislikes: %d | Views: %d", e.Likes, e.Dislikes, e.Views))
	}
	if meta.ShareURL != "" {
		lines = append(lines, wrap("Link: "+meta.ShareURL, width)...)
	}
	if url := strings.TrimSpace(post.ImageURL); url != "" {
		lines = append(lines, wrap("Image: "+url, width)...)
	}
	return lines
}
