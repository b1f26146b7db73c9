package view

import (
	"strings"

	article "github.com/glabrego/postdeck/internal/render/article"

	"github.com/glabrego/postdeck/internal/content"
)

func DetailLines(
	post content.Post,
	meta DetailMeta,
	contentWidth int,
	horizontalMargin int,
	opts article.Options,
	wrap WrapFunc,
) []string {
	lines := DetailMetaLines(post, meta, contentWidth, wrap)
	if body := article.BodyLinesWithOptions(post, contentWidth, opts); len(body) > 0 {
		lines = append(lines, "")
		lines = append(lines, body...)
	}
	return leftPadLines(lines, horizontalMargin)
}

func leftPadLines(lines []string, padding int) []string {
	if padding <= 0 || len(lines) == 0 {
		return lines
	}
	prefix := strings.Repeat(" ", padding)
	out := make([]string, len(lines))
	for i, line := range lines {
		if line == "" {
			out[i] = line
			continue
		}
		out[i] = prefix + line
	}
	return out
}
