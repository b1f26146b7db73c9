package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/postdeck/internal/content"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	Section    lipgloss.Style
	Count      lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	PostTitle    lipgloss.Style
	PostTitleHot lipgloss.Style
	Tag          lipgloss.Style
	TagActive    lipgloss.Style
	SearchPrompt lipgloss.Style
	Panel        lipgloss.Style
	PanelWarn    lipgloss.Style
	Overlay      lipgloss.Style
	Link         lipgloss.Style
}

func Default() Theme {
	cpRosewater := lipgloss.Color("#f5e0dc")
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpBlue := lipgloss.Color("#89b4fa")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")
	cpSurface2 := lipgloss.Color("#585b70")

	return Theme{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:     lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Section:      lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		Count:        lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		ActiveLine:   lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:    lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:    lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:    lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:    lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:    lipgloss.NewStyle().Foreground(cpPeach),
		PostTitle:    lipgloss.NewStyle().Foreground(cpText),
		PostTitleHot: lipgloss.NewStyle().Bold(true).Foreground(cpRosewater),
		Tag:          lipgloss.NewStyle().Foreground(cpTeal),
		TagActive:    lipgloss.NewStyle().Bold(true).Foreground(cpSurface0).Background(cpTeal).Padding(0, 1),
		SearchPrompt: lipgloss.NewStyle().Foreground(cpMauve),
		Panel:        lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cpSurface2).Padding(0, 2),
		PanelWarn:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cpRed).Padding(0, 2),
		Overlay:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(cpLavender).Padding(0, 1),
		Link:         lipgloss.NewStyle().Foreground(cpBlue).Underline(true),
	}
}

// HotThreshold is the like count at which a post title is highlighted.
const HotThreshold = 100

func (t Theme) StylePostTitle(post content.Post, title string) string {
	if title == "" {
		return title
	}
	if post.Engagement != nil && post.Engagement.Likes >= HotThreshold {
		return t.PostTitleHot.Render(title)
	}
	return t.PostTitle.Render(title)
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
