package article

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	nethtml "golang.org/x/net/html"
)

type blockRenderer struct {
	width int
	opts  Options
}

// renderNodes lays out sibling nodes, gathering runs of inline content into
// paragraphs and separating blocks with one blank line.
func (r blockRenderer) renderNodes(nodes []*nethtml.Node, depth int) []string {
	var lines []string
	var inline []string

	appendBlock := func(block []string) {
		if len(block) == 0 {
			return
		}
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, block...)
	}
	flush := func() {
		text := collapse(strings.Join(inline, " "))
		inline = inline[:0]
		if text != "" {
			appendBlock(wrapText(text, r.width))
		}
	}

	for _, n := range nodes {
		if n.Type == nethtml.ElementNode && isBlock(n.Data) {
			flush()
			appendBlock(r.renderBlock(n, depth))
			continue
		}
		inline = append(inline, r.inline(n))
	}
	flush()
	return lines
}

func (r blockRenderer) renderBlock(n *nethtml.Node, depth int) []string {
	tag := strings.ToLower(n.Data)
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		text := collapse(r.inlineChildren(n))
		prefix := headingBar(level)
		return styled(prefixWrap(text, r.width, prefix, strings.Repeat(" ", visibleLen(prefix))), headingStyle)
	case "ul", "ol":
		return r.renderList(n, tag == "ol", depth+1)
	case "li":
		return r.renderItem(n, depth, "• ")
	case "blockquote":
		narrow := blockRenderer{width: max(1, r.width-visibleLen(quoteBar)), opts: r.opts}
		inner := narrow.renderNodes(significant(children(n)), depth)
		out := make([]string, 0, len(inner))
		for _, line := range inner {
			if strings.TrimSpace(line) == "" {
				out = append(out, "")
				continue
			}
			out = append(out, quoteBar+quoteStyle.Render(line))
		}
		return out
	case "pre":
		raw := strings.ReplaceAll(rawText(n), "\r\n", "\n")
		var out []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimRight(line, " \t")
			if line == "" {
				out = append(out, "")
				continue
			}
			out = append(out, "    "+codeStyle.Render(line))
		}
		return trimBlankLines(out)
	case "hr":
		return []string{ruleStyle.Render(strings.Repeat("─", min(r.width, 24)))}
	case "img":
		if !r.opts.ShowImages {
			return nil
		}
		return imageLabel(n, r.width)
	case "table":
		return r.renderTable(n)
	case "figcaption", "caption":
		return styled(prefixWrap(collapse(r.inlineChildren(n)), r.width, "— ", "  "), captionStyle)
	default:
		if hasBlockChild(n) {
			return r.renderNodes(significant(children(n)), depth)
		}
		return wrapText(collapse(r.inlineChildren(n)), r.width)
	}
}

func (r blockRenderer) renderList(n *nethtml.Node, ordered bool, depth int) []string {
	var lines []string
	index := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != nethtml.ElementNode || !strings.EqualFold(c.Data, "li") {
			continue
		}
		index++
		marker := bullet(depth)
		if ordered {
			marker = strconv.Itoa(index) + ". "
		}
		lines = append(lines, r.renderItem(c, depth, marker)...)
	}
	return lines
}

func (r blockRenderer) renderItem(n *nethtml.Node, depth int, marker string) []string {
	indent := strings.Repeat("  ", max(0, depth-1))
	var text []string
	var nested []*nethtml.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == nethtml.ElementNode && (strings.EqualFold(c.Data, "ul") || strings.EqualFold(c.Data, "ol")) {
			nested = append(nested, c)
			continue
		}
		text = append(text, r.inline(c))
	}
	lines := prefixWrap(collapse(strings.Join(text, " ")), r.width, indent+marker, indent+strings.Repeat(" ", visibleLen(marker)))
	for _, list := range nested {
		lines = append(lines, r.renderList(list, strings.EqualFold(list.Data, "ol"), depth+1)...)
	}
	return lines
}

// renderTable prints each row as cells joined by a divider.
func (r blockRenderer) renderTable(n *nethtml.Node) []string {
	var lines []string
	var walk func(*nethtml.Node)
	walk = func(node *nethtml.Node) {
		if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "tr") {
			var cells []string
			header := false
			for c := node.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != nethtml.ElementNode {
					continue
				}
				switch strings.ToLower(c.Data) {
				case "th":
					header = true
					cells = append(cells, collapse(r.inlineChildren(c)))
				case "td":
					cells = append(cells, collapse(r.inlineChildren(c)))
				}
			}
			if len(cells) == 0 {
				return
			}
			row := wrapText(strings.Join(cells, " │ "), r.width)
			if header {
				row = styled(row, tableHeaderStyle)
			}
			lines = append(lines, row...)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return lines
}

func (r blockRenderer) inlineChildren(n *nethtml.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = append(parts, r.inline(c))
	}
	return strings.Join(parts, " ")
}

func (r blockRenderer) inline(n *nethtml.Node) string {
	switch n.Type {
	case nethtml.TextNode:
		return strings.ReplaceAll(n.Data, "\n", " ")
	case nethtml.ElementNode:
	default:
		return ""
	}
	tag := strings.ToLower(n.Data)
	if skippedElement(tag) || tag == "img" {
		return ""
	}
	switch tag {
	case "br":
		return "\n"
	case "a":
		text := collapse(r.inlineChildren(n))
		href := attr(n, "href")
		switch {
		case href == "" || strings.HasPrefix(href, "#"):
			return text
		case text == "" || strings.EqualFold(text, href):
			return href
		default:
			return text + " (" + href + ")"
		}
	case "code", "kbd", "samp":
		text := collapse(r.inlineChildren(n))
		if text == "" {
			return ""
		}
		return codeStyle.Render("`" + text + "`")
	case "strong", "b":
		return emphasis(collapse(r.inlineChildren(n)), strongStyle)
	case "em", "i":
		return emphasis(collapse(r.inlineChildren(n)), emStyle)
	default:
		return r.inlineChildren(n)
	}
}

func emphasis(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = style.Render(w)
	}
	return strings.Join(words, " ")
}

func imageLabel(n *nethtml.Node, width int) []string {
	text := collapse(attr(n, "alt"))
	if text == "" {
		text = collapse(attr(n, "title"))
	}
	line := imageStyle.Render("[image]")
	if text != "" {
		line += " " + imageTextStyle.Render(text)
	}
	return wrapText(line, width)
}

// prefixWrap wraps text so the first line starts with first and the rest
// with rest.
func prefixWrap(text string, width int, first, rest string) []string {
	if text == "" {
		return nil
	}
	avail := max(1, width-max(visibleLen(first), visibleLen(rest)))
	var out []string
	for i, line := range wrapText(text, avail) {
		if i == 0 {
			out = append(out, first+line)
			continue
		}
		if line == "" {
			out = append(out, "")
			continue
		}
		out = append(out, rest+line)
	}
	return out
}

func styled(lines []string, style lipgloss.Style) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = line
			continue
		}
		out[i] = style.Render(line)
	}
	return out
}

func headingBar(level int) string {
	level = min(max(level, 1), len(headingBars))
	return headingBars[level-1].Render("▌") + " "
}

func bullet(depth int) string {
	switch depth {
	case 1:
		return "• "
	case 2:
		return "◦ "
	default:
		return "▪ "
	}
}

// collapse normalizes whitespace inside each line. Text nodes arrive with
// entities already decoded by the parser.
func collapse(s string) string {
	var lines []string
	for _, part := range strings.Split(s, "\n") {
		if part = strings.Join(strings.Fields(part), " "); part != "" {
			lines = append(lines, part)
		}
	}
	return punctuation.Replace(strings.Join(lines, "\n"))
}

var punctuation = strings.NewReplacer(
	" .", ".",
	" ,", ",",
	" ;", ";",
	" :", ":",
	" !", "!",
	" ?", "?",
	" )", ")",
	"( ", "(",
)

func isBlock(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "section", "article", "main", "header", "footer", "aside", "nav",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "blockquote", "pre", "hr",
		"img", "figure", "figcaption", "table", "caption", "dl", "dt", "dd":
		return true
	}
	return false
}

func skippedElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "script", "style", "noscript", "template", "iframe":
		return true
	}
	return false
}

func hasBlockChild(n *nethtml.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == nethtml.ElementNode && isBlock(c.Data) {
			return true
		}
	}
	return false
}

func children(n *nethtml.Node) []*nethtml.Node {
	var out []*nethtml.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// significant drops whitespace-only text nodes and skipped elements.
func significant(nodes []*nethtml.Node) []*nethtml.Node {
	out := make([]*nethtml.Node, 0, len(nodes))
	for _, n := range nodes {
		switch {
		case n.Type == nethtml.TextNode && strings.TrimSpace(n.Data) == "":
		case n.Type == nethtml.ElementNode && skippedElement(n.Data):
		case n.Type == nethtml.CommentNode:
		default:
			out = append(out, n)
		}
	}
	return out
}

func attr(n *nethtml.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func rawText(n *nethtml.Node) string {
	if n.Type == nethtml.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(rawText(c))
	}
	return b.String()
}
