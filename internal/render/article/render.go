// Package article turns a post body, plain text or an HTML fragment, into
// terminal lines wrapped to a given width.
package article

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/glabrego/postdeck/internal/content"
)

var (
	reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	reHTTPURL   = regexp.MustCompile(`https?://[^\s)]+`)
	reHTMLTag   = regexp.MustCompile(`(?s)<[a-zA-Z/!][^>]*>`)
)

const (
	wordsPerMinute = 200
	ansiReset      = "\x1b[0m"
)

type Options struct {
	StyleLinks bool
	ShowImages bool
}

var DefaultOptions = Options{
	StyleLinks: true,
	ShowImages: true,
}

// BodyLines renders the body of post for a column of width cells.
func BodyLines(post content.Post, width int) []string {
	return BodyLinesWithOptions(post, width, DefaultOptions)
}

func BodyLinesWithOptions(post content.Post, width int, opts Options) []string {
	body := strings.TrimSpace(post.Body)
	if body == "" {
		return nil
	}
	width = max(1, width)
	if !LooksLikeHTML(body) {
		return wrapText(body, width)
	}
	lines := renderFragment(body, width, opts)
	if len(lines) == 0 {
		return wrapText(PlainText(body), width)
	}
	if opts.StyleLinks {
		lines = styleLinks(lines)
	}
	return lines
}

// PlainText strips markup from body and collapses whitespace.
func PlainText(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if !LooksLikeHTML(body) {
		return strings.Join(strings.Fields(body), " ")
	}
	doc, err := nethtml.Parse(strings.NewReader(body))
	if err != nil {
		return strings.Join(strings.Fields(html.UnescapeString(reHTMLTag.ReplaceAllString(body, " "))), " ")
	}
	var b strings.Builder
	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode && skippedElement(n.Data) {
			return
		}
		if n.Type == nethtml.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Excerpt returns at most n runes of the post's plain text, ending in an
// ellipsis when shortened.
func Excerpt(post content.Post, n int) string {
	text := PlainText(post.Body)
	if n < 1 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimRight(string(runes[:n-1]), " ")
	return cut + "…"
}

func WordCount(post content.Post) int {
	return len(strings.Fields(PlainText(post.Body)))
}

// ReadingMinutes estimates reading time. Posts with any words take at least
// one minute.
func ReadingMinutes(post content.Post) int {
	words := WordCount(post)
	if words == 0 {
		return 0
	}
	return max(1, (words+wordsPerMinute-1)/wordsPerMinute)
}

func LooksLikeHTML(s string) bool {
	return reHTMLTag.MatchString(s)
}

func renderFragment(raw string, width int, opts Options) []string {
	nodes, err := nethtml.ParseFragment(strings.NewReader(raw), &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil
	}
	r := blockRenderer{width: width, opts: opts}
	return trimBlankLines(r.renderNodes(significant(nodes), 0))
}

func styleLinks(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = reHTTPURL.ReplaceAllStringFunc(line, func(m string) string {
			return linkStyle.Render(m)
		})
	}
	return out
}

func trimBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if blank && (len(out) == 0 || strings.TrimSpace(out[len(out)-1]) == "") {
			continue
		}
		out = append(out, line)
	}
	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// wrapText wraps each paragraph of text on word boundaries. Words longer
// than width are split.
func wrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for visibleLen(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				head, tail := splitVisible(word, width)
				out = append(out, head)
				word = tail
			}
			switch {
			case line == "":
				line = word
			case visibleLen(line)+1+visibleLen(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// splitVisible cuts s after n visible runes. Escape sequences are carried
// whole, and a style open at the cut is closed on the head and reopened on
// the tail.
func splitVisible(s string, n int) (string, string) {
	var head strings.Builder
	active := ""
	seen := 0
	i := 0
	for i < len(s) && seen < n {
		if seq := leadingSGR(s[i:]); seq != "" {
			head.WriteString(seq)
			if seq == ansiReset || seq == "\x1b[m" {
				active = ""
			} else {
				active += seq
			}
			i += len(seq)
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		head.WriteString(s[i : i+size])
		i += size
		seen++
	}
	if i >= len(s) {
		return s, ""
	}
	if active == "" {
		return head.String(), s[i:]
	}
	return head.String() + ansiReset, active + s[i:]
}

func leadingSGR(s string) string {
	if !strings.HasPrefix(s, "\x1b[") {
		return ""
	}
	if loc := reANSICodes.FindStringIndex(s); loc != nil && loc[0] == 0 {
		return s[:loc[1]]
	}
	return ""
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(reANSICodes.ReplaceAllString(s, ""))
}

func StripANSI(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
