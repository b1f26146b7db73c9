// Package catalog derives the visible subset of a post collection from the
// active filter inputs. Everything here is pure: inputs are never mutated and
// identical inputs always produce structurally equal output.
package catalog

import (
	"strings"

	"github.com/glabrego/postdeck/internal/content"
)

// FilterState holds the independent filter inputs. An empty Tag means no tag
// is selected; normalized posts never carry an empty tag.
type FilterState struct {
	SearchText string `json:"search_text"`
	Tag        string `json:"tag"`
}

func (f FilterState) Active() bool {
	return strings.TrimSpace(f.SearchText) != "" || f.Tag != ""
}

// Predicate is a boolean test over a single post.
type Predicate func(content.Post) bool

func acceptAll(content.Post) bool { return true }

// TagPredicate accepts posts carrying tag exactly (case-sensitive).
func TagPredicate(tag string) Predicate {
	if tag == "" {
		return acceptAll
	}
	return func(p content.Post) bool {
		return p.HasTag(tag)
	}
}

// SearchPredicate accepts posts whose title, body or any tag contains the
// trimmed, lowercased text.
func SearchPredicate(text string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return acceptAll
	}
	return func(p content.Post) bool {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(p.Body), needle) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	}
}

// Predicates returns the predicates for f, cheapest first.
func Predicates(f FilterState) []Predicate {
	return []Predicate{TagPredicate(f.Tag), SearchPredicate(f.SearchText)}
}

// Apply returns the posts of c matching f, in the order they appear in c.
func Apply(c content.Collection, f FilterState) content.Collection {
	return ApplyPredicates(c, Predicates(f)...)
}

// ApplyPredicates keeps posts accepted by every predicate. The result is
// always a new slice.
func ApplyPredicates(c content.Collection, preds ...Predicate) content.Collection {
	out := make(content.Collection, 0, len(c))
next:
	for _, p := range c {
		for _, pred := range preds {
			if !pred(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

func Vocabulary(c content.Collection) []string {
	return c.Vocabulary()
}

// Counts returns how many posts of c carry each tag.
func Counts(c content.Collection) map[string]int {
	counts := make(map[string]int)
	for _, p := range c {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	return counts
}

// CycleTag returns the tag step positions away from current in the sequence
// "no tag" followed by vocab, wrapping at both ends. A current tag that is not
// in vocab restarts the cycle from "no tag".
func CycleTag(vocab []string, current string, step int) string {
	n := len(vocab) + 1
	pos := 0
	for i, t := range vocab {
		if t == current {
			pos = i + 1
			break
		}
	}
	pos = ((pos+step)%n + n) % n
	if pos == 0 {
		return ""
	}
	return vocab[pos-1]
}
