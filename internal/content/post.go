package content

import (
	"sort"
	"time"
)

// Post is one article as returned by the content service. Posts are treated
// as immutable once fetched.
type Post struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	Tags       []string    `json:"tags"`
	Category   string      `json:"category,omitempty"`
	CreatedAt  time.Time   `json:"created_at,omitzero"`
	UpdatedAt  time.Time   `json:"updated_at,omitzero"`
	ImageURL   string      `json:"image_url,omitempty"`
	Engagement *Engagement `json:"engagement,omitempty"`
}

// Engagement holds the optional counters reported for a post.
type Engagement struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Views    int64 `json:"views"`
}

func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Collection is an ordered sequence of posts in server response order.
// No two posts share an ID.
type Collection []Post

func (c Collection) Index(id int64) int {
	for i, p := range c {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) Find(id int64) (Post, bool) {
	if i := c.Index(id); i >= 0 {
		return c[i], true
	}
	return Post{}, false
}

func (c Collection) Contains(id int64) bool {
	return c.Index(id) >= 0
}

// Vocabulary returns every distinct tag in the collection, sorted.
func (c Collection) Vocabulary() []string {
	seen := make(map[string]struct{})
	for _, p := range c {
		for _, t := range p.Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Page is the result of a single bounded fetch.
type Page struct {
	Posts  Collection
	Total  int
	Offset int
	Limit  int
	Tags   []string
}
