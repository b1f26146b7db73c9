package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultPageLimit = 10

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchPage requests a single bounded page of posts. It never retries.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) (Page, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}

	q := make(url.Values)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Page{}, networkError(fmt.Sprintf("build request: %v", err), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, networkError(fmt.Sprintf("fetch posts request failed: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		reason := fmt.Sprintf("fetch posts failed with status %d", resp.StatusCode)
		if excerpt := strings.TrimSpace(string(body)); excerpt != "" {
			reason += ": " + excerpt
		}
		return Page{}, networkError(reason, nil)
	}

	var env wireEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Page{}, formatError(fmt.Sprintf("decode posts response: %v", err), err)
	}

	page, err := env.normalize()
	if err != nil {
		return Page{}, err
	}
	page.Offset = offset
	page.Limit = limit
	return page, nil
}

type wireEnvelope struct {
	Posts      []wirePost `json:"posts"`
	Blogs      []wirePost `json:"blogs"`
	Success    *bool      `json:"success"`
	Message    string     `json:"message"`
	Total      *int       `json:"total"`
	TotalBlogs *int       `json:"total_blogs"`
}

type wirePost struct {
	ID          *int64          `json:"id"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	ContentHTML string          `json:"content_html"`
	ContentText string          `json:"content_text"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Category    string          `json:"category"`
	CreatedAt   string          `json:"created_at"`
	CreatedAtJS string          `json:"createdAt"`
	UpdatedAt   string          `json:"updated_at"`
	UpdatedAtJS string          `json:"updatedAt"`
	PhotoURL    string          `json:"photo_url"`
	Image       string          `json:"image"`
	ImageURL    string          `json:"imageUrl"`
	Reactions   json.RawMessage `json:"reactions"`
	Views       *int64          `json:"views"`
}

func (env wireEnvelope) normalize() (Page, error) {
	if env.Success != nil && !*env.Success {
		reason := "content service reported failure"
		if env.Message != "" {
			reason += ": " + env.Message
		}
		return Page{}, formatError(reason, nil)
	}

	raw := env.Posts
	if raw == nil {
		raw = env.Blogs
	}
	if raw == nil {
		return Page{}, formatError("response has no posts array", nil)
	}

	posts := make(Collection, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	for i, wp := range raw {
		post, err := wp.toPost()
		if err != nil {
			return Page{}, formatError(fmt.Sprintf("post %d: %v", i, err), err)
		}
		if _, dup := seen[post.ID]; dup {
			continue
		}
		seen[post.ID] = struct{}{}
		posts = append(posts, post)
	}

	total := len(posts)
	switch {
	case env.Total != nil:
		total = *env.Total
	case env.TotalBlogs != nil:
		total = *env.TotalBlogs
	}

	return Page{Posts: posts, Total: total, Tags: posts.Vocabulary()}, nil
}

func (wp wirePost) toPost() (Post, error) {
	if wp.ID == nil {
		return Post{}, fmt.Errorf("missing id")
	}

	post := Post{
		ID:        *wp.ID,
		Title:     strings.TrimSpace(wp.Title),
		Body:      firstNonEmpty(wp.Body, wp.ContentHTML, wp.ContentText, wp.Description),
		Category:  strings.TrimSpace(wp.Category),
		CreatedAt: parseTimestamp(firstNonEmpty(wp.CreatedAt, wp.CreatedAtJS)),
		UpdatedAt: parseTimestamp(firstNonEmpty(wp.UpdatedAt, wp.UpdatedAtJS)),
		ImageURL:  firstNonEmpty(wp.PhotoURL, wp.Image, wp.ImageURL),
	}

	post.Tags = normalizeTags(wp.Tags)
	if len(post.Tags) == 0 && post.Category != "" {
		post.Tags = []string{post.Category}
	}

	engagement, err := parseEngagement(wp.Reactions, wp.Views)
	if err != nil {
		return Post{}, err
	}
	post.Engagement = engagement
	return post, nil
}

func normalizeTags(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func parseEngagement(reactions json.RawMessage, views *int64) (*Engagement, error) {
	reactions = bytes.TrimSpace(reactions)
	hasReactions := len(reactions) > 0 && !bytes.Equal(reactions, []byte("null"))
	if !hasReactions && views == nil {
		return nil, nil
	}

	e := &Engagement{}
	if views != nil {
		e.Views = *views
	}
	if !hasReactions {
		return e, nil
	}

	if reactions[0] == '{' {
		var r struct {
			Likes    int64 `json:"likes"`
			Dislikes int64 `json:"dislikes"`
		}
		if err := json.Unmarshal(reactions, &r); err != nil {
			return nil, fmt.Errorf("decode reactions: %w", err)
		}
		e.Likes = r.Likes
		e.Dislikes = r.Dislikes
		return e, nil
	}

	var likes int64
	if err := json.Unmarshal(reactions, &likes); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}
	e.Likes = likes
	return e, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
