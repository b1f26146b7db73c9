package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchPage_SendsOffsetAndLimitAndParsesPosts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "20" {
			t.Fatalf("unexpected offset query: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("limit") != "5" {
			t.Fatalf("unexpected limit query: %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Fatalf("unexpected accept header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"posts":[
			{"id":1,"title":"Intro to AI","body":"<p>Hello</p>","tags":["ai"," ai ",""],"reactions":{"likes":3,"dislikes":1},"views":40},
			{"id":2,"title":"Web Basics","body":"Plain","tags":["web"]}
		],"total":150,"skip":20,"limit":5}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	page, err := c.FetchPage(context.Background(), 20, 5)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}

	if len(page.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page.Posts))
	}
	if page.Total != 150 || page.Offset != 20 || page.Limit != 5 {
		t.Fatalf("unexpected page metadata: %+v", page)
	}
	first := page.Posts[0]
	if len(first.Tags) != 1 || first.Tags[0] != "ai" {
		t.Fatalf("expected normalized tags [ai], got %q", first.Tags)
	}
	if first.Engagement == nil || first.Engagement.Likes != 3 || first.Engagement.Dislikes != 1 || first.Engagement.Views != 40 {
		t.Fatalf("unexpected engagement: %+v", first.Engagement)
	}
	if page.Posts[1].Engagement != nil {
		t.Fatalf("expected no engagement for second post, got %+v", page.Posts[1].Engagement)
	}
	if strings.Join(page.Tags, ",") != "ai,web" {
		t.Fatalf("unexpected vocabulary: %q", page.Tags)
	}
}

func TestFetchPage_ParsesBlogsEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"total_blogs":1000,"blogs":[
			{"id":7,"title":"Cloud Costs","content_html":"<p>Spend less</p>","content_text":"Spend less","category":"cloud",
			 "created_at":"2023-04-01T08:30:00.000Z","photo_url":"https://example.com/p.jpg"}
		]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client())
	page, err := c.FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if page.Total != 1000 {
		t.Fatalf("unexpected total: %d", page.Total)
	}
	post := page.Posts[0]
	if post.Body != "<p>Spend less</p>" {
		t.Fatalf("expected html body, got %q", post.Body)
	}
	if len(post.Tags) != 1 || post.Tags[0] != "cloud" {
		t.Fatalf("expected category to become the tag, got %q", post.Tags)
	}
	if !post.CreatedAt.Equal(time.Date(2023, 4, 1, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created_at: %s", post.CreatedAt)
	}
	if post.ImageURL != "https://example.com/p.jpg" {
		t.Fatalf("unexpected image url: %s", post.ImageURL)
	}
}

func TestFetchPage_EmptyPageIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"posts":[],"total":0}`))
	}))
	defer ts.Close()

	page, err := NewClient(ts.URL, ts.Client()).FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if len(page.Posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(page.Posts))
	}
}

func TestFetchPage_DuplicateIDsKeepFirst(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"posts":[{"id":1,"title":"first"},{"id":1,"title":"second"},{"id":2,"title":"third"}]}`))
	}))
	defer ts.Close()

	page, err := NewClient(ts.URL, ts.Client()).FetchPage(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if len(page.Posts) != 2 || page.Posts[0].Title != "first" || page.Posts[1].ID != 2 {
		t.Fatalf("unexpected posts: %+v", page.Posts)
	}
}

func TestFetchPage_StatusErrorIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, ts.Client()).FetchPage(context.Background(), 0, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "maintenance") {
		t.Fatalf("expected status and body in reason, got %q", err.Error())
	}
}

func TestFetchPage_TransportErrorIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewClient(url, nil).FetchPage(context.Background(), 0, 10)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestFetchPage_ShapeErrorsAreFormatErrors(t *testing.T) {
	bodies := map[string]string{
		"invalid json":   `{"posts":`,
		"missing array":  `{"items":[]}`,
		"missing id":     `{"posts":[{"title":"no id"}]}`,
		"service failed": `{"success":false,"message":"quota exceeded"}`,
		"bad reactions":  `{"posts":[{"id":1,"reactions":"lots"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer ts.Close()

			_, err := NewClient(ts.URL, ts.Client()).FetchPage(context.Background(), 0, 10)
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("expected format error, got %v", err)
			}
			if errors.Is(err, ErrNetwork) {
				t.Fatalf("format error must not match network kind: %v", err)
			}
		})
	}
}

func TestFetchPage_ClampsInvalidBounds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" || r.URL.Query().Get("limit") != "10" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"posts":[]}`))
	}))
	defer ts.Close()

	if _, err := NewClient(ts.URL, ts.Client()).FetchPage(context.Background(), -3, 0); err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
}

func TestCollectionHelpers(t *testing.T) {
	c := Collection{
		{ID: 1, Tags: []string{"web", "ai"}},
		{ID: 2, Tags: []string{"security", "ai"}},
	}
	if c.Index(2) != 1 || c.Index(9) != -1 {
		t.Fatal("unexpected Index results")
	}
	if _, ok := c.Find(3); ok {
		t.Fatal("expected Find miss")
	}
	if got := strings.Join(c.Vocabulary(), ","); got != "ai,security,web" {
		t.Fatalf("unexpected vocabulary: %s", got)
	}
	if !c[0].HasTag("web") || c[0].HasTag("Web") {
		t.Fatal("expected exact, case-sensitive tag membership")
	}
}
