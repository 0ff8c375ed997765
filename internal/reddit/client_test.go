package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"gamedigest/internal/model"
)

func loadFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// newTestServer serves the recorded reddit responses for r/battlefield6.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/r/battlefield6/hot.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request sent without a user agent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(loadFixture(t, "testdata/hot.json"))
	})
	mux.HandleFunc("/r/battlefield6/.rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write(loadFixture(t, "testdata/hot.rss"))
	})
	mux.HandleFunc("/r/battlefield6/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(loadFixture(t, "testdata/hot.html"))
	})
	return httptest.NewServer(mux)
}

func TestTopPosts(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, srv.URL, "test-agent")

	got, err := c.TopPosts(context.Background(), "battlefield6", 25)
	if err != nil {
		t.Fatalf("TopPosts: %v", err)
	}

	want := []model.RedditPost{
		{
			ID:        "1b4abc",
			Title:     "Season 4 map rotation is live",
			URL:       srv.URL + "/r/battlefield6/comments/1b4abc/season_4_map_rotation_is_live/",
			Subreddit: "battlefield6",
			Author:    "gunner_mate",
			Score:     1874,
			CreatedAt: time.Date(2026, 3, 13, 10, 30, 0, 0, time.UTC),
			Thumbnail: "https://b.thumbs.redditmedia.com/s4rotation.jpg",
		},
		{
			ID:        "1b4def",
			Title:     "Weekly loadout discussion thread",
			URL:       srv.URL + "/r/battlefield6/comments/1b4def/weekly_loadout_discussion_thread/",
			Subreddit: "battlefield6",
			Author:    "AutoModerator",
			Score:     96,
			CreatedAt: time.Date(2026, 3, 13, 5, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("posts mismatch (-want +got):\n%s", diff)
	}
}

func TestTopPostsLimit(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, srv.URL, "test-agent")

	got, err := c.TopPosts(context.Background(), "battlefield6", 1)
	if err != nil {
		t.Fatalf("TopPosts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1b4abc" {
		t.Errorf("got %d posts (first %q), want the single top post", len(got), first(got))
	}
}

func TestHotPosts(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, srv.URL, "test-agent")

	got, err := c.HotPosts(context.Background(), "battlefield6", 25)
	if err != nil {
		t.Fatalf("HotPosts: %v", err)
	}

	want := []model.RedditPost{
		{
			ID:        "t3_1b4abc",
			Title:     "Season 4 map rotation is live",
			URL:       "https://www.reddit.com/r/battlefield6/comments/1b4abc/season_4_map_rotation_is_live/",
			Subreddit: "battlefield6",
			Author:    "/u/gunner_mate",
			CreatedAt: time.Date(2026, 3, 13, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:        "t3_1b4jkl",
			Title:     "Clutch revive chain",
			URL:       "https://www.reddit.com/r/battlefield6/comments/1b4jkl/clutch_revive_chain/",
			Subreddit: "battlefield6",
			Author:    "/u/quietscout",
			CreatedAt: time.Date(2026, 3, 13, 8, 5, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("posts mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeHot(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, srv.URL, "test-agent")

	got, err := c.ScrapeHot(context.Background(), "battlefield6", 25)
	if err != nil {
		t.Fatalf("ScrapeHot: %v", err)
	}

	want := []model.RedditPost{
		{
			ID:        "1b4abc",
			Title:     "Season 4 map rotation is live",
			URL:       srv.URL + "/r/battlefield6/comments/1b4abc/season_4_map_rotation_is_live/",
			Subreddit: "battlefield6",
			Author:    "gunner_mate",
			Score:     1874,
			CreatedAt: time.Date(2026, 3, 13, 10, 30, 0, 0, time.UTC),
			Thumbnail: "https://b.thumbs.redditmedia.com/s4rotation.jpg",
		},
		{
			ID:        "1b4mno",
			Title:     "New devblog teased for next week",
			URL:       "https://example.com/devblog-teaser",
			Subreddit: "battlefield6",
			Author:    "mod_team",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("posts mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeHotLimit(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, srv.URL, "test-agent")

	got, err := c.ScrapeHot(context.Background(), "battlefield6", 1)
	if err != nil {
		t.Fatalf("ScrapeHot: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1b4abc" {
		t.Errorf("got %d posts (first %q), want the single top post", len(got), first(got))
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, srv.URL, "test-agent")

	if _, err := c.TopPosts(context.Background(), "battlefield6", 5); err == nil {
		t.Error("TopPosts on 429 returned nil error")
	}
	if _, err := c.HotPosts(context.Background(), "battlefield6", 5); err == nil {
		t.Error("HotPosts on 429 returned nil error")
	}
	if _, err := c.ScrapeHot(context.Background(), "battlefield6", 5); err == nil {
		t.Error("ScrapeHot on 429 returned nil error")
	}
}

func TestParseAbbrevScore(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1874", 1874},
		{"1.9k", 1900},
		{"12K", 12000},
		{"•", 0},
		{"", 0},
		{"junk", 0},
	}
	for _, tt := range tests {
		if got := parseAbbrevScore(tt.in); got != tt.want {
			t.Errorf("parseAbbrevScore(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func first(posts []model.RedditPost) string {
	if len(posts) == 0 {
		return ""
	}
	return posts[0].ID
}
