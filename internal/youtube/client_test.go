package youtube

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

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("type"); got != "video" {
			t.Errorf("search type = %q, want video", got)
		}
		if got := q.Get("order"); got != "relevance" {
			t.Errorf("search order = %q, want relevance", got)
		}
		if got := q.Get("key"); got != "test-key" {
			t.Errorf("search key = %q, want test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(loadFixture(t, "testdata/search.json"))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("part"); got != "snippet,statistics" {
			t.Errorf("videos part = %q, want snippet,statistics", got)
		}
		if got := q.Get("id"); got != "s4trailer01,s4guide02,s4deleted03" {
			t.Errorf("videos id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(loadFixture(t, "testdata/videos.json"))
	})
	return httptest.NewServer(mux)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "test-key")

	ids, err := c.Search(context.Background(), "battlefield 6 season 4", time.Time{}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"s4trailer01", "s4guide02", "s4deleted03"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchPublishedAfter(t *testing.T) {
	var gotParam string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotParam = r.URL.Query().Get("publishedAfter")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "test-key")

	after := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if _, err := c.Search(context.Background(), "q", after, 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotParam != "2026-03-10T00:00:00Z" {
		t.Errorf("publishedAfter = %q, want 2026-03-10T00:00:00Z", gotParam)
	}
}

// TopVideos must keep the search ranking even though the stats endpoint
// returns items in its own order, and must drop hits the stats endpoint no
// longer knows (deleted or private videos).
func TestTopVideos(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "test-key")

	got, err := c.TopVideos(context.Background(), "battlefield 6 season 4", time.Time{}, 10)
	if err != nil {
		t.Fatalf("TopVideos: %v", err)
	}

	want := []model.VideoItem{
		{
			ID:           "s4trailer01",
			Title:        "Season 4 launch trailer breakdown",
			ChannelTitle: "LevelCapGaming",
			Views:        184302,
			PublishedAt:  time.Date(2026, 3, 12, 16, 0, 0, 0, time.UTC),
			Thumbnail:    "https://i.ytimg.com/vi/s4trailer01/hqdefault.jpg",
			Description:  "Everything shown in the new trailer.",
		},
		{
			ID:           "s4guide02",
			Title:        "Best loadouts for every Season 4 map",
			ChannelTitle: "TacticalBrit",
			Views:        52117,
			PublishedAt:  time.Date(2026, 3, 12, 18, 45, 0, 0, time.UTC),
			Thumbnail:    "https://i.ytimg.com/vi/s4guide02/default.jpg",
			Description:  "Timestamps for each map below.",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("videos mismatch (-want +got):\n%s", diff)
	}
}

func TestVideosEmptyIDs(t *testing.T) {
	c := NewClient("http://unused.example", "test-key")
	got, err := c.Videos(context.Background(), nil)
	if err != nil {
		t.Fatalf("Videos: %v", err)
	}
	if got != nil {
		t.Errorf("Videos(nil) = %v, want nil without a request", got)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quotaExceeded"}}`, http.StatusForbidden)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "test-key")

	if _, err := c.Search(context.Background(), "q", time.Time{}, 5); err == nil {
		t.Error("Search on 403 returned nil error")
	}
	if _, err := c.Videos(context.Background(), []string{"a"}); err == nil {
		t.Error("Videos on 403 returned nil error")
	}
}

func TestTruncate(t *testing.T) {
	long := ""
	for len(long) < 400 {
		long += "every map gets a rework this season "
	}
	got := truncate(long, 300)
	if len(got) > 304 {
		t.Errorf("truncate left %d bytes", len(got))
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("truncate result %q missing ellipsis", got[len(got)-10:])
	}
	if short := truncate("short text", 300); short != "short text" {
		t.Errorf("truncate(short) = %q", short)
	}
}
