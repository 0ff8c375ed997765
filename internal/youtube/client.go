package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamedigest/internal/model"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client is a minimal YouTube Data API v3 client covering search and video
// statistics. Docs: https://developers.google.com/youtube/v3/docs
type Client struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewClient creates a YouTube client. baseURL overrides the Google endpoint,
// which tests use; empty means the public API.
func NewClient(baseURL, key string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Default thumbnail `json:"default"`
				Medium  thumbnail `json:"medium"`
				High    thumbnail `json:"high"`
				Maxres  thumbnail `json:"maxres"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Search returns the IDs of videos matching the query, newest window bound
// by publishedAfter (zero means unbounded).
func (c *Client) Search(ctx context.Context, query string, publishedAfter time.Time, maxResults int) ([]string, error) {
	q := url.Values{
		"part":              {"id"},
		"q":                 {query},
		"type":              {"video"},
		"order":             {"relevance"},
		"relevanceLanguage": {"en"},
		"safeSearch":        {"moderate"},
		"maxResults":        {strconv.Itoa(maxResults)},
		"key":               {c.key},
	}
	if !publishedAfter.IsZero() {
		q.Set("publishedAfter", publishedAfter.UTC().Format(time.RFC3339))
	}

	var sr searchResponse
	if err := c.getJSON(ctx, "/search", q, &sr); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

// Videos resolves video IDs to items with snippets and view counts.
func (c *Client) Videos(ctx context.Context, ids []string) ([]model.VideoItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{
		"part": {"snippet,statistics"},
		"id":   {strings.Join(ids, ",")},
		"key":  {c.key},
	}
	var vr videosResponse
	if err := c.getJSON(ctx, "/videos", q, &vr); err != nil {
		return nil, err
	}

	videos := make([]model.VideoItem, 0, len(vr.Items))
	for _, item := range vr.Items {
		views, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		videos = append(videos, model.VideoItem{
			ID:           item.ID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			Views:        views,
			PublishedAt:  published.UTC(),
			Thumbnail:    bestThumbnail(item.Snippet.Thumbnails.Maxres, item.Snippet.Thumbnails.High, item.Snippet.Thumbnails.Medium, item.Snippet.Thumbnails.Default),
			Description:  truncate(item.Snippet.Description, 300),
		})
	}
	return videos, nil
}

// TopVideos searches for the query and joins the hits with their statistics,
// preserving the search ranking.
func (c *Client) TopVideos(ctx context.Context, query string, publishedAfter time.Time, maxResults int) ([]model.VideoItem, error) {
	ids, err := c.Search(ctx, query, publishedAfter, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	videos, err := c.Videos(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.VideoItem, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	ordered := make([]model.VideoItem, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("youtube: %s status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("youtube: decode %s: %w", path, err)
	}
	return nil
}

func bestThumbnail(candidates ...thumbnail) string {
	for _, t := range candidates {
		if t.URL != "" {
			return t.URL
		}
	}
	return ""
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
