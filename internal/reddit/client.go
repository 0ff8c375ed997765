package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"gamedigest/internal/model"
)

const (
	defaultBaseURL   = "https://www.reddit.com"
	defaultScrapeURL = "https://old.reddit.com"

	// Reddit blocks the default Go user agent outright; a browser UA keeps
	// both the JSON listing and the old-reddit HTML reachable.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodyBytes = 5 * 1024 * 1024
)

// Client reads subreddit listings. It exposes three independent fetch paths
// with decreasing fidelity: the JSON API carries scores and exact creation
// times, the RSS feed carries timestamps but no scores, and the old-reddit
// HTML scrape recovers scores when the first two are blocked.
type Client struct {
	baseURL   string
	scrapeURL string
	userAgent string
	client    *http.Client
}

// NewClient creates a Reddit client. Empty arguments fall back to the public
// reddit.com endpoints and a browser user agent.
func NewClient(baseURL, scrapeURL, userAgent string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(scrapeURL) == "" {
		scrapeURL = defaultScrapeURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = browserUserAgent
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		scrapeURL: strings.TrimRight(scrapeURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// listing mirrors the subset of the hot.json response we read.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Title      string  `json:"title"`
				Permalink  string  `json:"permalink"`
				Author     string  `json:"author"`
				Subreddit  string  `json:"subreddit"`
				Score      int64   `json:"score"`
				CreatedUTC float64 `json:"created_utc"`
				Thumbnail  string  `json:"thumbnail"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// TopPosts fetches a subreddit's hot listing through the JSON API. This is
// the preferred path: it is the only one that returns scores and exact
// creation times together.
func (c *Client) TopPosts(ctx context.Context, subreddit string, limit int) ([]model.RedditPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%d&raw_json=1", c.baseURL, subreddit, limit)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("reddit: decode hot.json for r/%s: %w", subreddit, err)
	}
	posts := make([]model.RedditPost, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		d := child.Data
		if d.Title == "" || d.Permalink == "" {
			continue
		}
		sub := d.Subreddit
		if sub == "" {
			sub = subreddit
		}
		posts = append(posts, model.RedditPost{
			ID:        d.ID,
			Title:     d.Title,
			URL:       c.baseURL + d.Permalink,
			Subreddit: sub,
			Author:    d.Author,
			Score:     d.Score,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
			Thumbnail: cleanThumbnail(d.Thumbnail),
		})
		if limit > 0 && len(posts) == limit {
			break
		}
	}
	return posts, nil
}

// HotPosts fetches a subreddit's hot listing through its RSS feed. The feed
// carries no scores, so every post comes back with Score 0.
func (c *Client) HotPosts(ctx context.Context, subreddit string, limit int) ([]model.RedditPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/.rss?limit=%d", c.baseURL, subreddit, limit)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("reddit: parse rss for r/%s: %w", subreddit, err)
	}
	posts := make([]model.RedditPost, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		var created time.Time
		if item.PublishedParsed != nil {
			created = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			created = item.UpdatedParsed.UTC()
		}
		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}
		posts = append(posts, model.RedditPost{
			ID:        id,
			Title:     item.Title,
			URL:       item.Link,
			Subreddit: subreddit,
			Author:    author,
			CreatedAt: created,
		})
		if limit > 0 && len(posts) == limit {
			break
		}
	}
	return posts, nil
}

// ScrapeHot parses the old-reddit HTML listing. Last-resort path for when
// both the JSON API and the RSS feed are blocked.
func (c *Client) ScrapeHot(ctx context.Context, subreddit string, limit int) ([]model.RedditPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/", c.scrapeURL, subreddit)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("reddit: parse html for r/%s: %w", subreddit, err)
	}

	var posts []model.RedditPost
	doc.Find("div.thing").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := s.Find("a.title").First()
		text := strings.TrimSpace(title.Text())
		href := title.AttrOr("href", "")
		if text == "" || href == "" {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = c.scrapeURL + href
		}

		id := strings.TrimPrefix(s.AttrOr("data-fullname", ""), "t3_")
		if id == "" {
			id = href
		}

		var created time.Time
		if dt := s.Find("time").First().AttrOr("datetime", ""); dt != "" {
			if t, err := time.Parse(time.RFC3339, dt); err == nil {
				created = t.UTC()
			}
		}

		posts = append(posts, model.RedditPost{
			ID:        id,
			Title:     text,
			URL:       href,
			Subreddit: subreddit,
			Author:    strings.TrimSpace(s.Find("a.author").First().Text()),
			Score:     scrapeScore(s),
			CreatedAt: created,
			Thumbnail: scrapeThumbnail(s),
		})
		return limit <= 0 || len(posts) < limit
	})
	return posts, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reddit: %s status %d", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reddit: read body: %w", err)
	}
	return body, nil
}

// scrapeScore reads the post score from a div.thing node. Each post carries
// three score divs (dislikes, unvoted, likes); the unvoted one is the real
// count. Its title attribute holds the exact number; the visible text may be
// abbreviated ("1.2k") or hidden ("•") for young posts.
func scrapeScore(s *goquery.Selection) int64 {
	score := s.Find("div.score.unvoted").First()
	if exact := score.AttrOr("title", ""); exact != "" {
		if n, err := strconv.ParseInt(exact, 10, 64); err == nil {
			return n
		}
	}
	return parseAbbrevScore(score.Text())
}

func parseAbbrevScore(text string) int64 {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" || text == "•" {
		return 0
	}
	mult := int64(1)
	if strings.HasSuffix(text, "k") {
		mult = 1000
		text = strings.TrimSuffix(text, "k")
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return int64(f * float64(mult))
}

func scrapeThumbnail(s *goquery.Selection) string {
	src := s.Find("a.thumbnail img").First().AttrOr("src", "")
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	return cleanThumbnail(src)
}

// cleanThumbnail drops reddit's placeholder thumbnail markers.
func cleanThumbnail(thumb string) string {
	switch thumb {
	case "self", "default", "nsfw", "spoiler", "image":
		return ""
	}
	return thumb
}
