package newsfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"gamedigest/internal/model"
)

const maxBodyBytes = 5 * 1024 * 1024

// Client fetches RSS and Atom feeds from gaming news sites and official
// game blogs. One client serves any number of feeds; the feed URL and the
// outlet name it is filed under come from configuration.
type Client struct {
	userAgent string
	client    *http.Client
}

func NewClient(userAgent string) *Client {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "gamedigest/1.0"
	}
	return &Client{
		userAgent: userAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads one feed and maps its items to entries filed under the
// outlet name. Items without a title or link are dropped; a missing
// publication date becomes the zero time, which the ranker treats as
// unknown rather than fresh.
func (c *Client) Fetch(ctx context.Context, outlet, feedURL string) ([]model.FeedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("newsfeed: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsfeed: get %s: %w", outlet, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsfeed: %s status %d", outlet, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("newsfeed: read %s: %w", outlet, err)
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("newsfeed: parse %s: %w", outlet, err)
	}

	entries := make([]model.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		var published time.Time
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC()
		}
		entries = append(entries, model.FeedEntry{
			GUID:        guid,
			Title:       item.Title,
			Link:        item.Link,
			Outlet:      outlet,
			PublishedAt: published,
			Thumbnail:   itemThumbnail(item),
			Summary:     cleanSummary(item.Description),
		})
	}
	return entries, nil
}

// MatchesKeywords reports whether an entry's title or summary mentions any
// of the keywords, casefolded. An empty keyword list matches everything,
// which is how a catch-all trending topic is configured.
func MatchesKeywords(e model.FeedEntry, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	content := strings.ToLower(e.Title + " " + e.Summary)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

// itemThumbnail looks for artwork in the usual places: the item image,
// image enclosures, then the media RSS extension many gaming outlets use.
func itemThumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"thumbnail", "content"} {
			for _, e := range media[key] {
				if u := e.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	return ""
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// cleanSummary strips markup from a feed summary and caps its length so
// downstream prompts and message payloads stay small.
func cleanSummary(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	replacer := strings.NewReplacer(
		"&quot;", "\"",
		"&apos;", "'",
		"&#39;", "'",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&nbsp;", " ",
	)
	s = strings.TrimSpace(replacer.Replace(s))
	const maxSummary = 300
	if len(s) <= maxSummary {
		return s
	}
	cut := s[:maxSummary]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
