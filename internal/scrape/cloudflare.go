package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CloudflareClient calls Cloudflare Browser Rendering REST API.
// See: https://developers.cloudflare.com/browser-rendering/rest-api/
type CloudflareClient struct {
	baseURL string
	token   string
	http    *http.Client
}

type markdownRequest struct {
	URL                  string   `json:"url"`
	RejectRequestPattern []string `json:"rejectRequestPattern,omitempty"`
}

type markdownResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Errors  any    `json:"errors"`
}

// NewCloudflare creates a new client from an account ID.
// Endpoint: https://api.cloudflare.com/client/v4/accounts/<ACCOUNT_ID>/browser-rendering/markdown
func NewCloudflare(accountID, token string, timeout time.Duration) *CloudflareClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	baseURL := fmt.Sprintf("https://api.cloudflare.com/client/v4/accounts/%s/browser-rendering/markdown", strings.TrimSpace(accountID))
	return &CloudflareClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Scrape fetches an article as markdown and returns its title and content.
// Used to fill empty item bodies before summarization.
func (c *CloudflareClient) Scrape(ctx context.Context, u string) (title, content string, err error) {
	if c == nil {
		return "", "", errors.New("nil cloudflare client")
	}
	if _, err := url.ParseRequestURI(u); err != nil {
		return "", "", fmt.Errorf("invalid url: %w", err)
	}
	body, _ := json.Marshal(markdownRequest{
		URL:                  u,
		RejectRequestPattern: []string{"/^.*\\.(css)/"},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("cloudflare scrape failed: status=%d body=%s", resp.StatusCode, string(b))
	}
	var envelope markdownResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", "", err
	}
	return firstHeading(envelope.Result), envelope.Result, nil
}

// firstHeading returns the text of the highest-level markdown heading,
// taking the earliest when several share a level.
func firstHeading(md string) string {
	best := ""
	bestLevel := 0
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		level := len(line) - len(strings.TrimLeft(line, "#"))
		if best == "" || level < bestLevel {
			best = strings.TrimSpace(strings.TrimLeft(line, "#"))
			bestLevel = level
		}
		if bestLevel == 1 {
			break
		}
	}
	return best
}
