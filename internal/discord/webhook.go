package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gamedigest/internal/digest"
)

// Discord rejects messages over 2000 characters.
const maxMessageLen = 2000

const errorColor = 15158332 // red

// WebhookSender posts digest messages to a Discord webhook.
type WebhookSender struct {
	webhookURL string
	username   string
	maxRetries int
	retryDelay time.Duration
	http       *http.Client
}

// NewWebhookSender returns nil when no webhook URL is configured; callers
// treat a nil sender as delivery disabled.
func NewWebhookSender(webhookURL, username string, maxRetries int, retryDelay time.Duration) *WebhookSender {
	if strings.TrimSpace(webhookURL) == "" {
		return nil
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &WebhookSender{
		webhookURL: webhookURL,
		username:   username,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

type payload struct {
	Content  string  `json:"content,omitempty"`
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// FormatDigest builds the message for one topic: a bold heading followed by
// one numbered line per item. Angle brackets around URLs suppress Discord's
// link previews.
func FormatDigest(heading string, items []digest.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", heading)
	if len(items) == 0 {
		b.WriteString("No new content found today. Check back tomorrow!\n")
		return b.String()
	}
	for i, it := range items {
		fmt.Fprintf(&b, "%d. [%s] %s - <%s>\n", i+1, it.Source, it.Title, it.URL)
	}
	return b.String()
}

// SendDigest formats and delivers one topic's item list.
func (s *WebhookSender) SendDigest(ctx context.Context, heading string, items []digest.Item) error {
	return s.Send(ctx, FormatDigest(heading, items))
}

// Send posts raw content, split into multiple messages when it exceeds the
// Discord length limit.
func (s *WebhookSender) Send(ctx context.Context, content string) error {
	if s == nil {
		return errors.New("discord: no webhook configured")
	}
	for _, chunk := range splitMessage(content, maxMessageLen) {
		if err := s.post(ctx, payload{Content: chunk, Username: s.username}); err != nil {
			return err
		}
	}
	return nil
}

// SendFile posts content with a file attached. Content beyond the length
// limit continues in plain follow-up messages.
func (s *WebhookSender) SendFile(ctx context.Context, content, filePath string) error {
	if s == nil {
		return errors.New("discord: no webhook configured")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	chunks := splitMessage(content, maxMessageLen)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	meta, err := json.Marshal(payload{Content: chunks[0], Username: s.username})
	if err != nil {
		return err
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("payload_json", string(meta)); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("files[0]", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	bodyBytes := body.Bytes()
	contentType := writer.FormDataContentType()
	err = s.postWithRetry(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return s.http.Do(req)
	})
	if err != nil {
		return err
	}
	for _, chunk := range chunks[1:] {
		if err := s.post(ctx, payload{Content: chunk, Username: s.username}); err != nil {
			return err
		}
	}
	return nil
}

// SendError posts an error notification as a red embed. Best-effort callers
// may ignore the returned error.
func (s *WebhookSender) SendError(ctx context.Context, text string) error {
	if s == nil {
		return errors.New("discord: no webhook configured")
	}
	return s.post(ctx, payload{
		Username: s.username,
		Embeds: []embed{{
			Title:       "Digest Error",
			Description: text,
			Color:       errorColor,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

func (s *WebhookSender) post(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.postWithRetry(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return s.http.Do(req)
	})
}

// postWithRetry runs the request up to maxRetries times. A 429 waits for the
// Retry-After the server asks for; other failures wait the fixed delay.
func (s *WebhookSender) postWithRetry(ctx context.Context, do func(context.Context) (*http.Response, error)) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		wait := s.retryDelay
		resp, err := do(ctx)
		if err != nil {
			lastErr = err
		} else {
			status := resp.StatusCode
			if status >= 200 && status < 300 {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil
			}
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("discord: webhook status=%d body=%s", status, strings.TrimSpace(string(b)))
			if status == http.StatusTooManyRequests {
				if ra := retryAfterDelay(resp.Header.Get("Retry-After")); ra > 0 {
					wait = ra
				}
			}
		}
		if attempt == s.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}

func retryAfterDelay(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// splitMessage breaks content into chunks of at most limit runes, splitting
// on line boundaries. A single line longer than the limit is cut at the
// limit.
func splitMessage(content string, limit int) []string {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return nil
	}
	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, line := range strings.Split(content, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		need := len(runes)
		if curLen > 0 {
			need++ // joining newline
		}
		if curLen+need > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte('\n')
			curLen++
		}
		cur.WriteString(string(runes))
		curLen += len(runes)
	}
	flush()
	return chunks
}
