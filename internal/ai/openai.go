package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gamedigest/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer defines the AI summary interface used by the digest builder
// and commands.
type Summarizer interface {
	// SummarizeItem creates a concise 1-2 sentence description for an item in the given language.
	SummarizeItem(ctx context.Context, title, content, language string) (string, error)
	// SummarizeDigest creates a short opening paragraph for a topic digest in the given language.
	SummarizeDigest(ctx context.Context, topic string, items []model.ContentItem, language string) (string, error)
}

const (
	itemTimeout   = 120 * time.Second
	digestTimeout = 300 * time.Second

	// maxContentRunes bounds the article text sent per item so a scraped
	// page does not blow the token budget.
	maxContentRunes = 1000

	// maxDigestItems bounds how many headlines feed the intro prompt.
	maxDigestItems = 10
)

// OpenAIClient implements Summarizer using OpenAI Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

func NewOpenAI(cfg Config) *OpenAIClient {
	if cfg.Model == "" {
		panic("OpenAI model must be specified")
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cc), model: cfg.Model}
}

func (o *OpenAIClient) SummarizeItem(ctx context.Context, title, content, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, itemTimeout)
	defer cancel()

	body := clampRunes(strings.TrimSpace(content), maxContentRunes)
	if body == "" {
		body = title
	}
	sys := fmt.Sprintf(
		"You summarize gaming news for a digest, writing in %s. "+
			"Return 1-2 sentences (under 60 words) saying what changed and why players care. "+
			"Plain text only, no links, no markdown.",
		languageName(language))
	out, err := o.chat(ctx, sys, fmt.Sprintf("Title: %s\nContent: %s", title, body))
	if err != nil {
		slog.Warn("openai: item summary failed", "title", title, "err", err)
		return "", err
	}
	return out, nil
}

func (o *OpenAIClient) SummarizeDigest(ctx context.Context, topic string, items []model.ContentItem, language string) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, digestTimeout)
	defer cancel()

	sys := fmt.Sprintf(
		"You write the opening of a gaming news digest in %s. "+
			"Return 2-4 sentences (40-120 words) tying together the day's main storylines. "+
			"Write for players who follow the game closely. "+
			"Plain text only, no links, no markdown headings.",
		languageName(language))
	user := fmt.Sprintf(
		"Game: %s\nToday's top items (title and source):\n%s\nTask: Write the digest opening. Output the opening only.",
		topic, headlineList(items))
	out, err := o.chat(ctx, sys, user)
	if err != nil {
		slog.Warn("openai: digest intro failed", "topic", topic, "err", err)
		return "", err
	}
	return out, nil
}

func (o *OpenAIClient) chat(ctx context.Context, system, user string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, digestTimeout)
		defer cancel()
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// headlineList renders the ranked items as prompt bullet lines, capped so
// long digests do not inflate the request.
func headlineList(items []model.ContentItem) string {
	var b strings.Builder
	for i, it := range items {
		if i == maxDigestItems {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", it.Title, it.Source)
	}
	return b.String()
}

func clampRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func languageName(lang string) string {
	if l := strings.TrimSpace(lang); l != "" {
		return l
	}
	return "English"
}
