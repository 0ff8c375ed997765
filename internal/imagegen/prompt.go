package imagegen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PromptData contains inputs for building a digest cover prompt.
type PromptData struct {
	Game        string
	Date        string // YYYY-MM-DD
	Headlines   []string
	Language    string
	AspectRatio string
}

const defaultPrompt = `Create a bold, modern cover image for a gaming news digest.

Requirements:
- Game: %s.
- Date: %s.
- Aspect ratio: %s.
- Language for any text: %s.
- Theme the artwork around: %s.
- Style: stylized key art, dramatic lighting, strong silhouettes, no real logos, no watermarks.
- Keep text minimal and clearly legible.`

// BuildCoverPrompt builds a prompt from data, using template if provided.
// Template variables: {Game}, {Date}, {Headlines}, {Language}, {AspectRatio}
func BuildCoverPrompt(d PromptData, template string) string {
	game := strings.TrimSpace(d.Game)
	if game == "" {
		game = "Gaming"
	}
	date := strings.TrimSpace(d.Date)
	if date == "" {
		date = "today"
	}
	lang := strings.TrimSpace(d.Language)
	if lang == "" {
		lang = "English"
	}
	aspect := strings.TrimSpace(d.AspectRatio)
	if aspect == "" {
		aspect = "16:9"
	}
	hl := strings.Join(cleanHeadlines(d.Headlines, 5, 80), "; ")
	if hl == "" {
		hl = "the day's top stories"
	}

	if strings.TrimSpace(template) == "" {
		return fmt.Sprintf(defaultPrompt, game, date, aspect, lang, hl)
	}
	replacer := strings.NewReplacer(
		"{Game}", game,
		"{Date}", date,
		"{Headlines}", hl,
		"{Language}", lang,
		"{AspectRatio}", aspect,
	)
	return replacer.Replace(template)
}

func cleanHeadlines(items []string, maxItems, maxLen int) []string {
	out := make([]string, 0, min(len(items), maxItems))
	for _, it := range items {
		t := strings.TrimSpace(it)
		if t == "" {
			continue
		}
		if maxLen > 0 && utf8.RuneCountInString(t) > maxLen {
			t = truncateRunes(t, maxLen-3) + "..."
		}
		out = append(out, t)
		if len(out) >= maxItems {
			break
		}
	}
	return out
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
