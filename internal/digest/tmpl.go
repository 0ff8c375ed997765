package digest

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"gamedigest/internal/model"
)

// Item is one ranked entry rendered into the digest body.
type Item struct {
	Rank      int
	Title     string
	URL       string
	Source    string // display name: subreddit, outlet, channel
	Kind      string // reader-facing label for the source kind
	Published string // formatted timestamp, empty when unknown
	Summary   string
}

// Data carries everything the digest template needs.
type Data struct {
	Title    string
	Slug     string
	Datetime string
	Topic    string
	Period   string
	Intro    string // optional AI or config-provided opening
	Footer   string
	Items    []Item
}

//go:embed digest.tmpl
var digestTpl string

var compiled = template.Must(template.New("digest").Parse(digestTpl))

// Render produces the digest markdown document.
func Render(d Data) (string, error) {
	var buf bytes.Buffer
	if err := compiled.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FromItems converts ranked pipeline output into template entries, assigning
// 1-based ranks in order.
func FromItems(items []model.ContentItem) []Item {
	out := make([]Item, 0, len(items))
	for i, it := range items {
		e := Item{
			Rank:    i + 1,
			Title:   it.Title,
			URL:     it.URL,
			Source:  it.Source,
			Kind:    kindLabel(it.SourceKind),
			Summary: it.Summary,
		}
		if !it.PublishedAt.IsZero() {
			e.Published = it.PublishedAt.UTC().Format("2006-01-02 15:04")
		}
		out = append(out, e)
	}
	return out
}

func kindLabel(k model.SourceKind) string {
	switch k {
	case model.KindOfficial:
		return "Official"
	case model.KindNewsOutlet:
		return "News"
	case model.KindCommunity:
		return "Community"
	case model.KindVideo:
		return "Video"
	default:
		return string(k)
	}
}

// Filename returns the digest file name for a frequency at a given time,
// always "<frequency>-YYYYMMDD.md".
func Filename(frequency string, now time.Time) string {
	return strings.ToLower(frequency) + "-" + now.UTC().Format("20060102") + ".md"
}
