package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gamedigest/internal/ai"
	"gamedigest/internal/digest"
	"gamedigest/internal/discord"
	"gamedigest/internal/imagegen"
	"gamedigest/internal/model"
	"gamedigest/internal/pipeline"
	"gamedigest/internal/scrape"
	"gamedigest/internal/storage"
)

// DigestBuilder assembles and delivers digests for the topics sharing one
// frequency. Failures are logged and skipped; the next tick tries again.
type DigestBuilder struct {
	Store        *storage.RedisStore
	Pipeline     pipeline.Config
	Topics       []DigestTopic
	Frequency    string // daily or weekly
	Interval     time.Duration
	OutputDir    string
	Webhook      *discord.WebhookSender
	Summarizer   ai.Summarizer
	CoverGen     imagegen.Generator
	Scraper      *scrape.CloudflareClient
	AspectRatio  string
	SkipDuration time.Duration
}

func (w *DigestBuilder) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}
	for _, t := range w.Topics {
		if err := os.MkdirAll(filepath.Join(w.OutputDir, string(t.Topic)), 0o755); err != nil {
			return err
		}
	}
	// run immediately then on interval
	w.runOnce(ctx)

	tick := time.NewTicker(w.Interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			w.runOnce(ctx)
		}
	}
}

func (w *DigestBuilder) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	period := PeriodKey(w.Frequency, now)
	for _, t := range w.Topics {
		w.buildTopic(ctx, t, period, now)
	}
}

func (w *DigestBuilder) buildTopic(ctx context.Context, t DigestTopic, period string, now time.Time) {
	published, err := w.Store.IsPublished(ctx, t.Topic, period)
	if err != nil {
		log.Printf("builder: check published topic=%s err=%v", t.Topic, err)
		return
	}
	if published {
		return
	}

	kinds, err := w.loadRecords(ctx, t.Topic, period)
	if err != nil {
		log.Printf("builder: load records topic=%s err=%v", t.Topic, err)
		return
	}
	kinds = w.dropSent(ctx, t.Topic, kinds)
	if len(kinds) == 0 {
		return
	}

	cfg := w.Pipeline
	if t.TopN > 0 {
		cfg.TopN = t.TopN
	}
	digests, report := pipeline.Run(pipeline.Input{t.Topic: kinds}, cfg, now)
	items := digests[t.Topic]
	rep := report.Topics[t.Topic]
	if len(items) < t.MinItems {
		log.Printf("builder: topic=%s period=%s selected=%d below min items %d, skipping",
			t.Topic, period, len(items), t.MinItems)
		return
	}

	w.fillSummaries(ctx, t, items)
	entries := digest.FromItems(items)

	md := w.renderMarkdown(t, period, now, items, entries)
	if md == "" {
		return
	}
	path := filepath.Join(w.OutputDir, string(t.Topic), digest.Filename(w.Frequency, now))
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		log.Printf("builder: write file err=%v", err)
		return
	}
	if err := w.Store.MarkPublished(ctx, t.Topic, period); err != nil {
		log.Printf("builder: mark published err=%v", err)
		return
	}
	// Mark every folded-in record so near-term digests skip repeats.
	for _, it := range items {
		for _, ref := range it.SourceRefs {
			if err := w.Store.MarkSent(ctx, t.Topic, ref, w.SkipDuration); err != nil {
				log.Printf("builder: mark sent err id=%s err=%v", ref, err)
			}
		}
	}
	log.Printf("builder: published %s with %d items (raw=%d canonical=%d)",
		path, len(items), rep.Raw, rep.Canonical)

	w.deliver(ctx, t, path, now, items, entries)
}

// loadRecords reads the period's raw records grouped per source kind.
func (w *DigestBuilder) loadRecords(ctx context.Context, topic model.Topic, period string) (map[model.SourceKind][]model.RawRecord, error) {
	kinds := make(map[model.SourceKind][]model.RawRecord)
	for _, kind := range []model.SourceKind{model.KindOfficial, model.KindNewsOutlet, model.KindCommunity, model.KindVideo} {
		recs, err := w.Store.Records(ctx, topic, kind, period, 0)
		if err != nil {
			return nil, err
		}
		if len(recs) > 0 {
			kinds[kind] = recs
		}
	}
	return kinds, nil
}

func (w *DigestBuilder) dropSent(ctx context.Context, topic model.Topic, kinds map[model.SourceKind][]model.RawRecord) map[model.SourceKind][]model.RawRecord {
	out := make(map[model.SourceKind][]model.RawRecord, len(kinds))
	for kind, recs := range kinds {
		kept := make([]model.RawRecord, 0, len(recs))
		for _, r := range recs {
			sent, err := w.Store.IsSent(ctx, topic, r.ID())
			if err != nil {
				log.Printf("builder: sent-check err id=%s err=%v", r.ID(), err)
				continue
			}
			if !sent {
				kept = append(kept, r)
			}
		}
		if len(kept) > 0 {
			out[kind] = kept
		}
	}
	return out
}

// fillSummaries completes missing item summaries, scraping article bodies
// first when a scraper is configured.
func (w *DigestBuilder) fillSummaries(ctx context.Context, t DigestTopic, items []model.ContentItem) {
	if w.Summarizer == nil {
		return
	}
	for i := range items {
		it := &items[i]
		if strings.TrimSpace(it.Summary) != "" {
			continue
		}
		content := ""
		if w.Scraper != nil && (it.SourceKind == model.KindOfficial || it.SourceKind == model.KindNewsOutlet) {
			if _, c, err := w.Scraper.Scrape(ctx, it.URL); err == nil {
				content = c
			} else {
				log.Printf("builder: scrape err url=%s err=%v", it.URL, err)
			}
		}
		// Rely on per-call timeouts inside the AI client.
		if s, err := w.Summarizer.SummarizeItem(context.Background(), it.Title, content, t.Language); err == nil && strings.TrimSpace(s) != "" {
			it.Summary = strings.TrimSpace(s)
		}
	}
}

func (w *DigestBuilder) renderMarkdown(t DigestTopic, period string, now time.Time, items []model.ContentItem, entries []digest.Item) string {
	name := digest.Filename(w.Frequency, now)
	data := digest.Data{
		Title:    fmt.Sprintf("%s %s Digest %s", t.Title, freqLabel(w.Frequency), now.Format("2006-01-02")),
		Slug:     strings.TrimSuffix(name, ".md"),
		Datetime: now.Format("2006-01-02 15:04"),
		Topic:    string(t.Topic),
		Period:   period,
		Intro:    w.intro(t, now, items),
		Footer:   digest.ExpandVars(t.Footer, t.Title, now),
		Items:    entries,
	}
	out, err := digest.Render(data)
	if err != nil {
		log.Printf("builder: render template err=%v", err)
		return ""
	}
	if !utf8.ValidString(out) {
		out = string([]rune(out))
	}
	return out
}

// intro prefers the config-provided text; without one it asks the
// summarizer for an opening.
func (w *DigestBuilder) intro(t DigestTopic, now time.Time, items []model.ContentItem) string {
	if strings.TrimSpace(t.Intro) != "" {
		return digest.ExpandVars(t.Intro, t.Title, now)
	}
	if w.Summarizer == nil {
		return ""
	}
	s, err := w.Summarizer.SummarizeDigest(context.Background(), t.Title, items, t.Language)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (w *DigestBuilder) deliver(ctx context.Context, t DigestTopic, path string, now time.Time, items []model.ContentItem, entries []digest.Item) {
	if w.Webhook == nil {
		return
	}
	heading := fmt.Sprintf("%s - Top %d", t.Title, len(entries))
	msg := discord.FormatDigest(heading, entries)

	coverPath := w.cover(ctx, t, now, items, path)

	var err error
	if coverPath != "" {
		err = w.Webhook.SendFile(ctx, msg, coverPath)
	} else {
		err = w.Webhook.Send(ctx, msg)
	}
	if err != nil {
		log.Printf("builder: discord delivery failed: %v", err)
		if nerr := w.Webhook.SendError(ctx, fmt.Sprintf("Failed to deliver the %s digest for %s: %v", w.Frequency, t.Title, err)); nerr != nil {
			log.Printf("builder: discord error notification failed: %v", nerr)
		}
		return
	}
	log.Printf("builder: discord delivery ok for %s", path)
}

// cover generates the digest cover image next to the markdown file,
// returning its path, or "" when generation is off or failed.
func (w *DigestBuilder) cover(ctx context.Context, t DigestTopic, now time.Time, items []model.ContentItem, mdPath string) string {
	if w.CoverGen == nil {
		return ""
	}
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	prompt := imagegen.BuildCoverPrompt(imagegen.PromptData{
		Game:        t.Title,
		Date:        now.Format("2006-01-02"),
		Headlines:   titles,
		Language:    t.Language,
		AspectRatio: w.AspectRatio,
	}, t.CoverPrompt)
	coverPath := strings.TrimSuffix(mdPath, ".md") + ".webp"
	ctxGen, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := w.CoverGen.GenerateCover(ctxGen, prompt, coverPath); err != nil {
		log.Printf("builder: cover generation failed: %v", err)
		return ""
	}
	return coverPath
}

func freqLabel(freq string) string {
	if strings.EqualFold(freq, "weekly") {
		return "Weekly"
	}
	return "Daily"
}
