package worker

import (
	"context"
	"log/slog"
	"time"

	"gamedigest/internal/model"
	"gamedigest/internal/newsfeed"
	"gamedigest/internal/storage"
)

// FeedCollector polls the shared outlet feeds, fanning matching entries out
// to topics, and each topic's official feeds, which are stored wholesale.
type FeedCollector struct {
	Client   *newsfeed.Client
	Store    *storage.RedisStore
	Outlets  map[string]string // outlet name → feed URL
	Topics   []TopicSources
	Interval time.Duration
	MaxAge   time.Duration
}

func (w *FeedCollector) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 20 * time.Minute
	}

	// initial run
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *FeedCollector) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	day := PeriodKey("daily", now)
	week := PeriodKey("weekly", now)
	w.collectOutlets(ctx, day, week)
	w.collectOfficial(ctx, day, week)
}

func (w *FeedCollector) collectOutlets(ctx context.Context, day, week string) {
	for outlet, feedURL := range w.Outlets {
		entries, err := w.Client.Fetch(ctx, outlet, feedURL)
		if err != nil {
			slog.Error("feed collector: outlet fetch error", "outlet", outlet, "error", err)
			continue
		}
		stored := 0
		for _, e := range entries {
			if tooOld(e.PublishedAt, w.MaxAge) {
				continue
			}
			for _, t := range w.Topics {
				if !newsfeed.MatchesKeywords(e, t.Keywords) {
					continue
				}
				rec := model.RawRecord{Topic: t.Topic, Kind: model.KindNewsOutlet, Entry: &e}
				if err := w.Store.AddRecord(ctx, day, rec); err != nil {
					slog.Error("feed collector: store error", "guid", e.GUID, "error", err)
					continue
				}
				if err := w.Store.AddRecord(ctx, week, rec); err != nil {
					slog.Error("feed collector: store error", "guid", e.GUID, "error", err)
					continue
				}
				stored++
			}
		}
		slog.Info("feed collector: completed for outlet",
			"outlet", outlet, "stored", stored, "periods", []string{day, week})
	}
}

func (w *FeedCollector) collectOfficial(ctx context.Context, day, week string) {
	for _, t := range w.Topics {
		for source, feedURL := range t.OfficialFeeds {
			entries, err := w.Client.Fetch(ctx, source, feedURL)
			if err != nil {
				slog.Error("feed collector: official fetch error", "topic", t.Topic, "source", source, "error", err)
				continue
			}
			stored := 0
			for _, e := range entries {
				if tooOld(e.PublishedAt, w.MaxAge) {
					continue
				}
				rec := model.RawRecord{Topic: t.Topic, Kind: model.KindOfficial, Entry: &e}
				if err := w.Store.AddRecord(ctx, day, rec); err != nil {
					slog.Error("feed collector: store error", "guid", e.GUID, "error", err)
					continue
				}
				if err := w.Store.AddRecord(ctx, week, rec); err != nil {
					slog.Error("feed collector: store error", "guid", e.GUID, "error", err)
					continue
				}
				stored++
			}
			slog.Info("feed collector: completed for official feed",
				"topic", t.Topic, "source", source, "stored", stored, "periods", []string{day, week})
		}
	}
}
