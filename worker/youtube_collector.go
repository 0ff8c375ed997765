package worker

import (
	"context"
	"log/slog"
	"time"

	"gamedigest/internal/model"
	"gamedigest/internal/storage"
	"gamedigest/internal/youtube"
)

// YouTubeCollector runs each topic's keyword searches and stores fresh
// videos into period ZSETs. Topics without keywords are skipped.
type YouTubeCollector struct {
	Client     *youtube.Client
	Store      *storage.RedisStore
	Topics     []TopicSources
	Interval   time.Duration
	MaxResults int           // per keyword search
	MaxAge     time.Duration // also bounds the search publishedAfter filter
}

func (w *YouTubeCollector) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}
	if w.MaxResults <= 0 {
		w.MaxResults = 10
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

func (w *YouTubeCollector) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	day := PeriodKey("daily", now)
	week := PeriodKey("weekly", now)
	var publishedAfter time.Time
	if w.MaxAge > 0 {
		publishedAfter = now.Add(-w.MaxAge)
	}
	for _, t := range w.Topics {
		if len(t.Keywords) == 0 {
			continue
		}
		// The same video often matches several of a topic's keywords.
		seen := make(map[string]struct{})
		stored := 0
		for _, kw := range t.Keywords {
			videos, err := w.Client.TopVideos(ctx, kw, publishedAfter, w.MaxResults)
			if err != nil {
				slog.Error("youtube collector: search error", "topic", t.Topic, "query", kw, "error", err)
				continue
			}
			for _, v := range videos {
				if _, ok := seen[v.ID]; ok {
					continue
				}
				seen[v.ID] = struct{}{}
				if tooOld(v.PublishedAt, w.MaxAge) {
					continue
				}
				rec := model.RawRecord{Topic: t.Topic, Kind: model.KindVideo, Video: &v}
				if err := w.Store.AddRecord(ctx, day, rec); err != nil {
					slog.Error("youtube collector: store error", "id", v.ID, "error", err)
					continue
				}
				if err := w.Store.AddRecord(ctx, week, rec); err != nil {
					slog.Error("youtube collector: store error", "id", v.ID, "error", err)
					continue
				}
				stored++
			}
		}
		slog.Info("youtube collector: completed for topic",
			"topic", t.Topic, "stored", stored, "periods", []string{day, week})
	}
}
