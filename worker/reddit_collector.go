package worker

import (
	"context"
	"log/slog"
	"time"

	"gamedigest/internal/model"
	"gamedigest/internal/reddit"
	"gamedigest/internal/storage"
)

// RedditCollector polls subreddit hot listings per topic and stores fresh
// posts into period ZSETs.
type RedditCollector struct {
	Client   *reddit.Client
	Store    *storage.RedisStore
	Topics   []TopicSources
	Interval time.Duration
	Limit    int           // posts per subreddit per fetch
	MaxAge   time.Duration // drop posts older than this, 0 keeps everything
}

func (w *RedditCollector) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 15 * time.Minute
	}
	if w.Limit <= 0 {
		w.Limit = 25
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

func (w *RedditCollector) runOnce(ctx context.Context) {
	// Collector writes into both daily and weekly periods.
	day := PeriodKey("daily", time.Now().UTC())
	week := PeriodKey("weekly", time.Now().UTC())
	for _, t := range w.Topics {
		for _, sub := range t.Subreddits {
			posts := w.fetch(ctx, sub)
			stored := 0
			for _, p := range posts {
				if tooOld(p.CreatedAt, w.MaxAge) {
					continue
				}
				rec := model.RawRecord{Topic: t.Topic, Kind: model.KindCommunity, Post: &p}
				if err := w.Store.AddRecord(ctx, day, rec); err != nil {
					slog.Error("reddit collector: store error", "id", p.ID, "error", err)
					continue
				}
				if err := w.Store.AddRecord(ctx, week, rec); err != nil {
					slog.Error("reddit collector: store error", "id", p.ID, "error", err)
					continue
				}
				stored++
			}
			slog.Info("reddit collector: completed for subreddit",
				"topic", t.Topic, "subreddit", sub, "stored", stored, "periods", []string{day, week})
		}
	}
}

// fetch tries the JSON listing first, then the RSS feed, then the old-web
// scrape.
func (w *RedditCollector) fetch(ctx context.Context, subreddit string) []model.RedditPost {
	posts, err := w.Client.TopPosts(ctx, subreddit, w.Limit)
	if err == nil && len(posts) > 0 {
		return posts
	}
	if err != nil {
		slog.Warn("reddit collector: listing failed, trying rss", "subreddit", subreddit, "error", err)
	}
	posts, err = w.Client.HotPosts(ctx, subreddit, w.Limit)
	if err == nil && len(posts) > 0 {
		return posts
	}
	if err != nil {
		slog.Warn("reddit collector: rss failed, trying scrape", "subreddit", subreddit, "error", err)
	}
	posts, err = w.Client.ScrapeHot(ctx, subreddit, w.Limit)
	if err != nil {
		slog.Error("reddit collector: all fetch paths failed", "subreddit", subreddit, "error", err)
		return nil
	}
	return posts
}
