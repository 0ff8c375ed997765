package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gamedigest/internal/ai"
	"gamedigest/internal/config"
	"gamedigest/internal/discord"
	"gamedigest/internal/imagegen"
	"gamedigest/internal/model"
	"gamedigest/internal/newsfeed"
	"gamedigest/internal/pipeline"
	"gamedigest/internal/reddit"
	"gamedigest/internal/redisclient"
	"gamedigest/internal/scrape"
	"gamedigest/internal/storage"
	"gamedigest/internal/youtube"
	"gamedigest/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collectors and digest builders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		if _, _, err := redisclient.Check(context.Background(), rdb); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		store := storage.NewRedisStore(rdb)

		topics, err := topicSources(cfg)
		if err != nil {
			return err
		}

		maxAge, err := time.ParseDuration(cfg.Sources.MaxAge)
		if err != nil {
			return fmt.Errorf("invalid sources.max_age: %w", err)
		}

		var haveSubreddits, haveKeywords, haveOfficial bool
		for _, t := range topics {
			if len(t.Subreddits) > 0 {
				haveSubreddits = true
			}
			if len(t.Keywords) > 0 {
				haveKeywords = true
			}
			if len(t.OfficialFeeds) > 0 {
				haveOfficial = true
			}
		}

		var ws []worker.Worker

		if haveSubreddits {
			interval, err := time.ParseDuration(cfg.Sources.Reddit.FetchInterval)
			if err != nil {
				return fmt.Errorf("invalid sources.reddit.fetch_interval: %w", err)
			}
			rc := reddit.NewClient(cfg.Sources.Reddit.BaseURL, cfg.Sources.Reddit.ScrapeURL, cfg.Sources.Reddit.UserAgent)
			ws = append(ws, &worker.RedditCollector{
				Client:   rc,
				Store:    store,
				Topics:   topics,
				Interval: interval,
				Limit:    cfg.Sources.Reddit.Limit,
				MaxAge:   maxAge,
			})
			slog.Info("starting reddit collector", "topics", len(topics))
		}

		if cfg.Sources.YouTube.APIKey != "" && haveKeywords {
			interval, err := time.ParseDuration(cfg.Sources.YouTube.FetchInterval)
			if err != nil {
				return fmt.Errorf("invalid sources.youtube.fetch_interval: %w", err)
			}
			yc := youtube.NewClient(cfg.Sources.YouTube.BaseURL, cfg.Sources.YouTube.APIKey)
			ws = append(ws, &worker.YouTubeCollector{
				Client:     yc,
				Store:      store,
				Topics:     topics,
				Interval:   interval,
				MaxResults: cfg.Sources.YouTube.MaxResults,
				MaxAge:     maxAge,
			})
			slog.Info("starting youtube collector")
		}

		if len(cfg.Sources.News.Feeds) > 0 || haveOfficial {
			interval, err := time.ParseDuration(cfg.Sources.News.FetchInterval)
			if err != nil {
				return fmt.Errorf("invalid sources.news.fetch_interval: %w", err)
			}
			nc := newsfeed.NewClient(cfg.Sources.News.UserAgent)
			ws = append(ws, &worker.FeedCollector{
				Client:   nc,
				Store:    store,
				Outlets:  cfg.Sources.News.Feeds,
				Topics:   topics,
				Interval: interval,
				MaxAge:   maxAge,
			})
			slog.Info("starting feed collector", "outlets", len(cfg.Sources.News.Feeds))
		}

		pipeCfg, err := pipelineConfig(cfg.Pipeline)
		if err != nil {
			return err
		}
		pipeCfg.TopN = cfg.Digests.TopN

		skipDur, err := time.ParseDuration(cfg.Digests.ItemSkipDuration)
		if err != nil {
			return fmt.Errorf("invalid digests.item_skip_duration: %w", err)
		}

		summarizer := buildSummarizer(cfg)
		scraper := buildScraper(cfg)
		coverGen, err := buildCoverGen(cfg)
		if err != nil {
			return err
		}
		webhook, err := buildWebhook(cfg)
		if err != nil {
			return err
		}

		// One builder per frequency; topics share a builder's tick.
		byFreq := map[string][]worker.DigestTopic{}
		for _, tc := range cfg.Digests.Topics {
			freq := strings.ToLower(tc.Frequency)
			byFreq[freq] = append(byFreq[freq], digestTopic(tc))
		}
		for freq, dts := range byFreq {
			ws = append(ws, &worker.DigestBuilder{
				Store:        store,
				Pipeline:     pipeCfg,
				Topics:       dts,
				Frequency:    freq,
				Interval:     30 * time.Minute,
				OutputDir:    cfg.Digests.OutputDir,
				Webhook:      webhook,
				Summarizer:   summarizer,
				CoverGen:     coverGen,
				Scraper:      scraper,
				AspectRatio:  cfg.Susanoo.AspectRatio,
				SkipDuration: skipDur,
			})
			slog.Info("starting digest builder", "frequency", freq, "topics", len(dts))
		}

		mgr := worker.NewManager(ws...)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		if err := mgr.Start(ctx); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// Shared construction helpers for serve and the one-shot digest command.

// topicSources maps configured topics to collector inputs. A topic with no
// subreddits, keywords, or official feeds still receives every outlet entry
// (empty keywords match all), so it is rejected only when no outlet feeds
// exist either.
func topicSources(cfg config.Config) ([]worker.TopicSources, error) {
	if len(cfg.Digests.Topics) == 0 {
		return nil, fmt.Errorf("no topics configured: set digests.topics in config.yaml")
	}
	out := make([]worker.TopicSources, 0, len(cfg.Digests.Topics))
	for _, tc := range cfg.Digests.Topics {
		name := strings.TrimSpace(tc.Name)
		if name == "" {
			return nil, fmt.Errorf("topic with empty name in digests.topics")
		}
		if len(tc.Subreddits) == 0 && len(tc.Keywords) == 0 && len(tc.OfficialFeeds) == 0 && len(cfg.Sources.News.Feeds) == 0 {
			return nil, fmt.Errorf("topic %s has no content sources: set subreddits, keywords, or official_feeds", name)
		}
		out = append(out, worker.TopicSources{
			Topic:         model.Topic(name),
			Subreddits:    tc.Subreddits,
			Keywords:      tc.Keywords,
			OfficialFeeds: tc.OfficialFeeds,
		})
	}
	return out, nil
}

func digestTopic(tc config.TopicConfig) worker.DigestTopic {
	return worker.DigestTopic{
		Topic:       model.Topic(tc.Name),
		Title:       tc.Title,
		TopN:        tc.TopN,
		MinItems:    tc.MinItems,
		Language:    tc.Language,
		Intro:       tc.Intro,
		Footer:      tc.Footer,
		CoverPrompt: tc.CoverPrompt,
	}
}

// pipelineConfig overlays configured values onto the built-in defaults.
func pipelineConfig(pc config.PipelineConfig) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if pc.SimilarityThreshold > 0 {
		cfg.SimilarityThreshold = pc.SimilarityThreshold
	}
	if pc.TierWeight > 0 {
		cfg.TierWeight = pc.TierWeight
	}
	if pc.RecencyWeight > 0 {
		cfg.RecencyWeight = pc.RecencyWeight
	}
	if pc.EngagementWeight > 0 {
		cfg.EngagementWeight = pc.EngagementWeight
	}
	if pc.RecencyFloor > 0 {
		cfg.RecencyFloor = pc.RecencyFloor
	}
	if pc.UnknownRecency > 0 {
		cfg.UnknownRecency = pc.UnknownRecency
	}
	if pc.KindCap > 0 {
		cfg.KindCap = pc.KindCap
	}
	if len(pc.MajorOutlets) > 0 {
		cfg.MajorOutlets = pc.MajorOutlets
	}
	if strings.TrimSpace(pc.DuplicateWindow) != "" {
		d, err := time.ParseDuration(pc.DuplicateWindow)
		if err != nil {
			return cfg, fmt.Errorf("invalid pipeline.duplicate_window: %w", err)
		}
		cfg.DuplicateWindow = d
	}
	if strings.TrimSpace(pc.FreshWindow) != "" {
		d, err := time.ParseDuration(pc.FreshWindow)
		if err != nil {
			return cfg, fmt.Errorf("invalid pipeline.fresh_window: %w", err)
		}
		cfg.FreshWindow = d
	}
	if strings.TrimSpace(pc.StaleWindow) != "" {
		d, err := time.ParseDuration(pc.StaleWindow)
		if err != nil {
			return cfg, fmt.Errorf("invalid pipeline.stale_window: %w", err)
		}
		cfg.StaleWindow = d
	}
	if len(pc.EngagementMaxima) > 0 {
		m := make(map[model.SourceKind]float64, len(pc.EngagementMaxima))
		for k, v := range pc.EngagementMaxima {
			kind, err := kindFromName(k)
			if err != nil {
				return cfg, fmt.Errorf("pipeline.engagement_maxima: %w", err)
			}
			m[kind] = v
		}
		cfg.EngagementMaxima = m
	}
	if len(pc.ViralThresholds) > 0 {
		m := make(map[model.SourceKind]int64, len(pc.ViralThresholds))
		for k, v := range pc.ViralThresholds {
			kind, err := kindFromName(k)
			if err != nil {
				return cfg, fmt.Errorf("pipeline.viral_thresholds: %w", err)
			}
			m[kind] = v
		}
		cfg.ViralThresholds = m
	}
	return cfg, nil
}

// kindFromName resolves config keys to source kinds, accepting shorthand.
func kindFromName(s string) (model.SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "official":
		return model.KindOfficial, nil
	case "news_outlet", "news":
		return model.KindNewsOutlet, nil
	case "community_discussion", "community":
		return model.KindCommunity, nil
	case "video":
		return model.KindVideo, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

func buildSummarizer(cfg config.Config) ai.Summarizer {
	if cfg.OpenAI.APIKey == "" {
		return nil
	}
	return ai.NewOpenAI(ai.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, BaseURL: cfg.OpenAI.BaseURL})
}

func buildScraper(cfg config.Config) *scrape.CloudflareClient {
	if strings.TrimSpace(cfg.Cloudflare.AccountID) == "" || strings.TrimSpace(cfg.Cloudflare.APIToken) == "" {
		return nil
	}
	return scrape.NewCloudflare(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken, 20*time.Second)
}

func buildCoverGen(cfg config.Config) (imagegen.Generator, error) {
	if strings.TrimSpace(cfg.Susanoo.BaseURL) == "" || strings.TrimSpace(cfg.Susanoo.APIKey) == "" {
		return nil, nil
	}
	timeout := 30 * time.Second
	if strings.TrimSpace(cfg.Susanoo.Timeout) != "" {
		d, err := time.ParseDuration(cfg.Susanoo.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid susanoo.timeout: %w", err)
		}
		timeout = d
	}
	gen, err := imagegen.NewSusanoo(imagegen.SusanooConfig{
		BaseURL:     cfg.Susanoo.BaseURL,
		APIKey:      cfg.Susanoo.APIKey,
		Model:       cfg.Susanoo.Model,
		AspectRatio: cfg.Susanoo.AspectRatio,
		Timeout:     timeout,
		WebPQuality: cfg.Susanoo.WebPQuality,
	})
	if err != nil || gen == nil {
		return nil, err
	}
	return gen, nil
}

func buildWebhook(cfg config.Config) (*discord.WebhookSender, error) {
	if strings.TrimSpace(cfg.Discord.WebhookURL) == "" {
		return nil, nil
	}
	delay, err := time.ParseDuration(cfg.Discord.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid discord.retry_delay: %w", err)
	}
	return discord.NewWebhookSender(cfg.Discord.WebhookURL, cfg.Discord.Username, cfg.Discord.MaxRetries, delay), nil
}
