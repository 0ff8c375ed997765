package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gamedigest/internal/config"
	"gamedigest/internal/digest"
	"gamedigest/internal/model"
	"gamedigest/internal/pipeline"
	"gamedigest/internal/redisclient"
	"gamedigest/internal/storage"
	"gamedigest/worker"

	"github.com/spf13/cobra"
)

var (
	digestForce  bool
	digestStdout bool
)

// digestCmd builds a single digest on demand from already collected records.
var digestCmd = &cobra.Command{
	Use:   "digest <topic>",
	Short: "Build a digest for a topic now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topicName := args[0]
		cfg := GetConfig()

		var tc *config.TopicConfig
		for i := range cfg.Digests.Topics {
			if cfg.Digests.Topics[i].Name == topicName {
				tc = &cfg.Digests.Topics[i]
				break
			}
		}
		if tc == nil {
			return fmt.Errorf("topic not found: %s", topicName)
		}

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		if _, _, err := redisclient.Check(context.Background(), rdb); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		store := storage.NewRedisStore(rdb)

		now := time.Now().UTC()
		freq := strings.ToLower(tc.Frequency)
		period := worker.PeriodKey(freq, now)
		topic := model.Topic(tc.Name)

		ctxLoad, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelLoad()

		if !digestForce {
			published, err := store.IsPublished(ctxLoad, topic, period)
			if err != nil {
				return err
			}
			if published {
				fmt.Fprintf(cmd.OutOrStdout(), "Digest for %s %s already published; use --force to rebuild.\n", topicName, period)
				return nil
			}
		}

		kinds := map[model.SourceKind][]model.RawRecord{}
		for _, kind := range []model.SourceKind{model.KindOfficial, model.KindNewsOutlet, model.KindCommunity, model.KindVideo} {
			recs, err := store.Records(ctxLoad, topic, kind, period, 0)
			if err != nil {
				return err
			}
			if !digestForce {
				kept := make([]model.RawRecord, 0, len(recs))
				for _, r := range recs {
					sent, err := store.IsSent(ctxLoad, topic, r.ID())
					if err != nil {
						slog.Warn("digest: sent-check failed", "id", r.ID(), "err", err)
						continue
					}
					if !sent {
						kept = append(kept, r)
					}
				}
				recs = kept
			}
			if len(recs) > 0 {
				kinds[kind] = recs
			}
		}

		pipeCfg, err := pipelineConfig(cfg.Pipeline)
		if err != nil {
			return err
		}
		if tc.TopN > 0 {
			pipeCfg.TopN = tc.TopN
		}

		digests, report := pipeline.Run(pipeline.Input{topic: kinds}, pipeCfg, now)
		items := digests[topic]
		rep := report.Topics[topic]
		slog.Info("digest: pipeline finished",
			"topic", topicName, "raw", rep.Raw, "malformed", rep.Malformed,
			"canonical", rep.Canonical, "selected", len(items))
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No items found for topic; skipping file creation.")
			return nil
		}
		if len(items) < tc.MinItems {
			fmt.Fprintf(cmd.OutOrStdout(), "Only %d items (< min_items=%d); skipping file creation.\n", len(items), tc.MinItems)
			return nil
		}

		summarizer := buildSummarizer(cfg)
		scraper := buildScraper(cfg)
		// Use a base context; the AI client enforces per-call timeouts.
		ctxAI := context.Background()
		if summarizer != nil {
			for i := range items {
				it := &items[i]
				if strings.TrimSpace(it.Summary) != "" {
					continue
				}
				content := ""
				if scraper != nil && (it.SourceKind == model.KindOfficial || it.SourceKind == model.KindNewsOutlet) {
					ctxReq, cancelReq := context.WithTimeout(context.Background(), 20*time.Second)
					if _, c, err := scraper.Scrape(ctxReq, it.URL); err == nil {
						content = c
					}
					cancelReq()
				}
				if s, err := summarizer.SummarizeItem(ctxAI, it.Title, content, tc.Language); err == nil && s != "" {
					it.Summary = strings.TrimSpace(s)
				}
			}
		}

		label := "Daily"
		if freq == "weekly" {
			label = "Weekly"
		}
		fileName := digest.Filename(freq, now)
		intro := ""
		if strings.TrimSpace(tc.Intro) != "" {
			intro = digest.ExpandVars(tc.Intro, tc.Title, now)
		} else if summarizer != nil {
			if s, err := summarizer.SummarizeDigest(ctxAI, tc.Title, items, tc.Language); err == nil {
				intro = strings.TrimSpace(s)
			}
		}
		nd := digest.Data{
			Title:    fmt.Sprintf("%s %s Digest %s", tc.Title, label, now.Format("2006-01-02")),
			Slug:     strings.TrimSuffix(fileName, ".md"),
			Datetime: now.Format("2006-01-02 15:04"),
			Topic:    tc.Name,
			Period:   period,
			Intro:    intro,
			Footer:   digest.ExpandVars(tc.Footer, tc.Title, now),
			Items:    digest.FromItems(items),
		}
		content, err := digest.Render(nd)
		if err != nil {
			return err
		}
		if !utf8.ValidString(content) {
			content = string([]rune(content))
		}

		if digestStdout {
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		}

		dir := filepath.Join(cfg.Digests.OutputDir, tc.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		outPath := filepath.Join(dir, fileName)
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", outPath)

		if digestForce {
			return nil
		}
		skipDur, err := time.ParseDuration(cfg.Digests.ItemSkipDuration)
		if err != nil {
			return fmt.Errorf("invalid digests.item_skip_duration: %w", err)
		}
		ctxMark, cancelMark := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelMark()
		if err := store.MarkPublished(ctxMark, topic, period); err != nil {
			return err
		}
		for _, it := range items {
			for _, ref := range it.SourceRefs {
				if err := store.MarkSent(ctxMark, topic, ref, skipDur); err != nil {
					slog.Warn("digest: mark sent failed", "id", ref, "err", err)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.Flags().BoolVar(&digestForce, "force", false, "rebuild even if already published, ignoring sent marks")
	digestCmd.Flags().BoolVar(&digestStdout, "stdout", false, "print the digest instead of writing a file")
}
