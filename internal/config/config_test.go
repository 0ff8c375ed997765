package config

import "testing"

func TestFillDefaults(t *testing.T) {
	var c Config
	c.FillDefaults()

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"app.log_level", c.App.LogLevel, "info"},
		{"redis.addr", c.Redis.Addr, "127.0.0.1:6379"},
		{"reddit.base_url", c.Sources.Reddit.BaseURL, "https://www.reddit.com"},
		{"reddit.scrape_url", c.Sources.Reddit.ScrapeURL, "https://old.reddit.com"},
		{"reddit.fetch_interval", c.Sources.Reddit.FetchInterval, "15m"},
		{"reddit.limit", c.Sources.Reddit.Limit, 25},
		{"youtube.fetch_interval", c.Sources.YouTube.FetchInterval, "30m"},
		{"youtube.max_results", c.Sources.YouTube.MaxResults, 10},
		{"news.fetch_interval", c.Sources.News.FetchInterval, "20m"},
		{"sources.max_age", c.Sources.MaxAge, "168h"},
		{"digests.frequency", c.Digests.Frequency, "daily"},
		{"digests.top_n", c.Digests.TopN, 5},
		{"digests.min_items", c.Digests.MinItems, 2},
		{"digests.output_dir", c.Digests.OutputDir, "./out"},
		{"digests.item_skip_duration", c.Digests.ItemSkipDuration, "72h"},
		{"discord.username", c.Discord.Username, "Game Digest"},
		{"discord.max_retries", c.Discord.MaxRetries, 3},
		{"discord.retry_delay", c.Discord.RetryDelay, "5s"},
		{"openai.model", c.OpenAI.Model, "gpt-4o-mini"},
	}
	for _, ck := range checks {
		if ck.got != ck.want {
			t.Errorf("%s = %v, want %v", ck.name, ck.got, ck.want)
		}
	}
}

func TestFillDefaultsTopicInheritance(t *testing.T) {
	c := Config{
		Digests: DigestsConfig{
			Frequency: "weekly",
			TopN:      7,
			MinItems:  3,
			Topics: []TopicConfig{
				{Name: "battlefield6"},
				{Name: "arcraiders", Title: "Arc Raiders", Frequency: "daily", TopN: 4, MinItems: 1, Language: "de"},
			},
		},
	}
	c.FillDefaults()

	inherited := c.Digests.Topics[0]
	if inherited.Title != "battlefield6" {
		t.Errorf("title = %q, want the topic name as fallback", inherited.Title)
	}
	if inherited.Frequency != "weekly" || inherited.TopN != 7 || inherited.MinItems != 3 {
		t.Errorf("topic did not inherit digest defaults: %+v", inherited)
	}
	if inherited.Language != "en" {
		t.Errorf("language = %q, want en", inherited.Language)
	}

	explicit := c.Digests.Topics[1]
	if explicit.Title != "Arc Raiders" || explicit.Frequency != "daily" || explicit.TopN != 4 || explicit.MinItems != 1 || explicit.Language != "de" {
		t.Errorf("explicit topic values overwritten: %+v", explicit)
	}
}

func TestFillDefaultsKeepsExplicitValues(t *testing.T) {
	c := Config{
		App:   AppConfig{LogLevel: "debug"},
		Redis: RedisConfig{Addr: "redis.internal:6380"},
		Sources: DataSources{
			Reddit: RedditConfig{Limit: 50},
			MaxAge: "24h",
		},
	}
	c.FillDefaults()

	if c.App.LogLevel != "debug" {
		t.Errorf("log_level = %q", c.App.LogLevel)
	}
	if c.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis addr = %q", c.Redis.Addr)
	}
	if c.Sources.Reddit.Limit != 50 {
		t.Errorf("reddit limit = %d", c.Sources.Reddit.Limit)
	}
	if c.Sources.MaxAge != "24h" {
		t.Errorf("max_age = %q", c.Sources.MaxAge)
	}
}
