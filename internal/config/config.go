package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RedditConfig controls the subreddit collector.
type RedditConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ScrapeURL     string `mapstructure:"scrape_url"`
	UserAgent     string `mapstructure:"user_agent"`
	FetchInterval string `mapstructure:"fetch_interval"` // duration string, e.g., "15m"
	Limit         int    `mapstructure:"limit"`          // posts per subreddit per fetch
}

// YouTubeConfig controls the video collector. An empty APIKey disables it.
type YouTubeConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	FetchInterval string `mapstructure:"fetch_interval"`
	MaxResults    int    `mapstructure:"max_results"` // per keyword search
}

// NewsConfig controls the outlet feed collector. Feeds maps an outlet name
// to its RSS URL; entries land on every topic whose keywords match.
type NewsConfig struct {
	UserAgent     string            `mapstructure:"user_agent"`
	FetchInterval string            `mapstructure:"fetch_interval"`
	Feeds         map[string]string `mapstructure:"feeds"`
}

// DataSources groups available collectors. MaxAge drops fetched content
// older than the given duration before it is stored.
type DataSources struct {
	Reddit  RedditConfig  `mapstructure:"reddit"`
	YouTube YouTubeConfig `mapstructure:"youtube"`
	News    NewsConfig    `mapstructure:"news"`
	MaxAge  string        `mapstructure:"max_age"`
}

// PipelineConfig tunes deduplication, ranking, and selection. Durations are
// strings ("48h"); zero values fall back to the built-in defaults.
type PipelineConfig struct {
	SimilarityThreshold float64            `mapstructure:"similarity_threshold"`
	DuplicateWindow     string             `mapstructure:"duplicate_window"`
	TierWeight          float64            `mapstructure:"tier_weight"`
	RecencyWeight       float64            `mapstructure:"recency_weight"`
	EngagementWeight    float64            `mapstructure:"engagement_weight"`
	FreshWindow         string             `mapstructure:"fresh_window"`
	StaleWindow         string             `mapstructure:"stale_window"`
	RecencyFloor        float64            `mapstructure:"recency_floor"`
	UnknownRecency      float64            `mapstructure:"unknown_recency"`
	EngagementMaxima    map[string]float64 `mapstructure:"engagement_maxima"` // source kind → reference max
	ViralThresholds     map[string]int64   `mapstructure:"viral_thresholds"`  // source kind → highlight cutoff
	MajorOutlets        []string           `mapstructure:"major_outlets"`
	KindCap             int                `mapstructure:"kind_cap"`
}

// DigestsConfig controls digest building and delivery cadence.
type DigestsConfig struct {
	Frequency        string        `mapstructure:"frequency"` // default frequency
	TopN             int           `mapstructure:"top_n"`     // default top N
	MinItems         int           `mapstructure:"min_items"` // default min items
	OutputDir        string        `mapstructure:"output_dir"`
	ItemSkipDuration string        `mapstructure:"item_skip_duration"` // e.g., "72h"
	Topics           []TopicConfig `mapstructure:"topics"`
}

// TopicConfig defines one tracked game or catch-all topic. A topic with no
// keywords takes every outlet entry, which is how a trending topic is set
// up.
type TopicConfig struct {
	Name          string            `mapstructure:"name"`  // key, e.g., battlefield6
	Title         string            `mapstructure:"title"` // display name for digests
	Keywords      []string          `mapstructure:"keywords"`
	Subreddits    []string          `mapstructure:"subreddits"`
	OfficialFeeds map[string]string `mapstructure:"official_feeds"` // source name → feed URL
	Frequency     string            `mapstructure:"frequency"`      // overrides default
	TopN          int               `mapstructure:"top_n"`
	MinItems      int               `mapstructure:"min_items"`
	Language      string            `mapstructure:"language"`
	Intro         string            `mapstructure:"intro"`        // optional opening text, supports vars
	Footer        string            `mapstructure:"footer"`       // optional closing text, supports vars
	CoverPrompt   string            `mapstructure:"cover_prompt"` // optional cover art direction
}

// DiscordConfig holds webhook delivery settings.
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Username   string `mapstructure:"username"`
	MaxRetries int    `mapstructure:"max_retries"`
	RetryDelay string `mapstructure:"retry_delay"` // duration string, e.g., "5s"
}

// OpenAIConfig holds summarizer settings. An empty APIKey disables AI
// intros.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// SusanooConfig holds cover image generation settings.
type SusanooConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	AspectRatio string `mapstructure:"aspect_ratio"`
	Timeout     string `mapstructure:"timeout"`
	WebPQuality int    `mapstructure:"webp_quality"`
}

// CloudflareConfig holds browser-rendering scrape settings, used to pull
// article bodies for AI summaries.
type CloudflareConfig struct {
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
}

// Config is the top-level configuration structure.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Sources    DataSources      `mapstructure:"sources"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Digests    DigestsConfig    `mapstructure:"digests"`
	Discord    DiscordConfig    `mapstructure:"discord"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Susanoo    SusanooConfig    `mapstructure:"susanoo"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Sources.Reddit.BaseURL == "" {
		c.Sources.Reddit.BaseURL = "https://www.reddit.com"
	}
	if c.Sources.Reddit.ScrapeURL == "" {
		c.Sources.Reddit.ScrapeURL = "https://old.reddit.com"
	}
	if c.Sources.Reddit.FetchInterval == "" {
		c.Sources.Reddit.FetchInterval = "15m"
	}
	if c.Sources.Reddit.Limit == 0 {
		c.Sources.Reddit.Limit = 25
	}
	if c.Sources.YouTube.FetchInterval == "" {
		c.Sources.YouTube.FetchInterval = "30m"
	}
	if c.Sources.YouTube.MaxResults == 0 {
		c.Sources.YouTube.MaxResults = 10
	}
	if c.Sources.News.FetchInterval == "" {
		c.Sources.News.FetchInterval = "20m"
	}
	if c.Sources.MaxAge == "" {
		c.Sources.MaxAge = "168h" // one week
	}
	if c.Digests.Frequency == "" {
		c.Digests.Frequency = "daily"
	}
	if c.Digests.TopN == 0 {
		c.Digests.TopN = 5
	}
	if c.Digests.MinItems == 0 {
		c.Digests.MinItems = 2
	}
	if c.Digests.OutputDir == "" {
		c.Digests.OutputDir = "./out"
	}
	if c.Digests.ItemSkipDuration == "" {
		c.Digests.ItemSkipDuration = "72h"
	}
	if c.Discord.Username == "" {
		c.Discord.Username = "Game Digest"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Discord.MaxRetries == 0 {
		c.Discord.MaxRetries = 3
	}
	if c.Discord.RetryDelay == "" {
		c.Discord.RetryDelay = "5s"
	}
	// Fill topic defaults
	for i := range c.Digests.Topics {
		tc := &c.Digests.Topics[i]
		if tc.Title == "" {
			tc.Title = tc.Name
		}
		if tc.Frequency == "" {
			tc.Frequency = c.Digests.Frequency
		}
		if tc.TopN == 0 {
			tc.TopN = c.Digests.TopN
		}
		if tc.MinItems == 0 {
			tc.MinItems = c.Digests.MinItems
		}
		if tc.Language == "" {
			tc.Language = "en"
		}
	}
}
