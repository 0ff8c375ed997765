package model

import "time"

// SourceKind categorizes where a raw content item came from.
type SourceKind string

const (
	KindOfficial   SourceKind = "official"
	KindNewsOutlet SourceKind = "news_outlet"
	KindCommunity  SourceKind = "community_discussion"
	KindVideo      SourceKind = "video"
)

// Credibility orders source kinds for merge preference. Higher wins.
func (k SourceKind) Credibility() int {
	switch k {
	case KindOfficial:
		return 4
	case KindNewsOutlet:
		return 3
	case KindVideo:
		return 2
	case KindCommunity:
		return 1
	default:
		return 0
	}
}

// Tier is the coarse priority bucket assigned by the ranker. The zero value
// means the item has not been ranked yet.
type Tier string

const (
	TierOfficialNews       Tier = "official_news"
	TierMajorNews          Tier = "major_news"
	TierCommunityHighlight Tier = "community_highlight"
	TierGeneralDiscussion  Tier = "general_discussion"
)

// Topic identifies one tracked game or category. Content is aggregated and
// ranked per topic; items never cross topics.
type Topic string

// RedditPost is a community discussion thread as fetched from a subreddit
// listing (JSON, RSS, or the old-reddit HTML fallback).
type RedditPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Subreddit string    `json:"subreddit"`
	Author    string    `json:"author,omitempty"`
	Score     int64     `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

// VideoItem is a video with its snippet and view statistics.
type VideoItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	Views        int64     `json:"views"`
	PublishedAt  time.Time `json:"published_at"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// FeedEntry is a single RSS/Atom entry from a news outlet or an official
// publisher feed. A zero PublishedAt means the feed carried no usable date.
type FeedEntry struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Outlet      string    `json:"outlet"`
	PublishedAt time.Time `json:"published_at"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Summary     string    `json:"summary,omitempty"`
}

// RawRecord is the tagged variant handed to the normalizer: Kind selects
// which payload pointer is set, the others stay nil. Collectors serialize
// records into storage as-is.
type RawRecord struct {
	Topic Topic      `json:"topic"`
	Kind  SourceKind `json:"kind"`

	Post  *RedditPost `json:"post,omitempty"`
	Video *VideoItem  `json:"video,omitempty"`
	Entry *FeedEntry  `json:"entry,omitempty"`
}

// ID returns the source-native identity of the record's payload, or "" when
// the tagged payload is missing.
func (r RawRecord) ID() string {
	switch {
	case r.Post != nil:
		return r.Post.ID
	case r.Video != nil:
		return r.Video.ID
	case r.Entry != nil:
		return r.Entry.GUID
	}
	return ""
}

// PublishedAt returns the payload timestamp, zero when unknown.
func (r RawRecord) PublishedAt() time.Time {
	switch {
	case r.Post != nil:
		return r.Post.CreatedAt
	case r.Video != nil:
		return r.Video.PublishedAt
	case r.Entry != nil:
		return r.Entry.PublishedAt
	}
	return time.Time{}
}

// ContentItem is the canonical unit flowing through the pipeline. Items are
// created per run from raw records, merged by the deduplicator, scored by
// the ranker, and discarded once the digest is produced.
type ContentItem struct {
	ID          string     `json:"id"`
	Topic       Topic      `json:"topic"`
	SourceKind  SourceKind `json:"source_kind"`
	Source      string     `json:"source"` // display name: subreddit, outlet, channel
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt time.Time  `json:"published_at"` // zero = unknown recency

	// Engagement keeps the raw signal per source kind (upvotes, views).
	// Values are never compared across kinds without normalization.
	Engagement map[SourceKind]int64 `json:"engagement,omitempty"`

	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Summary      string `json:"summary,omitempty"`

	// SourceRefs lists every raw record folded into this item.
	SourceRefs []string `json:"source_refs,omitempty"`

	// Set by the ranker; zero until then.
	Tier  Tier    `json:"tier,omitempty"`
	Score float64 `json:"score,omitempty"`
}
