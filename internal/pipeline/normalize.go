package pipeline

import (
	"log/slog"
	"strings"

	"gamedigest/internal/model"
)

// Normalize maps one (topic, kind) batch of raw records onto content items.
// The kind argument selects the payload variant. Records missing that
// payload, a title, or a link are malformed: skipped with a warning and
// counted, never fatal. A fully malformed batch yields zero items.
func Normalize(topic model.Topic, kind model.SourceKind, records []model.RawRecord) ([]model.ContentItem, int) {
	items := make([]model.ContentItem, 0, len(records))
	malformed := 0
	for _, rec := range records {
		it, ok := normalizeOne(kind, rec)
		if !ok {
			malformed++
			slog.Warn("normalize: skipping malformed record", "topic", topic, "kind", kind, "id", rec.ID())
			continue
		}
		it.Topic = topic
		items = append(items, it)
	}
	return items, malformed
}

func normalizeOne(kind model.SourceKind, rec model.RawRecord) (model.ContentItem, bool) {
	switch kind {
	case model.KindCommunity:
		return fromRedditPost(rec.Post)
	case model.KindVideo:
		return fromVideoItem(rec.Video)
	case model.KindNewsOutlet, model.KindOfficial:
		return fromFeedEntry(rec.Entry, kind)
	}
	return model.ContentItem{}, false
}

func fromRedditPost(p *model.RedditPost) (model.ContentItem, bool) {
	if p == nil || strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.URL) == "" {
		return model.ContentItem{}, false
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = p.URL
	}
	source := p.Subreddit
	if source != "" && !strings.HasPrefix(source, "r/") {
		source = "r/" + source
	}
	return model.ContentItem{
		ID:           id,
		SourceKind:   model.KindCommunity,
		Source:       source,
		Title:        strings.TrimSpace(p.Title),
		URL:          p.URL,
		PublishedAt:  p.CreatedAt.UTC(),
		Engagement:   map[model.SourceKind]int64{model.KindCommunity: p.Score},
		ThumbnailURL: p.Thumbnail,
		SourceRefs:   []string{id},
	}, true
}

func fromVideoItem(v *model.VideoItem) (model.ContentItem, bool) {
	if v == nil || strings.TrimSpace(v.Title) == "" || strings.TrimSpace(v.ID) == "" {
		return model.ContentItem{}, false
	}
	return model.ContentItem{
		ID:           v.ID,
		SourceKind:   model.KindVideo,
		Source:       v.ChannelTitle,
		Title:        strings.TrimSpace(v.Title),
		URL:          "https://www.youtube.com/watch?v=" + v.ID,
		PublishedAt:  v.PublishedAt.UTC(),
		Engagement:   map[model.SourceKind]int64{model.KindVideo: v.Views},
		ThumbnailURL: v.Thumbnail,
		Summary:      v.Description,
		SourceRefs:   []string{v.ID},
	}, true
}

func fromFeedEntry(e *model.FeedEntry, kind model.SourceKind) (model.ContentItem, bool) {
	if e == nil || strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Link) == "" {
		return model.ContentItem{}, false
	}
	id := strings.TrimSpace(e.GUID)
	if id == "" {
		id = e.Link
	}
	return model.ContentItem{
		ID:           id,
		SourceKind:   kind,
		Source:       e.Outlet,
		Title:        strings.TrimSpace(e.Title),
		URL:          e.Link,
		PublishedAt:  e.PublishedAt.UTC(),
		Engagement:   map[model.SourceKind]int64{kind: 0},
		ThumbnailURL: e.Thumbnail,
		Summary:      e.Summary,
		SourceRefs:   []string{id},
	}, true
}
