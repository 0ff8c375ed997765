package pipeline

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"gamedigest/internal/model"
)

var tierWeights = map[model.Tier]float64{
	model.TierOfficialNews:       4,
	model.TierMajorNews:          3,
	model.TierCommunityHighlight: 2,
	model.TierGeneralDiscussion:  1,
}

// Rank assigns tier and score to every canonical item and returns a new
// slice sorted by score descending. Ties fall back to published_at
// descending, then id ascending, so equal inputs always rank identically.
// now anchors the recency decay; tests pin it.
func Rank(items []model.ContentItem, cfg Config, now time.Time) []model.ContentItem {
	out := make([]model.ContentItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Tier = assignTier(out[i], cfg)
		out[i].Score = tierWeights[out[i].Tier]*cfg.TierWeight +
			recencyFactor(out[i].PublishedAt, cfg, now)*cfg.RecencyWeight +
			normalizedEngagement(out[i], cfg)*cfg.EngagementWeight
	}
	sort.SliceStable(out, func(i, j int) bool { return rankedLess(out[i], out[j]) })
	return out
}

// rankedLess orders scored items for output: score descending, then
// published_at descending, then id ascending.
func rankedLess(a, b model.ContentItem) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return a.ID < b.ID
}

// assignTier applies the tier rules in fixed order; the first match wins.
func assignTier(it model.ContentItem, cfg Config) model.Tier {
	if it.SourceKind == model.KindOfficial {
		return model.TierOfficialNews
	}
	if it.SourceKind == model.KindNewsOutlet && matchesMajorOutlet(it, cfg.MajorOutlets) {
		return model.TierMajorNews
	}
	if it.SourceKind == model.KindCommunity || it.SourceKind == model.KindVideo {
		if threshold, ok := cfg.ViralThresholds[it.SourceKind]; ok && it.Engagement[it.SourceKind] >= threshold {
			return model.TierCommunityHighlight
		}
	}
	return model.TierGeneralDiscussion
}

func matchesMajorOutlet(it model.ContentItem, outlets []string) bool {
	source := strings.ToLower(it.Source)
	title := strings.ToLower(it.Title)
	for _, outlet := range outlets {
		o := strings.ToLower(strings.TrimSpace(outlet))
		if o == "" {
			continue
		}
		if containsWord(source, o) || containsWord(title, o) {
			return true
		}
	}
	return false
}

// containsWord reports whether needle occurs in haystack on word
// boundaries, so the outlet "ign" does not match "design".
func containsWord(haystack, needle string) bool {
	for start := 0; start <= len(haystack)-len(needle); {
		i := strings.Index(haystack[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(needle)
		beforeOK := i == 0 || isWordBoundary(rune(haystack[i-1]))
		afterOK := end == len(haystack) || isWordBoundary(rune(haystack[end]))
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// recencyFactor is 1.0 inside the fresh window, decays linearly to the
// floor at the stale window, and stays at the floor beyond it. Items
// without a timestamp get the unknown-recency factor, never zero.
func recencyFactor(published time.Time, cfg Config, now time.Time) float64 {
	if published.IsZero() {
		return cfg.UnknownRecency
	}
	age := now.Sub(published)
	if age < 0 {
		age = 0
	}
	if age <= cfg.FreshWindow {
		return 1.0
	}
	if age >= cfg.StaleWindow {
		return cfg.RecencyFloor
	}
	frac := float64(age-cfg.FreshWindow) / float64(cfg.StaleWindow-cfg.FreshWindow)
	return 1.0 - frac*(1.0-cfg.RecencyFloor)
}

// normalizedEngagement maps raw per-kind engagement onto [0,1] against the
// configured reference maxima and takes the best value across the kinds a
// merged item carries. Kinds without a configured maximum contribute zero;
// raw values are never compared across kinds.
func normalizedEngagement(it model.ContentItem, cfg Config) float64 {
	best := 0.0
	for kind, raw := range it.Engagement {
		ref := cfg.EngagementMaxima[kind]
		if ref <= 0 || raw <= 0 {
			continue
		}
		v := float64(raw) / ref
		if v > 1 {
			v = 1
		}
		if v > best {
			best = v
		}
	}
	return best
}
