package pipeline

import (
	"net/url"
	"strings"
	"time"
	"unicode"

	"gamedigest/internal/model"
)

// Dedup collapses near-duplicate items within one topic into canonical
// entries. Two items merge when their normalized URLs are equal, or when
// their title token overlap reaches the configured threshold and both carry
// timestamps within the duplicate window. Clustering is single-linkage over
// explicit indices; representatives and tie-breaks follow input order, so
// equal inputs always produce equal output. Never errors: empty in, empty
// out.
func Dedup(items []model.ContentItem, cfg Config) []model.ContentItem {
	if len(items) == 0 {
		return nil
	}

	urls := make([]string, len(items))
	tokens := make([]map[string]struct{}, len(items))
	for i, it := range items {
		urls[i] = normalizeURL(it.URL)
		tokens[i] = titleTokens(it.Title)
	}

	uf := newUnionFind(len(items))

	// Pass one: exact matches on the normalized URL.
	firstByURL := make(map[string]int, len(items))
	for i, u := range urls {
		if u == "" {
			continue
		}
		if j, ok := firstByURL[u]; ok {
			uf.union(j, i)
		} else {
			firstByURL[u] = i
		}
	}

	// Pass two: title similarity, bounded by the duplicate window. Items
	// without timestamps only ever merge through URL equality.
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			if !withinWindow(items[i].PublishedAt, items[j].PublishedAt, cfg.DuplicateWindow) {
				continue
			}
			if tokenOverlap(tokens[i], tokens[j]) >= cfg.SimilarityThreshold {
				uf.union(i, j)
			}
		}
	}

	// Collect clusters keyed by representative, ordered by first appearance.
	reps := make([]int, 0, len(items))
	clusters := make(map[int][]int, len(items))
	for i := range items {
		r := uf.find(i)
		if _, seen := clusters[r]; !seen {
			reps = append(reps, r)
		}
		clusters[r] = append(clusters[r], i)
	}

	out := make([]model.ContentItem, 0, len(reps))
	for _, r := range reps {
		out = append(out, mergeCluster(items, clusters[r]))
	}
	return out
}

// unionFind over item indices. Roots stay at the smallest member index so
// cluster representatives follow input order rather than merge order.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

// mergeCluster folds one duplicate cluster into a canonical item. Engagement
// keeps the best value per source kind, published_at keeps the earliest
// known timestamp, and display fields follow the most credible member with a
// longest-non-empty fallback. The first member's ID stays as the canonical
// identity; every member's refs are retained.
func mergeCluster(items []model.ContentItem, idx []int) model.ContentItem {
	first := items[idx[0]]
	if len(idx) == 1 {
		out := first
		out.Engagement = copyEngagement(first.Engagement)
		out.SourceRefs = append([]string(nil), first.SourceRefs...)
		return out
	}

	best := first
	for _, i := range idx[1:] {
		if items[i].SourceKind.Credibility() > best.SourceKind.Credibility() {
			best = items[i]
		}
	}

	merged := model.ContentItem{
		ID:         first.ID,
		Topic:      first.Topic,
		SourceKind: best.SourceKind,
		Source:     best.Source,
		URL:        best.URL,
		Engagement: make(map[model.SourceKind]int64, len(idx)),
	}
	merged.Title = pickField(best.Title, items, idx, func(it model.ContentItem) string { return it.Title })
	merged.ThumbnailURL = pickField(best.ThumbnailURL, items, idx, func(it model.ContentItem) string { return it.ThumbnailURL })
	merged.Summary = pickField(best.Summary, items, idx, func(it model.ContentItem) string { return it.Summary })

	seen := make(map[string]struct{}, len(idx))
	for _, i := range idx {
		it := items[i]
		for kind, v := range it.Engagement {
			if cur, ok := merged.Engagement[kind]; !ok || v > cur {
				merged.Engagement[kind] = v
			}
		}
		if !it.PublishedAt.IsZero() {
			if merged.PublishedAt.IsZero() || it.PublishedAt.Before(merged.PublishedAt) {
				merged.PublishedAt = it.PublishedAt
			}
		}
		for _, ref := range it.SourceRefs {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			merged.SourceRefs = append(merged.SourceRefs, ref)
		}
	}
	return merged
}

// pickField prefers the most credible member's value and falls back to the
// longest non-empty value across the cluster, earliest member on ties.
func pickField(preferred string, items []model.ContentItem, idx []int, get func(model.ContentItem) string) string {
	if strings.TrimSpace(preferred) != "" {
		return preferred
	}
	longest := ""
	for _, i := range idx {
		if v := get(items[i]); len(v) > len(longest) {
			longest = v
		}
	}
	return longest
}

func copyEngagement(m map[model.SourceKind]int64) map[model.SourceKind]int64 {
	if m == nil {
		return nil
	}
	out := make(map[model.SourceKind]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}

// tokenOverlap is the share of the smaller token set contained in the
// larger one. Containment rather than Jaccard: a terse official title still
// matches its expanded outlet rewrite.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	n := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			n++
		}
	}
	return float64(n) / float64(len(small))
}

var titleStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "at": {}, "for": {}, "in": {}, "is": {},
	"of": {}, "on": {}, "the": {}, "to": {}, "with": {},
}

func titleTokens(title string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, stop := titleStopwords[f]; stop {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}

var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "mc_cid": {}, "mc_eid": {}, "ref": {}, "ref_src": {},
}

// normalizeURL produces the comparison form of a link: scheme dropped, host
// folded to lower case, default ports elided, fragment discarded, tracking
// parameters (utm_* plus known click IDs) stripped, remaining query sorted,
// trailing slash trimmed. Unparseable input falls back to a lower-cased
// trimmed copy so it can still match itself.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	q := u.Query()
	for key := range q {
		lk := strings.ToLower(key)
		if _, drop := trackingParams[lk]; drop || strings.HasPrefix(lk, "utm_") {
			q.Del(key)
		}
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	key := host + path
	if enc := q.Encode(); enc != "" {
		key += "?" + enc
	}
	return key
}
