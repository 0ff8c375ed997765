package pipeline

import (
	"sort"

	"gamedigest/internal/model"
)

// SelectDigest picks up to cfg.TopN items from a ranked (score-descending)
// list, keeping at most cfg.KindCap items per source kind on the first
// pass. When the cap leaves the quota unfilled, a second pass relaxes it
// and fills the remainder with the highest-scored skipped items. The result
// is re-sorted by rank order, holds min(TopN, available) items, and never
// errors on short or empty input.
func SelectDigest(ranked []model.ContentItem, cfg Config) []model.ContentItem {
	n := cfg.TopN
	if n <= 0 || len(ranked) == 0 {
		return nil
	}

	selected := make([]model.ContentItem, 0, n)
	taken := make([]bool, len(ranked))
	perKind := make(map[model.SourceKind]int, 4)

	for i, it := range ranked {
		if len(selected) == n {
			break
		}
		if cfg.KindCap > 0 && perKind[it.SourceKind] >= cfg.KindCap {
			continue
		}
		selected = append(selected, it)
		perKind[it.SourceKind]++
		taken[i] = true
	}

	if len(selected) < n {
		// Too few distinct-kind items; relax the cap and fill by score.
		for i, it := range ranked {
			if len(selected) == n {
				break
			}
			if taken[i] {
				continue
			}
			selected = append(selected, it)
			taken[i] = true
		}
		sort.SliceStable(selected, func(i, j int) bool { return rankedLess(selected[i], selected[j]) })
	}
	return selected
}
