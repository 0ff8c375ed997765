package pipeline

import (
	"sort"
	"time"

	"gamedigest/internal/model"
)

// Input is the raw material for one run: per topic, per source kind, the
// already ordered, already fetched payload records. The pipeline never
// fetches or stores anything itself.
type Input map[model.Topic]map[model.SourceKind][]model.RawRecord

// TopicReport counts what happened to one topic's records during a run.
type TopicReport struct {
	Raw        int
	Malformed  int
	Normalized int
	Canonical  int
	Selected   int
}

// Report aggregates per-topic outcomes of a run.
type Report struct {
	Topics map[model.Topic]TopicReport
}

// kindOrder fixes the flattening order of per-kind record lists so a run is
// deterministic regardless of map iteration order.
var kindOrder = []model.SourceKind{
	model.KindOfficial,
	model.KindNewsOutlet,
	model.KindCommunity,
	model.KindVideo,
}

// Run pushes every topic through normalization, deduplication, ranking and
// digest selection. Topics are fully isolated: a topic of malformed payloads
// produces an empty digest without touching any other topic's result.
// Nothing inside the run is fatal.
func Run(input Input, cfg Config, now time.Time) (map[model.Topic][]model.ContentItem, Report) {
	digests := make(map[model.Topic][]model.ContentItem, len(input))
	report := Report{Topics: make(map[model.Topic]TopicReport, len(input))}

	for _, topic := range sortedTopics(input) {
		var items []model.ContentItem
		rep := TopicReport{}
		for _, kind := range kindOrder {
			records := input[topic][kind]
			if len(records) == 0 {
				continue
			}
			rep.Raw += len(records)
			normalized, malformed := Normalize(topic, kind, records)
			rep.Malformed += malformed
			items = append(items, normalized...)
		}
		rep.Normalized = len(items)

		canonical := Dedup(items, cfg)
		rep.Canonical = len(canonical)

		digest := SelectDigest(Rank(canonical, cfg, now), cfg)
		rep.Selected = len(digest)

		digests[topic] = digest
		report.Topics[topic] = rep
	}
	return digests, report
}

func sortedTopics(input Input) []model.Topic {
	topics := make([]model.Topic, 0, len(input))
	for t := range input {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })
	return topics
}
