package pipeline

import (
	"time"

	"gamedigest/internal/model"
)

// Config carries every tuning constant the pipeline stages use. Stages read
// nothing ambient; callers thread one Config through the whole run.
type Config struct {
	// Deduplication.
	SimilarityThreshold float64       // token-overlap ratio in [0,1]
	DuplicateWindow     time.Duration // max published_at distance for title matches

	// Score weights. TierWeight must stay >= RecencyWeight+EngagementWeight
	// so a higher tier always outranks a lower one.
	TierWeight       float64
	RecencyWeight    float64
	EngagementWeight float64

	// Recency decay.
	FreshWindow    time.Duration // full factor inside this age
	StaleWindow    time.Duration // floor beyond this age
	RecencyFloor   float64
	UnknownRecency float64 // factor for items without a timestamp, never zero

	// Per-kind engagement normalization maxima and viral cutoffs.
	EngagementMaxima map[model.SourceKind]float64
	ViralThresholds  map[model.SourceKind]int64

	// Outlets whose coverage counts as major news, matched casefolded on
	// word boundaries against source name and title.
	MajorOutlets []string

	// Digest selection.
	TopN    int
	KindCap int // max selected items sharing a source kind, first pass
}

// DefaultConfig returns the tuning constants used when the config file does
// not override them.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.8,
		DuplicateWindow:     48 * time.Hour,
		TierWeight:          25,
		RecencyWeight:       10,
		EngagementWeight:    5,
		FreshWindow:         24 * time.Hour,
		StaleWindow:         48 * time.Hour,
		RecencyFloor:        0.1,
		UnknownRecency:      0.3,
		EngagementMaxima: map[model.SourceKind]float64{
			model.KindCommunity: 2000,
			model.KindVideo:     200000,
		},
		ViralThresholds: map[model.SourceKind]int64{
			model.KindCommunity: 500,
			model.KindVideo:     50000,
		},
		MajorOutlets: []string{"ign", "kotaku", "pc gamer", "polygon", "eurogamer", "vg247"},
		TopN:         5,
		KindCap:      2,
	}
}
