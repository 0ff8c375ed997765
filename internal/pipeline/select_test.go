package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"gamedigest/internal/model"
)

func scored(id string, kind model.SourceKind, score float64) model.ContentItem {
	return model.ContentItem{ID: id, SourceKind: kind, Score: score}
}

func TestSelectDigestRespectsKindCap(t *testing.T) {
	cfg := DefaultConfig() // TopN 5, KindCap 2
	ranked := []model.ContentItem{
		scored("n1", model.KindNewsOutlet, 90),
		scored("n2", model.KindNewsOutlet, 85),
		scored("n3", model.KindNewsOutlet, 80),
		scored("c1", model.KindCommunity, 70),
		scored("v1", model.KindVideo, 65),
		scored("c2", model.KindCommunity, 60),
		scored("v2", model.KindVideo, 55),
		scored("o1", model.KindOfficial, 50),
	}

	got := SelectDigest(ranked, cfg)

	want := []string{"n1", "n2", "c1", "v1", "c2"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	perKind := map[model.SourceKind]int{}
	for _, it := range got {
		perKind[it.SourceKind]++
		if perKind[it.SourceKind] > cfg.KindCap {
			t.Errorf("kind %q exceeds cap: %d", it.SourceKind, perKind[it.SourceKind])
		}
	}
}

func TestSelectDigestRelaxesCapWhenShort(t *testing.T) {
	cfg := DefaultConfig()
	ranked := []model.ContentItem{
		scored("v1", model.KindVideo, 80),
		scored("v2", model.KindVideo, 75),
		scored("v3", model.KindVideo, 70),
		scored("v4", model.KindVideo, 65),
		scored("n1", model.KindNewsOutlet, 60),
	}

	got := SelectDigest(ranked, cfg)

	// The cap alone yields only [v1 v2 n1]; the relaxation pass fills the
	// quota and the result comes back in rank order, not append order.
	want := []string{"v1", "v2", "v3", "v4", "n1"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectDigestFewerThanQuota(t *testing.T) {
	cfg := DefaultConfig()
	ranked := []model.ContentItem{
		scored("a", model.KindOfficial, 90),
		scored("b", model.KindCommunity, 50),
	}
	got := SelectDigest(ranked, cfg)
	if diff := cmp.Diff([]string{"a", "b"}, ids(got)); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectDigestUncapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KindCap = 0
	ranked := []model.ContentItem{
		scored("v1", model.KindVideo, 80),
		scored("v2", model.KindVideo, 75),
		scored("v3", model.KindVideo, 70),
		scored("n1", model.KindNewsOutlet, 60),
	}
	got := SelectDigest(ranked, cfg)
	if diff := cmp.Diff([]string{"v1", "v2", "v3", "n1"}, ids(got)); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectDigestEmptyAndDisabled(t *testing.T) {
	cfg := DefaultConfig()
	if got := SelectDigest(nil, cfg); got != nil {
		t.Errorf("SelectDigest(nil) = %v, want nil", got)
	}
	cfg.TopN = 0
	if got := SelectDigest([]model.ContentItem{scored("a", model.KindVideo, 1)}, cfg); got != nil {
		t.Errorf("SelectDigest with zero quota = %v, want nil", got)
	}
}
