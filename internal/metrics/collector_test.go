package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	return m.stats
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		Albums:              4,
		Images:              120,
		DimensionCacheRows:  97,
		ThumbnailCacheBytes: 2048,
	}}

	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(AlbumsTotal); got != 4 {
		t.Errorf("AlbumsTotal = %v, want 4", got)
	}
	if got := testutil.ToFloat64(ImagesTotal); got != 120 {
		t.Errorf("ImagesTotal = %v, want 120", got)
	}
	if got := testutil.ToFloat64(DimensionCacheEntries); got != 97 {
		t.Errorf("DimensionCacheEntries = %v, want 97", got)
	}
	if got := testutil.ToFloat64(ThumbnailCacheBytes); got != 2048 {
		t.Errorf("ThumbnailCacheBytes = %v, want 2048", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	c := NewCollector(StatsFunc(func() Stats { return Stats{Albums: 1} }), 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()

	if got := testutil.ToFloat64(AlbumsTotal); got != 1 {
		t.Errorf("AlbumsTotal = %v, want 1", got)
	}
}
