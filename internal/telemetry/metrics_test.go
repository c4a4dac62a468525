package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{5 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{75 * time.Millisecond, BucketP100},
		{499 * time.Millisecond, BucketP500},
		{2 * time.Second, BucketP1000},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, LatencyToBucket(tt.d))
		})
	}
}

func TestMetrics_Record(t *testing.T) {
	// Given: a collector
	m := New()

	// When: recording a mix of searches
	m.Record(QueryEvent{Term: "Deploy", Strategy: "ripgrep", ResultCount: 3, Latency: 5 * time.Millisecond})
	m.Record(QueryEvent{Term: "deploy ", Strategy: "ripgrep", ResultCount: 1, Latency: 20 * time.Millisecond})
	m.Record(QueryEvent{Term: "missing", Strategy: "fallback", ResultCount: 0, Latency: 5 * time.Millisecond})
	m.Record(QueryEvent{Term: "slow", Strategy: "fallback", Cancelled: true, Latency: time.Second})
	m.Record(QueryEvent{Term: "   "})

	// Then: the snapshot reflects them
	s := m.Snapshot()
	assert.Equal(t, int64(4), s.TotalQueries)
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, int64(1), s.CancelledCount)
	assert.Equal(t, int64(1), s.RepeatCount)
	assert.Equal(t, map[string]int64{"ripgrep": 2, "fallback": 2}, s.StrategyCounts)
	assert.Equal(t, int64(2), s.Latency[BucketP10])
	assert.Equal(t, []string{"missing"}, s.ZeroResultQueries)
	require.NotEmpty(t, s.TopTerms)
	assert.Equal(t, TermCount{Term: "deploy", Count: 2}, s.TopTerms[0])
	assert.InDelta(t, 33.3, s.ZeroResultPercentage(), 0.1)
}

func TestMetrics_TopTermsBounded(t *testing.T) {
	m := NewWithConfig(Config{TopTermsCapacity: 3, ZeroResultsCapacity: 2})

	for i := 0; i < 10; i++ {
		m.Record(QueryEvent{Term: fmt.Sprintf("term%d", i)})
	}

	s := m.Snapshot()
	assert.Len(t, s.TopTerms, 3)
	assert.Equal(t, []string{"term8", "term9"}, s.ZeroResultQueries)
}

func TestMetrics_ConcurrentRecord(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Record(QueryEvent{Term: "shared", ResultCount: 1})
			}
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	assert.Equal(t, int64(400), s.TotalQueries)
	assert.Equal(t, int64(399), s.RepeatCount)
}

func TestSnapshot_ZeroResultPercentageEmpty(t *testing.T) {
	assert.Zero(t, Snapshot{}.ZeroResultPercentage())
}

func TestRing(t *testing.T) {
	r := NewRing[int](3)
	assert.Empty(t, r.Items())

	for i := 1; i <= 5; i++ {
		r.Add(i)
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Items())
}
