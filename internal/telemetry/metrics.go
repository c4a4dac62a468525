// Package telemetry keeps in-memory search statistics for long-running
// kbsearch processes. Nothing is persisted or reported anywhere; the
// numbers live as long as the process.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch ms := d.Milliseconds(); {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// QueryEvent describes one finished search.
type QueryEvent struct {
	Term         string
	Strategy     string
	Repositories int
	ResultCount  int
	Latency      time.Duration
	Cancelled    bool
}

// TermCount is a term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	TotalQueries      int64                   `json:"total_queries"`
	ZeroResultCount   int64                   `json:"zero_result_count"`
	CancelledCount    int64                   `json:"cancelled_count"`
	RepeatCount       int64                   `json:"repeat_count"`
	StrategyCounts    map[string]int64        `json:"strategy_counts"`
	Latency           map[LatencyBucket]int64 `json:"latency_distribution"`
	TopTerms          []TermCount             `json:"top_terms"`
	ZeroResultQueries []string                `json:"zero_result_queries"`
	Since             time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of completed queries that found nothing.
func (s Snapshot) ZeroResultPercentage() float64 {
	completed := s.TotalQueries - s.CancelledCount
	if completed <= 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(completed) * 100
}

// Config sizes the bounded collections.
type Config struct {
	TopTermsCapacity    int // distinct terms tracked (default 100)
	ZeroResultsCapacity int // recent zero-result terms kept (default 50)
}

// DefaultConfig returns the default sizes.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:    100,
		ZeroResultsCapacity: 50,
	}
}

// Metrics collects search statistics. It is safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	total      int64
	zero       int64
	cancelled  int64
	repeats    int64
	strategies map[string]int64
	latencies  map[LatencyBucket]int64

	// terms evicts the least recently searched term once full, so a
	// long-running server keeps counts for what is in use now.
	terms       *lru.Cache[string, int64]
	zeroResults *Ring[string]
	since       time.Time
}

// New creates a collector with DefaultConfig.
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a collector with custom sizes.
func NewWithConfig(cfg Config) *Metrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	terms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	return &Metrics{
		strategies:  make(map[string]int64),
		latencies:   make(map[LatencyBucket]int64),
		terms:       terms,
		zeroResults: NewRing[string](cfg.ZeroResultsCapacity),
		since:       time.Now(),
	}
}

// Record adds a finished search. Terms are counted case-insensitively.
func (m *Metrics) Record(e QueryEvent) {
	term := strings.ToLower(strings.TrimSpace(e.Term))
	if term == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if e.Strategy != "" {
		m.strategies[e.Strategy]++
	}
	m.latencies[LatencyToBucket(e.Latency)]++

	count, seen := m.terms.Get(term)
	if seen {
		m.repeats++
	}
	m.terms.Add(term, count+1)

	if e.Cancelled {
		m.cancelled++
		return
	}
	if e.ResultCount == 0 {
		m.zero++
		m.zeroResults.Add(term)
	}
}

// Snapshot returns the current metrics. TopTerms is sorted by count, then term.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		TotalQueries:      m.total,
		ZeroResultCount:   m.zero,
		CancelledCount:    m.cancelled,
		RepeatCount:       m.repeats,
		StrategyCounts:    make(map[string]int64, len(m.strategies)),
		Latency:           make(map[LatencyBucket]int64, len(m.latencies)),
		TopTerms:          make([]TermCount, 0, m.terms.Len()),
		ZeroResultQueries: m.zeroResults.Items(),
		Since:             m.since,
	}
	for k, v := range m.strategies {
		s.StrategyCounts[k] = v
	}
	for k, v := range m.latencies {
		s.Latency[k] = v
	}
	for _, term := range m.terms.Keys() {
		if count, ok := m.terms.Peek(term); ok {
			s.TopTerms = append(s.TopTerms, TermCount{Term: term, Count: count})
		}
	}
	sort.Slice(s.TopTerms, func(i, j int) bool {
		if s.TopTerms[i].Count != s.TopTerms[j].Count {
			return s.TopTerms[i].Count > s.TopTerms[j].Count
		}
		return s.TopTerms[i].Term < s.TopTerms[j].Term
	})
	return s
}
