package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/telemetry"
)

func TestServer_StatsToolOnlyWithMetrics(t *testing.T) {
	store := config.NewStore(config.NewConfig())
	defer store.Close()

	plain, err := NewServer(&MockSearcher{}, store)
	require.NoError(t, err)
	assert.Len(t, plain.ListTools(), 4)

	withStats, err := NewServer(&MockSearcher{}, store, WithMetrics(telemetry.New()))
	require.NoError(t, err)
	names := make([]string, 0, 5)
	for _, tool := range withStats.ListTools() {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "search_stats")
}

func TestSearchStatsHandler(t *testing.T) {
	// Given: a server whose metrics saw three searches
	store := config.NewStore(config.NewConfig())
	defer store.Close()
	metrics := telemetry.New()
	metrics.Record(telemetry.QueryEvent{Term: "deploy", Strategy: "ripgrep", ResultCount: 2, Latency: time.Millisecond})
	metrics.Record(telemetry.QueryEvent{Term: "deploy", Strategy: "ripgrep", ResultCount: 2, Latency: time.Millisecond})
	metrics.Record(telemetry.QueryEvent{Term: "nothing", Strategy: "ripgrep", Latency: 200 * time.Millisecond})

	s, err := NewServer(&MockSearcher{}, store, WithMetrics(metrics))
	require.NoError(t, err)

	// When: calling search_stats
	res, out, err := s.mcpSearchStatsHandler(context.Background(), nil, SearchStatsInput{})

	// Then: structured and text output agree
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.TotalQueries)
	assert.Equal(t, int64(1), out.RepeatCount)
	assert.Equal(t, int64(3), out.StrategyCounts["ripgrep"])
	assert.Equal(t, int64(2), out.Latency["p10"])
	assert.Equal(t, []TermCount{{Term: "deploy", Count: 2}, {Term: "nothing", Count: 1}}, out.TopTerms)
	assert.Equal(t, []string{"nothing"}, out.ZeroResultQueries)

	text := resultText(t, res)
	assert.Contains(t, text, "Searches: 3")
	assert.Contains(t, text, "- deploy (2)")
	assert.Contains(t, text, "### Terms with no results")
}

func TestFormatSearchStats_Empty(t *testing.T) {
	out := ToSearchStatsOutput(telemetry.New().Snapshot())
	assert.Contains(t, FormatSearchStats(out), "No searches yet.")
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}
