package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/kbsearch/internal/telemetry"
)

// maxStatsTerms bounds the top terms returned by search_stats.
const maxStatsTerms = 20

// mcpSearchStatsHandler is the MCP SDK handler for the search_stats tool.
func (s *Server) mcpSearchStatsHandler(_ context.Context, _ *mcp.CallToolRequest, _ SearchStatsInput) (
	*mcp.CallToolResult,
	SearchStatsOutput,
	error,
) {
	out := ToSearchStatsOutput(s.metrics.Snapshot())
	return textResult(FormatSearchStats(out)), out, nil
}

// ToSearchStatsOutput converts a metrics snapshot.
func ToSearchStatsOutput(snap telemetry.Snapshot) SearchStatsOutput {
	out := SearchStatsOutput{
		Since:             snap.Since.UTC().Format(time.RFC3339),
		TotalQueries:      snap.TotalQueries,
		ZeroResultCount:   snap.ZeroResultCount,
		CancelledCount:    snap.CancelledCount,
		RepeatCount:       snap.RepeatCount,
		StrategyCounts:    snap.StrategyCounts,
		Latency:           make(map[string]int64, len(snap.Latency)),
		TopTerms:          make([]TermCount, 0, min(len(snap.TopTerms), maxStatsTerms)),
		ZeroResultQueries: snap.ZeroResultQueries,
	}
	for bucket, n := range snap.Latency {
		out.Latency[string(bucket)] = n
	}
	for i, tc := range snap.TopTerms {
		if i >= maxStatsTerms {
			break
		}
		out.TopTerms = append(out.TopTerms, TermCount{Term: tc.Term, Count: tc.Count})
	}
	return out
}

// FormatSearchStats renders stats as markdown.
func FormatSearchStats(out SearchStatsOutput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Search statistics since %s\n\n", out.Since)
	if out.TotalQueries == 0 {
		sb.WriteString("No searches yet.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "- Searches: %d (%d cancelled, %d repeated)\n", out.TotalQueries, out.CancelledCount, out.RepeatCount)
	fmt.Fprintf(&sb, "- No results: %d\n", out.ZeroResultCount)
	for _, strategy := range []string{"ripgrep", "fallback", "custom"} {
		if n := out.StrategyCounts[strategy]; n > 0 {
			fmt.Fprintf(&sb, "- Strategy %s: %d\n", strategy, n)
		}
	}

	sb.WriteString("\n### Latency\n\n")
	for _, bucket := range []telemetry.LatencyBucket{
		telemetry.BucketP10, telemetry.BucketP50, telemetry.BucketP100, telemetry.BucketP500, telemetry.BucketP1000,
	} {
		fmt.Fprintf(&sb, "- %s: %d\n", bucket, out.Latency[string(bucket)])
	}

	if len(out.TopTerms) > 0 {
		sb.WriteString("\n### Top terms\n\n")
		for _, tc := range out.TopTerms {
			fmt.Fprintf(&sb, "- %s (%d)\n", tc.Term, tc.Count)
		}
	}
	if len(out.ZeroResultQueries) > 0 {
		sb.WriteString("\n### Terms with no results\n\n")
		for _, term := range out.ZeroResultQueries {
			fmt.Fprintf(&sb, "- %s\n", term)
		}
	}
	return sb.String()
}
