package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Round Report: %s\n\n", r.Round.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Round summary
	sb.WriteString("## Round\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Round ID | %s |\n", r.Round.RoundID))
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", r.Round.Status))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", r.Round.Seed))
	sb.WriteString(fmt.Sprintf("| Ticks | %d |\n", r.Round.TickCount))
	sb.WriteString(fmt.Sprintf("| Agents | %d |\n", r.Round.AgentCount))
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", formatMs(r.Round.StartedAt)))
	sb.WriteString(fmt.Sprintf("| Completed | %s |\n", formatMs(r.Round.CompletedAt)))
	sb.WriteString("\n")

	// Agent metrics
	sb.WriteString("## Agent Performance\n\n")
	if len(r.Agents) > 0 {
		sb.WriteString("| Agent | Strategy | Status | Final Equity | Return | Sharpe | MaxDD | Calmar | WinRate | Beta | Alpha | IR | Trades | Survival |\n")
		sb.WriteString("|-------|----------|--------|--------------|--------|--------|-------|--------|---------|------|-------|----|--------|----------|\n")
		for _, a := range r.Agents {
			status := a.Status
			if a.Killed {
				status += " (killed)"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %.4f | %s | %.4f | %s | %s | %s | %s | %s | %d | %d |\n",
				a.Name, a.Strategy, status,
				a.FinalEquity, a.TotalReturn,
				formatMetric(a.SharpeRatio), a.MaxDrawdown, formatMetric(a.CalmarRatio),
				formatMetric(a.WinRate), formatMetric(a.Beta), formatMetric(a.Alpha),
				formatMetric(a.InformationRatio),
				a.TotalTrades, a.SurvivalTime))
		}
	} else {
		sb.WriteString("No agent results available.\n")
	}
	sb.WriteString("\n")

	// Kills and failures
	var incidents []string
	for _, a := range r.Agents {
		if a.Killed {
			incidents = append(incidents, fmt.Sprintf("- %s: killed (%s)", a.Name, a.KillReason))
		}
		if a.Error != "" {
			incidents = append(incidents, fmt.Sprintf("- %s: failed (%s)", a.Name, a.Error))
		}
	}
	if len(incidents) > 0 {
		sb.WriteString("## Kills and Failures\n\n")
		for _, line := range incidents {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	// Trade activity
	sb.WriteString("## Trade Activity\n\n")
	sb.WriteString("| Action | Count |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| OPEN_LONG | %d |\n", r.TradeCounts.OpenLong))
	sb.WriteString(fmt.Sprintf("| OPEN_SHORT | %d |\n", r.TradeCounts.OpenShort))
	sb.WriteString(fmt.Sprintf("| CLOSE_LONG | %d |\n", r.TradeCounts.CloseLong))
	sb.WriteString(fmt.Sprintf("| CLOSE_SHORT | %d |\n", r.TradeCounts.CloseShort))
	sb.WriteString(fmt.Sprintf("| Total | %d |\n", r.TradeCounts.Total()))
	sb.WriteString("\n")

	return sb.String()
}

// formatMetric renders a nullable metric, "n/a" when undefined.
func formatMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

// formatMs renders a unix-ms timestamp, "-" when absent.
func formatMs(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return time.UnixMilli(*ms).UTC().Format(time.RFC3339)
}
