package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the per-agent metric rows as a CSV string.
func RenderCSV(agents []AgentRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("agent_id,name,strategy,status,killed,kill_reason,final_equity,total_return,")
	sb.WriteString("sharpe_ratio,max_drawdown,calmar_ratio,win_rate,beta,alpha,information_ratio,")
	sb.WriteString("total_trades,closing_trades,survival_time\n")

	// Rows
	for _, a := range agents {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%t,%s,%.6f,%.6f,%s,%.6f,%s,%s,%s,%s,%s,%d,%d,%d\n",
			a.AgentID,
			csvEscape(a.Name),
			a.Strategy,
			a.Status,
			a.Killed,
			csvEscape(a.KillReason),
			a.FinalEquity,
			a.TotalReturn,
			csvMetric(a.SharpeRatio),
			a.MaxDrawdown,
			csvMetric(a.CalmarRatio),
			csvMetric(a.WinRate),
			csvMetric(a.Beta),
			csvMetric(a.Alpha),
			csvMetric(a.InformationRatio),
			a.TotalTrades,
			a.ClosingTrades,
			a.SurvivalTime,
		))
	}

	return sb.String()
}

// csvMetric renders a nullable metric as an empty cell when undefined.
func csvMetric(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}

// csvEscape quotes a value containing commas or quotes.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
