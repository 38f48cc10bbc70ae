// Package report renders daily analytics for the terminal
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
	"github.com/RaulAdSe/garmin-trainer-sub003/internal/service"
)

const (
	chartHeight = 8
	chartWidth  = 60
)

var streakLabels = map[string]string{
	analysis.StreakGreenRecovery: "Green recovery",
	analysis.StreakStepGoal:      "Step goal",
	analysis.StreakSleepGoal:     "Sleep goal",
}

// Render lays out the full daily report
func Render(a *service.DailyAnalytics) string {
	if a == nil {
		return ""
	}

	var sections []string
	sections = append(sections, headerStyle.Render("Daily insights · "+a.Date))

	if !a.HasData {
		sections = append(sections, mutedStyle.Render("No data recorded for this day."))
	}

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, renderRecovery(a), "  ", renderToday(a))
	midRow := lipgloss.JoinHorizontal(lipgloss.Top, renderLoad(a.TrainingLoad), "  ", renderSleep(a))
	sections = append(sections, topRow, midRow, renderWeek(a.WeeklySummary))

	if chart := renderChart(a.RecoveryHistory); chart != "" {
		sections = append(sections, chart)
	}
	if patterns := renderPatterns(a.WeeklySummary); patterns != "" {
		sections = append(sections, patterns)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderRecovery(a *service.DailyAnalytics) string {
	score := "-"
	if a.Recovery.Score != nil {
		score = fmt.Sprintf("%d", *a.Recovery.Score)
	}

	lines := []string{
		renderMetric("Recovery", score, "", nil),
		renderMetric("Zone", zoneStyle(a.Recovery.Zone).Render(string(a.Recovery.Zone)), "", nil),
		renderMetric("Strain", formatFloat(a.Strain, 1), "", nil),
		renderMetric("Yesterday strain", formatFloat(a.YesterdayStrain, 1), "", nil),
	}

	if in := a.Insight; in != nil {
		lines = append(lines,
			"",
			zoneStyle(a.Recovery.Zone).Render(fmt.Sprintf("%s · %s", in.Decision, in.Headline)),
			renderMetric("Strain target", fmt.Sprintf("%.0f-%.0f", in.StrainTarget[0], in.StrainTarget[1]), "", nil),
			mutedStyle.Width(40).Render(in.Explanation),
		)
	} else {
		lines = append(lines, "", mutedStyle.Render("Not enough data for a recommendation."))
	}

	return card("Recovery", lines...)
}

func renderToday(a *service.DailyAnalytics) string {
	var lines []string
	for _, m := range analysis.AllMetrics {
		value := "-"
		if v := a.Today[m]; v != nil {
			value = formatMetric(m, *v)
		}
		trend, improving := formatDirection(a.Directions[m])
		lines = append(lines, renderMetric(metricTitle(m), value, trend, improving))
	}
	return card("Today vs 7-day baseline", lines...)
}

func renderLoad(l analysis.LoadState) string {
	acwr := "-"
	if l.ACWR != nil {
		acwr = fmt.Sprintf("%.2f", *l.ACWR)
	}

	lines := []string{
		renderMetric("Fitness (CTL)", fmt.Sprintf("%.1f", l.CTL), "", nil),
		renderMetric("Fatigue (ATL)", fmt.Sprintf("%.1f", l.ATL), "", nil),
		renderMetric("Form (TSB)", fmt.Sprintf("%+.1f", l.TSB), "", nil),
		renderMetric("ACWR", acwr, riskStyle(l.RiskZone).Render(string(l.RiskZone)), nil),
		"",
		mutedStyle.Render(l.Form),
	}
	return card("Training load", lines...)
}

func renderSleep(a *service.DailyAnalytics) string {
	d := a.SleepDebt
	lines := []string{
		renderMetric("Debt", fmt.Sprintf("%.1fh", d.DebtHours), string(d.Impact), nil),
		renderMetric("Target", fmt.Sprintf("%.1fh", d.TargetHours), "", nil),
		renderMetric("Nights counted", fmt.Sprintf("%d/%d", d.DaysWithData, d.WindowDays), "", nil),
	}
	if a.Insight != nil {
		lines = append(lines, renderMetric("Tonight", fmt.Sprintf("%.1fh", a.Insight.SleepTarget), "", nil))
	}
	return card("Sleep", lines...)
}

func renderWeek(w analysis.WeeklySummary) string {
	total := w.GreenDays + w.YellowDays + w.RedDays

	lines := []string{
		fmt.Sprintf("%s %s %s",
			zoneStyle(analysis.ZoneGreen).Render(fmt.Sprintf("%d green", w.GreenDays)),
			zoneStyle(analysis.ZoneYellow).Render(fmt.Sprintf("%d yellow", w.YellowDays)),
			zoneStyle(analysis.ZoneRed).Render(fmt.Sprintf("%d red", w.RedDays)),
		),
	}
	if total > 0 {
		lines = append(lines, renderProgressBar(float64(w.GreenDays)/float64(total), 28))
	}

	lines = append(lines,
		"",
		renderMetric("Avg recovery", formatFloat(w.Averages["recovery"], 0), "", nil),
		renderMetric("Avg strain", formatFloat(w.Averages["strain"], 1), "", nil),
	)

	averages := []struct {
		label  string
		metric analysis.Metric
		value  string
	}{
		{"Avg HRV", analysis.MetricHRV, formatFloat(w.Averages["hrv"], 1)},
		{"Avg sleep", analysis.MetricSleep, formatHours(w.Averages["sleep"])},
		{"Avg steps", analysis.MetricSteps, formatSteps(w.Averages["steps"])},
	}
	for _, avg := range averages {
		trend, improving := formatDirection(w.WeekOverWeek[avg.metric])
		lines = append(lines, renderMetric(avg.label, avg.value, trend, improving))
	}

	if w.BestDay != nil && w.WorstDay != nil {
		lines = append(lines,
			"",
			mutedStyle.Render(fmt.Sprintf("Best %s (%d) · Worst %s (%d)",
				w.BestDay.Date.Format("Mon Jan 02"), *w.BestDay.Recovery,
				w.WorstDay.Date.Format("Mon Jan 02"), *w.WorstDay.Recovery)),
		)
	}

	return card("This week", lines...)
}

func renderChart(history []analysis.DaySummary) string {
	// history is newest first; the chart reads left to right
	var data []float64
	for i := len(history) - 1; i >= 0; i-- {
		if r := history[i].Recovery; r != nil {
			data = append(data, float64(*r))
		}
	}
	if len(data) < 3 {
		return ""
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Precision(0),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
	)
	return card(fmt.Sprintf("Recovery · last %d scored days", len(data)), graph)
}

func renderPatterns(w analysis.WeeklySummary) string {
	var lines []string

	for _, s := range w.Streaks {
		label, ok := streakLabels[s.Name]
		if !ok {
			label = s.Name
		}
		lines = append(lines, renderMetric(label, fmt.Sprintf("%d days", s.CurrentCount),
			mutedStyle.Render(fmt.Sprintf("best %d", s.BestCount)), nil))
	}

	for _, t := range w.TrendAlerts {
		style := warningStyle
		switch t.Severity {
		case analysis.SeverityConcern:
			style = trendDownStyle
		case analysis.SeverityPositive:
			style = trendUpStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s %s %.1f%% over %d days (%s)",
			metricTitle(t.Metric), t.Direction, t.ChangePct, t.Days, t.Severity)))
	}

	for _, c := range w.Correlations {
		lines = append(lines, fmt.Sprintf("%s %s",
			metricValueStyle.Render(c.Title),
			mutedStyle.Render(fmt.Sprintf("%+.0f%%, %d days, confidence %.0f%%", c.ImpactPct, c.SampleSize, c.Confidence*100)),
		))
	}

	if len(lines) == 0 {
		return ""
	}
	return card("Patterns", lines...)
}

// formatDirection renders a direction as an arrow and percentage; the second
// value reports whether the move is an improvement, nil when stable
func formatDirection(d *analysis.DirectionResult) (string, *bool) {
	if d == nil {
		return "", nil
	}
	switch d.Direction {
	case analysis.DirectionUp, analysis.DirectionDown:
		arrow := "↑"
		if d.ChangePct < 0 {
			arrow = "↓"
		}
		improving := d.Direction == analysis.DirectionUp
		return fmt.Sprintf("%s%.1f%%", arrow, abs(d.ChangePct)), &improving
	default:
		return "→", nil
	}
}

func metricTitle(m analysis.Metric) string {
	label := m.Label()
	if m == analysis.MetricHRV {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func formatMetric(m analysis.Metric, v float64) string {
	switch m {
	case analysis.MetricSleep:
		return fmt.Sprintf("%.1fh", v)
	case analysis.MetricSteps:
		return humanize.Comma(int64(v))
	case analysis.MetricIntensityMinutes:
		return fmt.Sprintf("%.0f min", v)
	case analysis.MetricRestingHR:
		return fmt.Sprintf("%.0f bpm", v)
	case analysis.MetricHRV:
		return fmt.Sprintf("%.0f ms", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func formatFloat(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", places, *v)
}

func formatHours(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fh", *v)
}

func formatSteps(v *float64) string {
	if v == nil {
		return "-"
	}
	return humanize.Comma(int64(*v))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
