package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/RaulAdSe/garmin-trainer-sub003/internal/analysis"
)

// Colors
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F9FAFB") // Light gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			Background(primaryColor).
			Padding(0, 1).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	metricLabelStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Width(18)

	metricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(textColor)

	trendUpStyle   = lipgloss.NewStyle().Foreground(secondaryColor)
	trendDownStyle = lipgloss.NewStyle().Foreground(errorColor)
	trendFlatStyle = lipgloss.NewStyle().Foreground(mutedColor)

	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
)

// zoneStyle colors a recovery zone
func zoneStyle(z analysis.Zone) lipgloss.Style {
	switch z {
	case analysis.ZoneGreen:
		return lipgloss.NewStyle().Bold(true).Foreground(secondaryColor)
	case analysis.ZoneYellow:
		return lipgloss.NewStyle().Bold(true).Foreground(warningColor)
	case analysis.ZoneRed:
		return lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	default:
		return mutedStyle
	}
}

func riskStyle(r analysis.RiskZone) lipgloss.Style {
	switch r {
	case analysis.RiskOptimal:
		return trendUpStyle
	case analysis.RiskCaution:
		return warningStyle
	case analysis.RiskDanger:
		return trendDownStyle
	default:
		return mutedStyle
	}
}

// renderMetric renders a label, value and optional trend on one line. The
// trend is colored by whether the move is an improvement
func renderMetric(label, value, trend string, improving *bool) string {
	style := trendFlatStyle
	if improving != nil {
		if *improving {
			style = trendUpStyle
		} else {
			style = trendDownStyle
		}
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		metricLabelStyle.Render(label),
		metricValueStyle.Render(value),
		style.Render(" "+trend),
	)
}

// renderProgressBar renders an ASCII progress bar
func renderProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += trendUpStyle.Render("█")
		} else {
			bar += mutedStyle.Render("░")
		}
	}
	return bar
}

func card(title string, lines ...string) string {
	body := append([]string{cardTitleStyle.Render(title)}, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}
