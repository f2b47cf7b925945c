package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	// LabelStyle for field names in the status panel.
	LabelStyle = lipgloss.NewStyle().Faint(true).Width(20)

	// PanelStyle frames the status panel.
	PanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	buyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	sellStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	rangeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// FormatPriceWithColor formats a price with indicator based on comparison with previous price.
func FormatPriceWithColor(current, previous float64) string {
	priceStr := fmt.Sprintf("%.2f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return priceStr + " ▲"
	} else if current < previous {
		return priceStr + " ▼"
	}

	return priceStr
}

// FormatSignal renders a signal in its color.
func FormatSignal(signal types.Signal) string {
	switch signal {
	case types.SignalBuy:
		return buyStyle.Render(string(signal))
	case types.SignalSell:
		return sellStyle.Render(string(signal))
	case types.SignalDefiningRange:
		return rangeStyle.Render(string(signal))
	default:
		return string(signal)
	}
}
