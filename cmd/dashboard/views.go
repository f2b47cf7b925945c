package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-intraday/internal/status"
)

// NewJournalTable creates the table listing the trade journal of the day.
func NewJournalTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Entry", Width: 70},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateJournalRows replaces the table rows with journal, oldest first.
func UpdateJournalRows(t table.Model, journal []string) table.Model {
	rows := make([]table.Row, 0, len(journal))

	for i, line := range journal {
		rows = append(rows, table.Row{fmt.Sprintf("%d", i+1), line})
	}

	t.SetRows(rows)

	return t
}

func field(label, value string) string {
	return LabelStyle.Render(label) + value + "\n"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}

// renderStatus renders the status panel for one record.
func renderStatus(r status.Record, prevClose float64) string {
	var s strings.Builder

	s.WriteString(field("Updated", r.Timestamp))
	s.WriteString(field("Close", FormatPriceWithColor(r.ClosePrice, prevClose)))
	s.WriteString(field("Signal", FormatSignal(r.CurrentSignal)))
	s.WriteString(field("Opening range", fmt.Sprintf("%.2f - %.2f", r.OpeningRangeLow, r.OpeningRangeHigh)))
	s.WriteString(field("Trade taken today", yesNo(r.TradeTakenToday)))

	if r.PositionOpen {
		s.WriteString(field("Position", fmt.Sprintf("LONG @ %.2f", r.EntryPrice)))
		s.WriteString(field("Stop loss", fmt.Sprintf("%.2f", r.StopLossPrice)))
		s.WriteString(field("Take profit", fmt.Sprintf("%.2f", r.TakeProfitPrice)))
	} else {
		s.WriteString(field("Position", "flat"))
	}

	return PanelStyle.Render(strings.TrimSuffix(s.String(), "\n"))
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	title := "ORB Agent Dashboard"
	if m.record.IsSome() && m.record.Unwrap().Symbol != "" {
		title = fmt.Sprintf("ORB Agent Dashboard - %s", m.record.Unwrap().Symbol)
	}

	s.WriteString(TitleStyle.Render(title))
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	if m.record.IsNone() {
		s.WriteString("Waiting for agent status...\n")
	} else {
		s.WriteString(renderStatus(m.record.Unwrap(), m.prevClose))
		s.WriteString("\n\n")
		s.WriteString(TitleStyle.Render("Trade Journal"))
		s.WriteString("\n")

		if len(m.record.Unwrap().TradeJournal) == 0 {
			s.WriteString("No trades yet today.\n")
		} else {
			s.WriteString(m.journalTable.View())
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render(fmt.Sprintf("q: quit | r: refresh | every %s from %s", m.refresh, m.source.Describe())))

	return s.String()
}
