package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/status"
)

const defaultRefresh = 10 * time.Second

// Model is the Bubble Tea model of the agent dashboard.
type Model struct {
	source       StatusSource
	refresh      time.Duration
	record       optional.Option[status.Record]
	prevClose    float64
	journalTable table.Model
	err          error
	lastUpdated  time.Time
	now          func() time.Time
	width        int
	height       int
}

// NewModel creates a dashboard polling source every refresh.
func NewModel(source StatusSource, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = defaultRefresh
	}

	return Model{
		source:       source,
		refresh:      refresh,
		record:       optional.None[status.Record](),
		journalTable: NewJournalTable(),
		now:          time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.journalTable.SetWidth(msg.Width)
		m.journalTable.SetHeight(max(msg.Height-18, 3))

		return m, nil

	case TickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case StatusMsg:
		if m.record.IsSome() {
			m.prevClose = m.record.Unwrap().ClosePrice
		}

		m.record = optional.Some(msg.Record)
		m.err = nil
		m.lastUpdated = m.now()
		m.journalTable = UpdateJournalRows(m.journalTable, msg.Record.TradeJournal)

		return m, nil

	case StatusErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	var cmd tea.Cmd
	m.journalTable, cmd = m.journalTable.Update(msg)

	return m, cmd
}

func (m Model) fetch() tea.Cmd {
	source := m.source

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		record, err := source.Fetch(ctx)
		if err != nil {
			return StatusErrorMsg{Err: err}
		}

		return StatusMsg{Record: record}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
