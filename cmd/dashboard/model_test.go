package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/rxtech-lab/argo-intraday/internal/status"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() status.Record {
	return status.Record{
		Timestamp:        "2024-01-02 09:46:00",
		Symbol:           "HDFCBANK",
		ClosePrice:       102.4,
		CurrentSignal:    types.SignalBuy,
		OpeningRangeHigh: 102,
		OpeningRangeLow:  99,
		TradeTakenToday:  true,
		PositionOpen:     true,
		EntryPrice:       102,
		StopLossPrice:    99.96,
		TakeProfitPrice:  106.08,
		TradeJournal:     []string{"BUY Entry at 102.00 for 980.39 shares."},
	}
}

type staticSource struct {
	record status.Record
	err    error
}

func (s staticSource) Fetch(context.Context) (status.Record, error) {
	return s.record, s.err
}

func (s staticSource) Describe() string {
	return "static"
}

func TestNewModel(t *testing.T) {
	m := NewModel(FileSource{Path: "status.json"}, 0)

	assert.Equal(t, defaultRefresh, m.refresh)
	assert.True(t, m.record.IsNone())
	assert.NoError(t, m.err)
}

func TestFormatPriceWithColor(t *testing.T) {
	assert.Equal(t, "101.50", FormatPriceWithColor(101.5, 0))
	assert.Equal(t, "101.50 ▲", FormatPriceWithColor(101.5, 100))
	assert.Equal(t, "99.00 ▼", FormatPriceWithColor(99, 100))
	assert.Equal(t, "100.00", FormatPriceWithColor(100, 100))
}

func TestFormatSignal(t *testing.T) {
	for _, signal := range []types.Signal{types.SignalBuy, types.SignalSell, types.SignalDefiningRange, types.SignalHold} {
		assert.Contains(t, FormatSignal(signal), string(signal))
	}
}

func TestUpdateKeepsPreviousClose(t *testing.T) {
	m := NewModel(staticSource{}, time.Second)

	first := testRecord()
	updated, _ := m.Update(StatusMsg{Record: first})
	m = updated.(Model)
	assert.Equal(t, 0.0, m.prevClose)
	assert.Len(t, m.journalTable.Rows(), 1)

	second := testRecord()
	second.ClosePrice = 103
	updated, _ = m.Update(StatusMsg{Record: second})
	m = updated.(Model)
	assert.Equal(t, 102.4, m.prevClose)
	assert.Contains(t, m.View(), "103.00 ▲")
}

func TestUpdateErrorKeepsLastRecord(t *testing.T) {
	m := NewModel(staticSource{}, time.Second)

	updated, _ := m.Update(StatusMsg{Record: testRecord()})
	updated, _ = updated.Update(StatusErrorMsg{Err: assert.AnError})
	m = updated.(Model)

	assert.True(t, m.record.IsSome())
	assert.Contains(t, m.View(), "Error:")
	assert.Contains(t, m.View(), "HDFCBANK")
}

func TestViewFlatWithoutJournal(t *testing.T) {
	record := testRecord()
	record.PositionOpen = false
	record.TradeJournal = []string{}

	m := NewModel(staticSource{}, time.Second)
	updated, _ := m.Update(StatusMsg{Record: record})
	view := updated.View()

	assert.Contains(t, view, "flat")
	assert.Contains(t, view, "No trades yet today.")
	assert.NotContains(t, view, "Stop loss")
}

func TestDashboardReadsStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, status.NewFileWriter(path).Write(testRecord()))

	m := NewModel(FileSource{Path: path}, 50*time.Millisecond)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("HDFCBANK")) &&
			bytes.Contains(bts, []byte("BUY Entry at 102.00"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

func TestDashboardWaitsForMissingFile(t *testing.T) {
	m := NewModel(FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}, time.Second)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Waiting for agent status")) &&
			bytes.Contains(bts, []byte("Error:"))
	}, teatest.WithDuration(2*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestHTTPSource(t *testing.T) {
	server := status.NewServer(nil)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	source := NewHTTPSource(ts.URL)
	assert.Equal(t, ts.URL, source.Describe())

	_, err := source.Fetch(context.Background())
	assert.ErrorContains(t, err, "503")

	require.NoError(t, server.Write(testRecord()))

	record, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testRecord(), record)
}
