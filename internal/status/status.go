// Package status publishes the live agent's latest view of the market for
// dashboards: a flat JSON record written to a file and served over HTTP.
package status

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/session"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/utils"
)

// TimestampLayout is the local wall clock format of Record.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one status snapshot. An undefined opening range reports zero
// for both bounds.
type Record struct {
	Timestamp        string       `json:"timestamp"`
	Symbol           string       `json:"symbol,omitempty"`
	ClosePrice       float64      `json:"close_price"`
	CurrentSignal    types.Signal `json:"current_signal"`
	OpeningRangeHigh float64      `json:"opening_range_high"`
	OpeningRangeLow  float64      `json:"opening_range_low"`
	TradeTakenToday  bool         `json:"trade_taken_today"`
	PositionOpen     bool         `json:"position_open"`
	EntryPrice       float64      `json:"entry_price"`
	StopLossPrice    float64      `json:"stop_loss_price"`
	TakeProfitPrice  float64      `json:"take_profit_price"`
	TradeJournal     []string     `json:"trade_journal"`
}

// FromContext flattens a session context observed at now. The timestamp is
// rendered in loc.
func FromContext(symbol string, c session.Context, now time.Time, loc *time.Location) Record {
	if loc == nil {
		loc = time.Local
	}

	record := Record{
		Timestamp:       now.In(loc).Format(TimestampLayout),
		Symbol:          symbol,
		ClosePrice:      c.LastClose,
		CurrentSignal:   c.LastSignal,
		TradeTakenToday: c.TradeTakenToday,
		PositionOpen:    c.Position != nil,
		TradeJournal:    append([]string{}, c.Journal...),
	}

	if record.CurrentSignal == "" {
		record.CurrentSignal = types.SignalHold
	}

	if c.OpeningRange.Defined() {
		record.OpeningRangeHigh = c.OpeningRange.High
		record.OpeningRangeLow = c.OpeningRange.Low
	}

	if c.Position != nil {
		record.EntryPrice = c.Position.EntryPrice
		record.StopLossPrice = c.Position.StopLossPrice
		record.TakeProfitPrice = c.Position.TakeProfitPrice
	}

	return record
}

// Sink receives every record the agent produces.
type Sink interface {
	Write(record Record) error
}

// Sinks fans a record out to several sinks. Every sink is written even when
// an earlier one fails; the first error is returned.
type Sinks []Sink

func (s Sinks) Write(record Record) error {
	var first error

	for _, sink := range s {
		if err := sink.Write(record); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// FileWriter replaces a JSON file with every record.
type FileWriter struct {
	path string
}

func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

func (w *FileWriter) Path() string {
	return w.path
}

func (w *FileWriter) Write(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStatusWriteFailed, "failed to encode status", err)
	}

	if err := utils.WriteFileAtomic(w.path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeStatusWriteFailed, err, "failed to write status file %s", w.path)
	}

	return nil
}

// ReadFile reads a record written by FileWriter. The returned error wraps
// os.ErrNotExist when the agent has not written anything yet.
func ReadFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, errors.Wrapf(errors.ErrCodeStatusReadFailed, err, "failed to read status file %s", path)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, errors.Wrapf(errors.ErrCodeStatusReadFailed, err, "failed to decode status file %s", path)
	}

	if record.TradeJournal == nil {
		record.TradeJournal = []string{}
	}

	return record, nil
}
