package types

import (
	"time"

	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// Bar is one OHLCV candle for a single instrument.
type Bar struct {
	Time         time.Time `json:"time" yaml:"time"`
	Symbol       string    `json:"symbol" yaml:"symbol"`
	Open         float64   `json:"open" yaml:"open"`
	High         float64   `json:"high" yaml:"high"`
	Low          float64   `json:"low" yaml:"low"`
	Close        float64   `json:"close" yaml:"close"`
	Volume       float64   `json:"volume" yaml:"volume"`
	OpenInterest float64   `json:"open_interest" yaml:"open_interest"`
}

// TypicalPrice returns (high + low + close) / 3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// ValidateSeries checks that timestamps are strictly increasing, which also
// rules out duplicates. An empty series is valid.
func ValidateSeries(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return errors.NewInvalidSeriesErrorf(i, "timestamp %s is not after previous bar %s",
				bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

// Closes extracts the close prices of a series.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}

	return out
}

// Volumes extracts the volumes of a series.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}

	return out
}
