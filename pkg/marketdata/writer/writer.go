package writer

import (
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// MarketDataWriter defines the interface for writing downloaded bars to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.Bar) error
	// Rows returns the number of bars written so far.
	Rows() int
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
