package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// Format is the on-disk layout of a bar file.
type Format string

const (
	// FormatParquet is the layout written by the market data writer.
	FormatParquet Format = "parquet"
	// FormatCSV is the broker export layout: timestamp_text, open, high, low, close, volume, oi.
	FormatCSV Format = "csv"
)

type DataSource interface {
	// Initialize points the data source at a parquet or csv bar file
	Initialize(path string) error
	// ReadAll reads the bars between start and end (inclusive) and yields them in time order
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// ReadSeries collects ReadAll into a slice
	ReadSeries(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Count returns the number of bars between start and end
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}
