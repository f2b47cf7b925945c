package provider

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderUpstox  ProviderType = "upstox"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer for the provider
	// Writer is used to write the market data to the database.
	// It could be a file, a database, etc.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads the data for the given ticker and date range.
	// The context can be used to cancel the download operation.
	// example:
	// Download(ctx, "NSE_EQ|INE002A01018", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Minute, onProgress)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
	// Intraday returns today's candles for ticker, oldest first.
	Intraday(ctx context.Context, ticker string, multiplier int, timespan models.Timespan) ([]types.Bar, error)
}

// Config carries the credentials providers need.
type Config struct {
	UpstoxAccessToken string
	PolygonApiKey     string
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config Config) (Provider, error) {
	switch providerType {
	case ProviderUpstox:
		client, err := NewUpstoxClient(config.UpstoxAccessToken)
		if err != nil {
			return nil, err
		}

		return client, nil
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// SortBars orders bars by time and keeps the first bar seen for each
// timestamp.
func SortBars(bars []types.Bar) []types.Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	out := bars[:0]

	for i, b := range bars {
		if i > 0 && b.Time.Equal(out[len(out)-1].Time) {
			continue
		}

		out = append(out, b)
	}

	return out
}

// removeEmptyOutput deletes the output file of a writer that never received
// a bar, so an aborted download leaves nothing behind.
func removeEmptyOutput(w writer.MarketDataWriter) {
	if w.Rows() > 0 || w.GetOutputPath() == "" {
		return
	}

	_ = os.Remove(w.GetOutputPath())
}
