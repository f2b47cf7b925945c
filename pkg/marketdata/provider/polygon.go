package provider

import (
	"context"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/writer"
)

// PolygonAggsIterator is the part of the polygon aggregates iterator the
// client consumes.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregates.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPI struct {
	client *polygon.Client
}

func (p *polygonAPI) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return p.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	logger    *logger.Logger
	now       func() time.Time
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMarketDataUnauthorized, "apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPI{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI builds a client over any aggregates source.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: api,
		writer:    nil,
		logger:    logger.NewNopLogger(),
		now:       time.Now,
	}
}

func (c *PolygonClient) SetLogger(l *logger.Logger) {
	c.logger = l
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for PolygonClient. Call ConfigWriter first")
	}

	err = c.writer.Initialize()
	if err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer func() {
		if cerr := c.writer.Close(); cerr != nil {
			if err == nil {
				err = fmt.Errorf("error closing writer: %w", cerr)
			} else {
				c.logger.Warn("Error closing writer after another error", zap.Error(cerr))
			}
		}

		if err != nil {
			removeEmptyOutput(c.writer)
		}
	}()

	totalIterations := int(endDate.Sub(startDate).Hours()/24) + 1

	bar := progressbar.NewOptions(totalIterations, progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)), progressbar.OptionShowCount())

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	processedCount := 0

	for iter.Next() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		agg := iter.Item()

		err = c.writer.Write(aggToBar(ticker, agg))
		if err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}

		processedCount++

		currentTime := time.Time(agg.Timestamp)
		daysElapsed := int(currentTime.Sub(startDate).Hours() / 24)

		if onProgress != nil {
			onProgress(float64(daysElapsed), float64(totalIterations), fmt.Sprintf("Downloading %s", ticker))
		}

		if processedCount%1000 == 0 {
			_ = bar.Set(daysElapsed)
		}
	}

	if iter.Err() != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())
	}

	_ = bar.Finish()

	c.logger.Info("Finished downloading", zap.Int("bars", processedCount), zap.String("ticker", ticker))

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

// Intraday lists today's aggregates in UTC.
func (c *PolygonClient) Intraday(ctx context.Context, ticker string, multiplier int, timespan models.Timespan) ([]types.Bar, error) {
	now := c.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(now),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	var bars []types.Bar
	for iter.Next() {
		bars = append(bars, aggToBar(ticker, iter.Item()))
	}

	if iter.Err() != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())
	}

	return SortBars(bars), nil
}

func aggToBar(ticker string, agg models.Agg) types.Bar {
	return types.Bar{
		Time:   time.Time(agg.Timestamp),
		Symbol: ticker,
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}
