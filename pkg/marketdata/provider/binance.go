package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/writer"
)

// binancePageSize is the number of klines Binance returns per request.
const binancePageSize = 500

// BinanceKlinesService is the builder for one klines request.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines requests.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPI struct {
	client *binance.Client
}

func (b *binanceAPI) NewKlinesService() BinanceKlinesService {
	return &binanceKlines{service: b.client.NewKlinesService()}
}

type binanceKlines struct {
	service *binance.KlinesService
}

func (k *binanceKlines) Symbol(symbol string) BinanceKlinesService {
	k.service.Symbol(symbol)

	return k
}

func (k *binanceKlines) Interval(interval string) BinanceKlinesService {
	k.service.Interval(interval)

	return k
}

func (k *binanceKlines) StartTime(startTime int64) BinanceKlinesService {
	k.service.StartTime(startTime)

	return k
}

func (k *binanceKlines) EndTime(endTime int64) BinanceKlinesService {
	k.service.EndTime(endTime)

	return k
}

func (k *binanceKlines) Do(ctx context.Context) ([]*binance.Kline, error) {
	return k.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
	writer    writer.MarketDataWriter
	now       func() time.Time
}

func NewBinanceClient() (Provider, error) {
	return NewBinanceClientWithAPI(&binanceAPI{client: binance.NewClient("", "")}), nil
}

// NewBinanceClientWithAPI builds a client over any klines source.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: api,
		writer:    nil,
		now:       time.Now,
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download downloads the historical klines data for the given ticker and date range from Binance.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", fmt.Errorf("failed to convert timespan to Binance interval: %w", err)
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	err = c.writer.Initialize()
	if err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer func() {
		if err != nil {
			removeEmptyOutput(c.writer)
		}
	}()

	endTimeMillis := endDate.UnixMilli()
	currentStartTime := startDate.UnixMilli()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		klines, fetchErr := c.fetch(ctx, ticker, interval, currentStartTime, endTimeMillis)
		if fetchErr != nil {
			return "", c.abort(errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", fetchErr))
		}

		if onProgress != nil {
			onProgress(float64(currentStartTime-startDate.UnixMilli()), float64(endTimeMillis-startDate.UnixMilli()),
				fmt.Sprintf("Downloading %s klines from Binance", ticker))
		}

		bars, parseErr := klinesToBars(ticker, klines)
		if parseErr != nil {
			return "", c.abort(parseErr)
		}

		for _, b := range bars {
			if writeErr := c.writer.Write(b); writeErr != nil {
				return "", c.abort(fmt.Errorf("failed to process klines: %w", writeErr))
			}
		}

		// a short page is the last one
		if len(klines) < binancePageSize {
			break
		}

		// close time of the last kline + 1ms avoids duplicates
		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

// Intraday returns the klines since midnight UTC.
func (c *BinanceClient) Intraday(ctx context.Context, ticker string, multiplier int, timespan models.Timespan) ([]types.Bar, error) {
	interval, err := convertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var bars []types.Bar

	current := start.UnixMilli()

	for {
		klines, err := c.fetch(ctx, ticker, interval, current, now.UnixMilli())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", err)
		}

		page, err := klinesToBars(ticker, klines)
		if err != nil {
			return nil, err
		}

		bars = append(bars, page...)

		if len(klines) < binancePageSize {
			break
		}

		current = klines[len(klines)-1].CloseTime + 1
	}

	return SortBars(bars), nil
}

func (c *BinanceClient) fetch(ctx context.Context, ticker, interval string, start, end int64) ([]*binance.Kline, error) {
	return c.apiClient.NewKlinesService().
		Symbol(ticker).
		Interval(interval).
		StartTime(start).
		EndTime(end).
		Do(ctx)
}

// abort finalizes what was written before err so the writer is left closed.
func (c *BinanceClient) abort(err error) error {
	if _, finalizeErr := c.writer.Finalize(); finalizeErr != nil {
		return fmt.Errorf("%w; also failed to finalize writer: %v", err, finalizeErr)
	}

	return err
}

// klinesToBars converts Binance klines, using the open time as the bar time.
func klinesToBars(ticker string, klines []*binance.Kline) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q at %d", raw, k.OpenTime)
			}

			values[i] = v
		}

		bars = append(bars, types.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Symbol: ticker,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return bars, nil
}

// convertTimespanToBinanceInterval converts the polygon timespan and multiplier to a Binance interval string.
// Binance intervals: 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch timespan {
	case models.Minute:
		return fmt.Sprintf("%dm", multiplier), nil
	case models.Hour:
		return fmt.Sprintf("%dh", multiplier), nil
	case models.Day:
		return fmt.Sprintf("%dd", multiplier), nil
	case models.Week:
		if multiplier == 1 {
			return "1w", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported weekly multiplier for Binance: %d", multiplier)
	case models.Month:
		if multiplier == 1 {
			return "1M", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported monthly multiplier for Binance: %d", multiplier)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for Binance: %s", timespan)
	}
}
