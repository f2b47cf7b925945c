package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/writer"
)

const (
	defaultUpstoxBaseURL = "https://api.upstox.com"
	defaultUpstoxPacing  = 500 * time.Millisecond
)

// upstoxLocation is the exchange time zone candles are dated in.
var upstoxLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}

	return loc
}()

// UpstoxClient reads candles from the Upstox v2 REST API. Tickers are
// instrument keys such as "NSE_EQ|INE002A01018".
type UpstoxClient struct {
	client *resty.Client
	writer writer.MarketDataWriter
	logger *logger.Logger
	pacing time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

type UpstoxOption func(*UpstoxClient)

// WithUpstoxBaseURL points the client at another host.
func WithUpstoxBaseURL(url string) UpstoxOption {
	return func(c *UpstoxClient) {
		c.client.SetBaseURL(url)
	}
}

// WithUpstoxPacing sets the pause between historical requests.
func WithUpstoxPacing(d time.Duration) UpstoxOption {
	return func(c *UpstoxClient) {
		c.pacing = d
	}
}

func WithUpstoxLogger(l *logger.Logger) UpstoxOption {
	return func(c *UpstoxClient) {
		c.logger = l
	}
}

func NewUpstoxClient(accessToken string, opts ...UpstoxOption) (*UpstoxClient, error) {
	if accessToken == "" {
		return nil, errors.New(errors.ErrCodeMarketDataUnauthorized, "upstox access token is required")
	}

	c := &UpstoxClient{
		client: resty.New().
			SetBaseURL(defaultUpstoxBaseURL).
			SetTimeout(30*time.Second).
			SetAuthToken(accessToken).
			SetHeader("Accept", "application/json"),
		logger: logger.NewNopLogger(),
		pacing: defaultUpstoxPacing,
		sleep:  sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *UpstoxClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

type upstoxCandleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Candles [][]json.RawMessage `json:"candles"`
	} `json:"data"`
	Errors []struct {
		ErrorCode string `json:"errorCode"`
		Message   string `json:"message"`
	} `json:"errors"`
}

// Download walks backwards one day at a time from endDate to startDate.
// Days the API reports as missing (weekends, holidays) are skipped, as are
// days that fail for any reason other than authorization.
func (c *UpstoxClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	interval, err := upstoxInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	if err = c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer func() {
		if err != nil {
			removeEmptyOutput(c.writer)
		}
	}()

	first := dayStart(startDate)
	last := dayStart(endDate)
	totalDays := int(last.Sub(first).Hours()/24) + 1

	bar := progressbar.NewOptions(totalDays, progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)), progressbar.OptionShowCount())

	done := 0

	for day := last; !day.Before(first); day = day.AddDate(0, 0, -1) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		date := day.Format(time.DateOnly)

		candles, fetchErr := c.historical(ctx, ticker, interval, date)

		switch {
		case errors.HasCode(fetchErr, errors.ErrCodeMarketDataUnauthorized):
			return "", fetchErr
		case errors.HasCode(fetchErr, errors.ErrCodeNoDataFound):
			c.logger.Warn("No data found, likely a weekend or holiday", zap.String("ticker", ticker), zap.String("date", date))
		case fetchErr != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			c.logger.Error("Upstox request failed", zap.String("ticker", ticker), zap.String("date", date), zap.Error(fetchErr))
		}

		for _, candle := range candles {
			if writeErr := c.writer.Write(candle); writeErr != nil {
				return "", fmt.Errorf("failed to write data: %w", writeErr)
			}
		}

		done++
		_ = bar.Set(done)

		if onProgress != nil {
			onProgress(float64(done), float64(totalDays), fmt.Sprintf("Downloading %s %s", ticker, date))
		}

		if sleepErr := c.sleep(ctx, c.pacing); sleepErr != nil {
			return "", sleepErr
		}
	}

	_ = bar.Finish()

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	c.logger.Info("Finished downloading", zap.String("ticker", ticker), zap.Int("bars", c.writer.Rows()))

	return outputPath, nil
}

// Intraday returns the current session's candles.
func (c *UpstoxClient) Intraday(ctx context.Context, ticker string, multiplier int, timespan models.Timespan) ([]types.Bar, error) {
	interval, err := upstoxInterval(timespan, multiplier)
	if err != nil {
		return nil, err
	}

	bars, err := c.get(ctx, ticker, "/v2/historical-candle/intraday/{instrumentKey}/{interval}",
		map[string]string{"instrumentKey": ticker, "interval": interval})
	if err != nil {
		return nil, err
	}

	return SortBars(bars), nil
}

func (c *UpstoxClient) historical(ctx context.Context, ticker, interval, date string) ([]types.Bar, error) {
	return c.get(ctx, ticker, "/v2/historical-candle/{instrumentKey}/{interval}/{toDate}/{fromDate}",
		map[string]string{"instrumentKey": ticker, "interval": interval, "toDate": date, "fromDate": date})
}

func (c *UpstoxClient) get(ctx context.Context, ticker, path string, params map[string]string) ([]types.Bar, error) {
	var body upstoxCandleResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(params).
		SetResult(&body).
		SetError(&body).
		Get(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "upstox request failed", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no candles for %s", ticker)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errors.Newf(errors.ErrCodeMarketDataUnauthorized, "upstox rejected the access token: %s", resp.Status())
	default:
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "upstox returned %s: %s", resp.Status(), upstoxErrorMessage(body))
	}

	bars := make([]types.Bar, 0, len(body.Data.Candles))

	for _, raw := range body.Data.Candles {
		candle, err := parseUpstoxCandle(ticker, raw)
		if err != nil {
			return nil, err
		}

		bars = append(bars, candle)
	}

	return bars, nil
}

func upstoxErrorMessage(body upstoxCandleResponse) string {
	if len(body.Errors) == 0 {
		return "unknown error"
	}

	return body.Errors[0].Message
}

// parseUpstoxCandle reads [timestamp, open, high, low, close, volume, oi].
func parseUpstoxCandle(ticker string, raw []json.RawMessage) (types.Bar, error) {
	if len(raw) < 6 {
		return types.Bar{}, errors.Newf(errors.ErrCodeMarketDataParseFailed, "candle has %d fields, expected at least 6", len(raw))
	}

	var stamp string
	if err := json.Unmarshal(raw[0], &stamp); err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "invalid candle timestamp", err)
	}

	at, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid candle timestamp %q", stamp)
	}

	values := make([]float64, 6)

	for i := 1; i < len(raw) && i <= 6; i++ {
		if err := json.Unmarshal(raw[i], &values[i-1]); err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid candle field %d at %s", i, stamp)
		}
	}

	return types.Bar{
		Time:         at.In(upstoxLocation),
		Symbol:       ticker,
		Open:         values[0],
		High:         values[1],
		Low:          values[2],
		Close:        values[3],
		Volume:       values[4],
		OpenInterest: values[5],
	}, nil
}

// upstoxInterval maps to the v2 interval names: 1minute, 30minute, day,
// week and month.
func upstoxInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch {
	case timespan == models.Minute && (multiplier == 1 || multiplier == 30):
		return fmt.Sprintf("%dminute", multiplier), nil
	case timespan == models.Day && multiplier == 1:
		return "day", nil
	case timespan == models.Week && multiplier == 1:
		return "week", nil
	case timespan == models.Month && multiplier == 1:
		return "month", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported interval for Upstox: %d %s", multiplier, timespan)
	}
}

func dayStart(t time.Time) time.Time {
	local := t.In(upstoxLocation)

	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, upstoxLocation)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
