package marketdata

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderUpstox  ProviderType = "upstox"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// OutputFormat selects the file written by the DuckDB writer.
type OutputFormat string

const (
	FormatParquet OutputFormat = "parquet"
	// FormatCSV is the timestamp_text,open,high,low,close,volume,oi layout
	FormatCSV OutputFormat = "csv"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType      ProviderType `validate:"required,oneof=upstox polygon binance"`
	WriterType        WriterType   `validate:"required,oneof=duckdb"`
	Format            OutputFormat `validate:"omitempty,oneof=parquet csv"`
	DataPath          string       `validate:"required"`
	PolygonApiKey     string       `validate:"required_if=ProviderType polygon"`
	UpstoxAccessToken string       `validate:"required_if=ProviderType upstox"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
	// Symbol names the output file instead of the ticker, e.g. RELIANCE
	// for NSE_EQ|INE002A01018
	Symbol string
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	logger     *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(provider.ProviderType(config.ProviderType), provider.Config{
		UpstoxAccessToken: config.UpstoxAccessToken,
		PolygonApiKey:     config.PolygonApiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", config.ProviderType, err)
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
		logger:     logger.NewNopLogger(),
	}, nil
}

// SetLogger sets the logger used for writer cleanup warnings.
func (c *Client) SetLogger(l *logger.Logger) {
	c.logger = l
}

// Download initiates a market data download with the given parameters and
// returns the path of the written file.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", fmt.Errorf("invalid download parameters: %w", err)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", fmt.Errorf("failed to setup writer: %w", err)
	}

	defer func() {
		if err := marketWriter.Close(); err != nil {
			c.logger.Warn("Failed to close writer", zap.Error(err))
		}
	}()

	c.provider.ConfigWriter(marketWriter)

	path, err := c.provider.Download(
		ctx,
		params.Ticker,
		params.StartDate,
		params.EndDate,
		params.Multiplier,
		params.Timespan,
		c.onProgress,
	)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return path, nil
}

// OutputPath is where a download with params is written.
func (c *Client) OutputPath(params DownloadParams) string {
	name := params.Symbol
	if name == "" {
		name = params.Ticker
	}

	format := c.config.Format
	if format == "" {
		format = FormatParquet
	}

	// Construct filename: NAME_START_END_MULTIPLIER_TIMESPAN.FORMAT
	outputFileName := fmt.Sprintf("%s_%s_%s_%d_%s.%s",
		sanitizeFileName(name),
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Multiplier,
		params.Timespan,
		format)

	return filepath.Join(c.config.DataPath, outputFileName)
}

// setupWriter creates the writer for the configured type. The provider
// initializes it.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		return writer.NewDuckDBWriterWithLogger(c.OutputPath(params), c.logger), nil
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", c.config.WriterType)
	}
}

var fileNameReplacer = strings.NewReplacer("|", "_", "/", "_", "\\", "_", ":", "_", " ", "_")

func sanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}
