package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/mocks"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// ClientTestSuite is a test suite for the Client implementation
type ClientTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	tempDir      string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

// SetupTest runs before each test
func (suite *ClientTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.tempDir = suite.T().TempDir()
}

func (suite *ClientTestSuite) newClient(format OutputFormat) *Client {
	return &Client{
		provider: suite.mockProvider,
		config: ClientConfig{
			ProviderType: ProviderUpstox,
			WriterType:   WriterDuckDB,
			Format:       format,
			DataPath:     suite.tempDir,
		},
		validate: validator.New(),
		logger:   logger.NewNopLogger(),
	}
}

func (suite *ClientTestSuite) params() DownloadParams {
	return DownloadParams{
		Ticker:     "NSE_EQ|INE002A01018",
		StartDate:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
		Multiplier: 1,
		Timespan:   models.Minute,
	}
}

func (suite *ClientTestSuite) TestClientDownload() {
	testCases := []struct {
		name        string
		returnPath  string
		returnErr   error
		expectError bool
	}{
		{name: "successful download", returnPath: "path/to/data"},
		{name: "download error", returnErr: os.ErrNotExist, expectError: true},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			params := suite.params()

			suite.mockProvider.EXPECT().
				ConfigWriter(gomock.Any()).
				Do(func(w writer.MarketDataWriter) {
					suite.Equal(filepath.Join(suite.tempDir, "NSE_EQ_INE002A01018_2023-01-01_2023-01-31_1_minute.parquet"), w.GetOutputPath())
				}).
				Times(1)

			suite.mockProvider.EXPECT().
				Download(
					gomock.Any(),
					"NSE_EQ|INE002A01018",
					params.StartDate,
					params.EndDate,
					1,
					models.Minute,
					gomock.Any(),
				).
				Return(tc.returnPath, tc.returnErr).
				Times(1)

			path, err := suite.newClient("").Download(context.Background(), params)

			if tc.expectError {
				suite.Error(err)
				suite.ErrorIs(err, os.ErrNotExist)
			} else {
				suite.NoError(err)
				suite.Equal(tc.returnPath, path)
			}
		})
	}
}

func (suite *ClientTestSuite) TestClientDownloadInvalidParams() {
	params := suite.params()
	params.Multiplier = 0

	_, err := suite.newClient("").Download(context.Background(), params)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid download parameters")
}

func (suite *ClientTestSuite) TestOutputPath() {
	params := suite.params()
	params.Symbol = "RELIANCE"

	suite.Equal(filepath.Join(suite.tempDir, "RELIANCE_2023-01-01_2023-01-31_1_minute.csv"), suite.newClient(FormatCSV).OutputPath(params))
	suite.Equal(filepath.Join(suite.tempDir, "RELIANCE_2023-01-01_2023-01-31_1_minute.parquet"), suite.newClient(FormatParquet).OutputPath(params))
}

// TestClientConfigValidation tests the validation of the ClientConfig struct
func (suite *ClientTestSuite) TestClientConfigValidation() {
	testCases := []struct {
		name        string
		config      ClientConfig
		expectError bool
		errorField  string
	}{
		{
			name: "valid upstox config",
			config: ClientConfig{
				ProviderType:      ProviderUpstox,
				WriterType:        WriterDuckDB,
				Format:            FormatCSV,
				DataPath:          "data",
				UpstoxAccessToken: "token",
			},
		},
		{
			name: "valid polygon config",
			config: ClientConfig{
				ProviderType:  ProviderPolygon,
				WriterType:    WriterDuckDB,
				DataPath:      "data",
				PolygonApiKey: "test-api-key",
			},
		},
		{
			name: "valid binance config",
			config: ClientConfig{
				ProviderType: ProviderBinance,
				WriterType:   WriterDuckDB,
				DataPath:     "data",
			},
		},
		{
			name: "missing provider type",
			config: ClientConfig{
				WriterType: WriterDuckDB,
				DataPath:   "data",
			},
			expectError: true,
			errorField:  "ProviderType",
		},
		{
			name: "invalid provider type",
			config: ClientConfig{
				ProviderType: "invalid",
				WriterType:   WriterDuckDB,
				DataPath:     "data",
			},
			expectError: true,
			errorField:  "ProviderType",
		},
		{
			name: "invalid writer type",
			config: ClientConfig{
				ProviderType: ProviderBinance,
				WriterType:   "invalid",
				DataPath:     "data",
			},
			expectError: true,
			errorField:  "WriterType",
		},
		{
			name: "invalid format",
			config: ClientConfig{
				ProviderType: ProviderBinance,
				WriterType:   WriterDuckDB,
				Format:       "json",
				DataPath:     "data",
			},
			expectError: true,
			errorField:  "Format",
		},
		{
			name: "missing data path",
			config: ClientConfig{
				ProviderType: ProviderBinance,
				WriterType:   WriterDuckDB,
			},
			expectError: true,
			errorField:  "DataPath",
		},
		{
			name: "missing polygon api key",
			config: ClientConfig{
				ProviderType: ProviderPolygon,
				WriterType:   WriterDuckDB,
				DataPath:     "data",
			},
			expectError: true,
			errorField:  "PolygonApiKey",
		},
		{
			name: "missing upstox access token",
			config: ClientConfig{
				ProviderType: ProviderUpstox,
				WriterType:   WriterDuckDB,
				DataPath:     "data",
			},
			expectError: true,
			errorField:  "UpstoxAccessToken",
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			err := validator.New().Struct(tc.config)

			if tc.expectError {
				suite.Error(err, "Expected validation error but got none")
				if err != nil {
					suite.Contains(err.Error(), tc.errorField, "Error should be related to the expected field")
				}
			} else {
				suite.NoError(err, "Unexpected validation error")
			}
		})
	}
}

// TestDownloadParamsValidation tests the validation of the DownloadParams struct
func (suite *ClientTestSuite) TestDownloadParamsValidation() {
	now := time.Now()

	testCases := []struct {
		name        string
		params      DownloadParams
		expectError bool
		errorField  string
	}{
		{
			name:   "valid download params",
			params: DownloadParams{Ticker: "AAPL", StartDate: now.Add(-24 * time.Hour), EndDate: now, Multiplier: 1, Timespan: models.Minute},
		},
		{
			name:        "missing ticker",
			params:      DownloadParams{StartDate: now.Add(-24 * time.Hour), EndDate: now, Multiplier: 1, Timespan: models.Minute},
			expectError: true,
			errorField:  "Ticker",
		},
		{
			name:        "end date before start date",
			params:      DownloadParams{Ticker: "AAPL", StartDate: now, EndDate: now.Add(-24 * time.Hour), Multiplier: 1, Timespan: models.Minute},
			expectError: true,
			errorField:  "EndDate",
		},
		{
			name:        "invalid multiplier (less than 1)",
			params:      DownloadParams{Ticker: "AAPL", StartDate: now.Add(-24 * time.Hour), EndDate: now, Timespan: models.Minute},
			expectError: true,
			errorField:  "Multiplier",
		},
		{
			name:        "missing timespan",
			params:      DownloadParams{Ticker: "AAPL", StartDate: now.Add(-24 * time.Hour), EndDate: now, Multiplier: 1},
			expectError: true,
			errorField:  "Timespan",
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			err := validator.New().Struct(tc.params)

			if tc.expectError {
				suite.Error(err)
				if err != nil {
					suite.Contains(err.Error(), tc.errorField)
				}
			} else {
				suite.NoError(err)
			}
		})
	}
}

// TestNewClient builds real providers, none of which touch the network on construction.
func (suite *ClientTestSuite) TestNewClient() {
	client, err := NewClient(ClientConfig{
		ProviderType:      ProviderUpstox,
		WriterType:        WriterDuckDB,
		DataPath:          suite.tempDir,
		UpstoxAccessToken: "token",
	}, nil)
	suite.Require().NoError(err)
	suite.IsType(&provider.UpstoxClient{}, client.provider)

	client, err = NewClient(ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir}, nil)
	suite.Require().NoError(err)
	suite.IsType(&provider.BinanceClient{}, client.provider)

	_, err = NewClient(ClientConfig{ProviderType: ProviderPolygon, WriterType: WriterDuckDB, DataPath: suite.tempDir}, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "invalid client configuration")
}
