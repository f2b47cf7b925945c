package marketdata

import (
	"fmt"
	"sort"

	"github.com/rxtech-lab/argo-intraday/pkg/utils"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderUpstox: {
		Name:         string(ProviderUpstox),
		DisplayName:  "Upstox",
		Description:  "Indian equity and derivatives broker with historical and intraday NSE/BSE candles",
		RequiresAuth: true,
	},
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market data provider with real-time and historical OHLCV data",
		RequiresAuth: true,
	},
	ProviderBinance: {
		Name:         string(ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange with extensive market data for crypto trading pairs",
		RequiresAuth: false,
	},
}

// GetSupportedProviders returns the supported provider names in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderUpstox:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.ToJSONSchema(UpstoxDownloadConfig{})
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.ToJSONSchema(PolygonDownloadConfig{})
	case ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return utils.ToJSONSchema(BinanceDownloadConfig{})
	default:
		return "", fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// GetDownloadKeychainFields returns the list of keychain field names for a provider's download configuration.
func GetDownloadKeychainFields(providerName string) ([]string, error) {
	switch ProviderType(providerName) {
	case ProviderUpstox:
		//nolint:exhaustruct // Empty struct is intentional for field introspection
		return utils.GetKeychainFields(UpstoxDownloadConfig{}), nil
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for field introspection
		return utils.GetKeychainFields(PolygonDownloadConfig{}), nil
	case ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for field introspection
		return utils.GetKeychainFields(BinanceDownloadConfig{}), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// DownloadConfig is implemented by every provider's download configuration.
type DownloadConfig interface {
	Validate() error
	ToDownloadParams() (DownloadParams, error)
	ToClientConfig(dataPath string) ClientConfig
}

// ParseDownloadConfig parses a JSON configuration string for the given provider.
func ParseDownloadConfig(providerName string, jsonConfig string) (DownloadConfig, error) {
	var (
		config DownloadConfig
		err    error
	)

	switch ProviderType(providerName) {
	case ProviderUpstox:
		config, err = unwrapConfig(ParseUpstoxConfig(jsonConfig))
	case ProviderPolygon:
		config, err = unwrapConfig(ParsePolygonConfig(jsonConfig))
	case ProviderBinance:
		config, err = unwrapConfig(ParseBinanceConfig(jsonConfig))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return config, err
}

func unwrapConfig[T DownloadConfig](config T, err error) (DownloadConfig, error) {
	if err != nil {
		return nil, err
	}

	return config, nil
}
