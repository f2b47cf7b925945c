package types

// IndicatorType names a technical indicator.
type IndicatorType string

const (
	// IndicatorTypeVWAP is the session-anchored volume weighted average price.
	IndicatorTypeVWAP IndicatorType = "vwap"
	// IndicatorTypeSMA is a simple moving average over a price or volume field.
	IndicatorTypeSMA IndicatorType = "sma"
	// IndicatorTypeBollingerBands is an SMA with population standard deviation bands.
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
)

// PriceField selects which bar field an indicator reads.
type PriceField string

const (
	FieldClose  PriceField = "close"
	FieldVolume PriceField = "volume"
)

// Value reads the field from a bar.
func (f PriceField) Value(b Bar) float64 {
	if f == FieldVolume {
		return b.Volume
	}

	return b.Close
}
