package mocks

import (
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/types"
)

// DataGenerator generates realistic intraday bars for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// Symbol is the instrument (e.g., "RELIANCE")
	Symbol string
	// Location is the exchange time zone
	Location *time.Location
	// FirstDay is the first trading day; weekends are skipped
	FirstDay time.Time
	// Days is the number of trading days to generate
	Days int
	// OpenHour and OpenMinute are the local session open
	OpenHour   int
	OpenMinute int
	// BarsPerDay is the number of bars in each session
	BarsPerDay int
	// Interval is the duration between each bar
	Interval time.Duration
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.002 = 0.2% per bar)
	Volatility float64
	// Trend is the drift over the whole series (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns five NSE sessions of one minute bars.
func DefaultConfig() GeneratorConfig {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}

	return GeneratorConfig{
		Symbol:         "TEST",
		Location:       loc,
		FirstDay:       time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		Days:           5,
		OpenHour:       9,
		OpenMinute:     15,
		BarsPerDay:     375,
		Interval:       time.Minute,
		InitialPrice:   100.0,
		Volatility:     0.002,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars session by session. Prices follow a geometric
// Brownian motion carried across days.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}

	total := config.Days * config.BarsPerDay
	bars := make([]types.Bar, 0, total)
	currentPrice := config.InitialPrice
	day := time.Date(config.FirstDay.Year(), config.FirstDay.Month(), config.FirstDay.Day(), 0, 0, 0, 0, loc)

	for d := 0; d < config.Days; {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)

			continue
		}

		open := time.Date(day.Year(), day.Month(), day.Day(), config.OpenHour, config.OpenMinute, 0, 0, loc)

		for i := 0; i < config.BarsPerDay; i++ {
			bar := g.nextBar(config, currentPrice, total)
			bar.Symbol = config.Symbol
			bar.Time = open.Add(time.Duration(i) * config.Interval)
			bars = append(bars, bar)
			currentPrice = bar.Close
		}

		day = day.AddDate(0, 0, 1)
		d++
	}

	return bars
}

func (g *DataGenerator) nextBar(config GeneratorConfig, open float64, total int) types.Bar {
	// Box-Muller transform for a normal draw
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	drift := 0.0
	if total > 0 {
		drift = config.Trend / float64(total)
	}

	close := open * (1 + config.Volatility*z + drift)
	if close <= 0 {
		close = open * 0.99
	}

	high := math.Max(open, close) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)

	low := math.Min(open, close) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
	if low <= 0 {
		low = math.Min(open, close) * 0.99
	}

	volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
	if volume < 0 {
		volume = config.VolumeBase * 0.1
	}

	return types.Bar{
		Open:   roundToDecimals(open, 4),
		High:   roundToDecimals(high, 4),
		Low:    roundToDecimals(low, 4),
		Close:  roundToDecimals(close, 4),
		Volume: math.Round(volume),
	}
}

// GenerateMultiSymbol generates an independent series for each symbol.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.Bar {
	all := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		// Vary initial price and volatility slightly per symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all[symbol] = g.Generate(config)
	}

	return all
}

// GenerateSessions is a convenience function for a fixed-seed series of
// the given number of default sessions.
func GenerateSessions(symbol string, days int) []types.Bar {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Symbol = symbol
	config.Days = days

	return gen.Generate(config)
}

// WriteHistoryCSV writes bars in the broker download layout
// (timestamp_text, open, high, low, close, volume, oi).
func WriteHistoryCSV(path string, bars []types.Bar) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"timestamp_text", "open", "high", "low", "close", "volume", "oi"}); err != nil {
		return err
	}

	for _, bar := range bars {
		record := []string{
			bar.Time.Format(time.RFC3339),
			strconv.FormatFloat(bar.Open, 'f', -1, 64),
			strconv.FormatFloat(bar.High, 'f', -1, 64),
			strconv.FormatFloat(bar.Low, 'f', -1, 64),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
			strconv.FormatFloat(bar.Volume, 'f', -1, 64),
			strconv.FormatFloat(bar.OpenInterest, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
