package indicator

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
	ist *time.Location
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) SetupSuite() {
	loc, err := time.LoadLocation("Asia/Kolkata")
	suite.Require().NoError(err)
	suite.ist = loc
}

func (suite *IndicatorTestSuite) bars(day int, closes []float64, volumes []float64) []types.Bar {
	out := make([]types.Bar, len(closes))
	for i := range closes {
		out[i] = types.Bar{
			Time:   time.Date(2024, 1, day, 9, 15+i, 0, 0, suite.ist),
			Symbol: "TCS",
			Open:   closes[i],
			High:   closes[i] + 1,
			Low:    closes[i] - 1,
			Close:  closes[i],
			Volume: volumes[i],
		}
	}

	return out
}

func (suite *IndicatorTestSuite) TestSMAWarmUp() {
	bars := suite.bars(2, []float64{1, 2, 3, 4, 5}, []float64{10, 20, 30, 40, 50})

	result, err := NewSMA(types.FieldVolume, 3).Compute(bars)
	suite.Require().NoError(err)
	suite.Len(result.Value, 5)
	suite.True(result.Value[0].IsNone())
	suite.True(result.Value[1].IsNone())
	suite.InDelta(20.0, result.Value[2].Unwrap(), 1e-12)
	suite.InDelta(40.0, result.Value[4].Unwrap(), 1e-12)
	suite.Equal(Key{Kind: types.IndicatorTypeSMA, Field: types.FieldVolume, Period: 3}, result.Key)

	closeResult, err := NewSMA(types.FieldClose, 2).Compute(bars)
	suite.Require().NoError(err)
	suite.InDelta(4.5, closeResult.Value[4].Unwrap(), 1e-12)
}

func (suite *IndicatorTestSuite) TestSMAConfig() {
	sma := NewSMA(types.FieldClose, 20)

	suite.NoError(sma.Config(50))
	suite.Equal(50, sma.Key().Period)
	suite.NoError(sma.Config(10.0))
	suite.Equal(10, sma.Key().Period)

	err := sma.Config()
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
	err = sma.Config("ten")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidType))
	err = sma.Config(0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *IndicatorTestSuite) TestSMAShortSeries() {
	bars := suite.bars(2, []float64{1, 2}, []float64{1, 1})
	result, err := NewSMA(types.FieldClose, 5).Compute(bars)
	suite.Require().NoError(err)
	for _, v := range result.Value {
		suite.True(v.IsNone())
	}
}

func (suite *IndicatorTestSuite) TestVWAPResetsEachDay() {
	day1 := suite.bars(2, []float64{100, 102}, []float64{10, 30})
	day2 := suite.bars(3, []float64{200}, []float64{5})
	bars := append(day1, day2...)

	result, err := NewVWAP(suite.ist).Compute(bars)
	suite.Require().NoError(err)

	// typical price equals close because high and low are symmetric
	suite.InDelta(100.0, result.Value[0].Unwrap(), 1e-9)
	suite.InDelta((100*10+102*30)/40.0, result.Value[1].Unwrap(), 1e-9)
	suite.InDelta(200.0, result.Value[2].Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestVWAPZeroVolumeIsUndefined() {
	bars := suite.bars(2, []float64{100, 101}, []float64{0, 10})
	result, err := NewVWAP(suite.ist).Compute(bars)
	suite.Require().NoError(err)
	suite.True(result.Value[0].IsNone())
	suite.InDelta(101.0, result.Value[1].Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestVWAPDayBoundaryUsesSessionLocation() {
	// 18:45 UTC on Jan 1 is already Jan 2 in Kolkata
	bars := []types.Bar{
		{Time: time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC), High: 10, Low: 10, Close: 10, Volume: 1},
		{Time: time.Date(2024, 1, 1, 18, 45, 0, 0, time.UTC), High: 20, Low: 20, Close: 20, Volume: 1},
	}

	result, err := NewVWAP(suite.ist).Compute(bars)
	suite.Require().NoError(err)
	suite.InDelta(10.0, result.Value[0].Unwrap(), 1e-9)
	suite.InDelta(20.0, result.Value[1].Unwrap(), 1e-9)

	utc, err := NewVWAP(time.UTC).Compute(bars)
	suite.Require().NoError(err)
	suite.InDelta(15.0, utc.Value[1].Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestBollingerBandsPopulationStdDev() {
	bars := suite.bars(2, []float64{2, 4, 4, 4, 5, 5, 7, 9}, make([]float64, 8))

	bb := NewBollingerBands()
	suite.Require().NoError(bb.Config(8, 2.0))

	result, err := bb.Compute(bars)
	suite.Require().NoError(err)
	suite.True(result.Value[6].IsNone())
	suite.InDelta(5.0, result.Value[7].Unwrap(), 1e-12)
	// population std of the window is exactly 2
	suite.InDelta(9.0, result.Upper[7].Unwrap(), 1e-12)
	suite.InDelta(1.0, result.Lower[7].Unwrap(), 1e-12)
}

func (suite *IndicatorTestSuite) TestBollingerBandsConfig() {
	bb := NewBollingerBands()
	suite.Equal(20, bb.Key().Period)
	suite.Equal(2.0, bb.Key().Multiplier)

	suite.True(errors.HasCode(bb.Config(20), errors.ErrCodeMissingParameter))
	suite.True(errors.HasCode(bb.Config(20, 2), errors.ErrCodeInvalidType))
	suite.True(errors.HasCode(bb.Config(-1, 2.0), errors.ErrCodeInvalidPeriod))
	suite.True(errors.HasCode(bb.Config(20, 0.0), errors.ErrCodeInvalidMultiplier))
}

func (suite *IndicatorTestSuite) TestSeriesAt() {
	s := noneSeries(2)
	suite.True(s.At(-1).IsNone())
	suite.True(s.At(5).IsNone())
	suite.True(s.At(1).IsNone())
}

func (suite *IndicatorTestSuite) TestKeyString() {
	suite.Equal("vwap(UTC)", NewVWAP(nil).Key().String())
	suite.Equal("vwap(Asia/Kolkata)", NewVWAP(suite.ist).Key().String())
	suite.Equal("sma(volume,20)", NewSMA(types.FieldVolume, 20).Key().String())
	suite.Equal("bollinger_bands(close,20,2)", NewBollingerBands().Key().String())
}

func (suite *IndicatorTestSuite) TestRegistry() {
	bars := suite.bars(2, []float64{1, 2, 3}, []float64{1, 1, 1})
	registry := NewIndicatorRegistry(bars)

	sma := NewSMA(types.FieldClose, 2)
	_, err := registry.GetResult(sma.Key())
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))

	first, err := registry.GetOrCompute(sma)
	suite.Require().NoError(err)
	second, err := registry.GetOrCompute(sma)
	suite.Require().NoError(err)
	suite.Equal(first, second)

	err = registry.RegisterResult(first)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorAlreadyExists))

	err = registry.RegisterResult(Result{Key: Key{Kind: types.IndicatorTypeVWAP}, Value: noneSeries(1)})
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorCalculation))

	vwap, err := NewVWAP(suite.ist).Compute(bars)
	suite.Require().NoError(err)
	suite.Require().NoError(registry.RegisterResult(vwap))
	suite.Equal([]Key{sma.Key(), vwap.Key}, registry.ListKeys())

	suite.NoError(registry.RemoveResult(vwap.Key))
	suite.True(errors.HasCode(registry.RemoveResult(vwap.Key), errors.ErrCodeIndicatorNotFound))
}

func (suite *IndicatorTestSuite) TestRegistryKeepsVWAPPerLocation() {
	bars := suite.bars(2, []float64{100, 102, 104, 106}, []float64{10, 20, 30, 40})
	registry := NewIndicatorRegistry(bars)

	local, err := registry.GetOrCompute(NewVWAP(suite.ist))
	suite.Require().NoError(err)
	utc, err := registry.GetOrCompute(NewVWAP(time.UTC))
	suite.Require().NoError(err)

	suite.NotEqual(local.Key, utc.Key)
	suite.Len(registry.ListKeys(), 2)

	direct, err := NewVWAP(time.UTC).Compute(bars)
	suite.Require().NoError(err)
	suite.Equal(direct, utc)
}

func (suite *IndicatorTestSuite) TestRegistryConcurrentGetOrCompute() {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i))
	}

	registry := NewIndicatorRegistry(suite.bars(2, closes, closes))
	bb := NewBollingerBands()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := registry.GetOrCompute(bb)
			suite.NoError(err)
		}()
	}

	wg.Wait()
	suite.Len(registry.ListKeys(), 1)
}
