package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/indicator"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/stretchr/testify/suite"
)

// CacheTestSuite is a test suite for CacheV1
type CacheTestSuite struct {
	suite.Suite
	cache *CacheV1
}

// SetupTest runs before each test
func (suite *CacheTestSuite) SetupTest() {
	suite.cache = NewCacheV1().(*CacheV1)
}

// TestCacheSuite runs the test suite
func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func bars(n int) []types.Bar {
	out := make([]types.Bar, n)
	start := time.Date(2024, 1, 2, 3, 45, 0, 0, time.UTC)

	for i := range out {
		out[i] = types.Bar{Time: start.Add(time.Duration(i) * time.Minute), Symbol: "ITC", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}
	}

	return out
}

func (suite *CacheTestSuite) TestNewCacheV1() {
	cache := NewCacheV1()
	suite.Require().NotNil(cache)
	suite.IsType(&CacheV1{}, cache)
	suite.Equal(0, cache.Keys())
}

func (suite *CacheTestSuite) TestSetAndGet() {
	_, ok := suite.cache.Get("a.csv")
	suite.False(ok)

	suite.cache.Set("a.csv", Entry{Bars: bars(3)})

	entry, ok := suite.cache.Get("a.csv")
	suite.Require().True(ok)
	suite.Len(entry.Bars, 3)
	suite.NotNil(entry.Registry, "a registry is built when none is given")
}

func (suite *CacheTestSuite) TestSetKeepsRegistry() {
	series := bars(5)
	registry := indicator.NewIndicatorRegistry(series)

	_, err := registry.GetOrCompute(indicator.NewSMA(types.FieldClose, 2))
	suite.Require().NoError(err)

	suite.cache.Set("a.csv", Entry{Bars: series, Registry: registry})

	entry, _ := suite.cache.Get("a.csv")
	suite.Len(entry.Registry.ListKeys(), 1)
}

func (suite *CacheTestSuite) TestReset() {
	suite.cache.Set("a.csv", Entry{Bars: bars(1)})
	suite.cache.Set("b.csv", Entry{Bars: bars(1)})
	suite.Equal(2, suite.cache.Keys())

	suite.cache.Reset()

	suite.Equal(0, suite.cache.Keys())
	_, ok := suite.cache.Get("a.csv")
	suite.False(ok)
}

func (suite *CacheTestSuite) TestConcurrentAccess() {
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			key := fmt.Sprintf("%d.csv", i%4)
			suite.cache.Set(key, Entry{Bars: bars(2)})
			suite.cache.Get(key)
		}(i)
	}

	wg.Wait()
	suite.Equal(4, suite.cache.Keys())
}
