package marketdata

import (
	"sort"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// Timespan is a candle interval such as "1m" or "1d".
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

type interval struct {
	multiplier int
	unit       models.Timespan
}

var intervals = map[Timespan]interval{
	TimespanOneSecond:      {1, models.Second},
	TimespanOneMinute:      {1, models.Minute},
	TimespanThreeMinutes:   {3, models.Minute},
	TimespanFiveMinutes:    {5, models.Minute},
	TimespanFifteenMinutes: {15, models.Minute},
	TimespanThirtyMinutes:  {30, models.Minute},
	TimespanOneHour:        {1, models.Hour},
	TimespanTwoHours:       {2, models.Hour},
	TimespanFourHours:      {4, models.Hour},
	TimespanSixHours:       {6, models.Hour},
	TimespanEightHours:     {8, models.Hour},
	TimespanTwelveHours:    {12, models.Hour},
	TimespanOneDay:         {1, models.Day},
	TimespanThreeDays:      {3, models.Day},
	TimespanOneWeek:        {1, models.Week},
	TimespanOneMonth:       {1, models.Month},
}

// ParseTimespan checks that s is a known interval.
func ParseTimespan(s string) (Timespan, error) {
	t := Timespan(s)
	if _, ok := intervals[t]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unknown interval %q, expected one of %v", s, Timespans())
	}

	return t, nil
}

// Timespans lists the known intervals, shortest unit first.
func Timespans() []string {
	out := make([]string, 0, len(intervals))
	for t := range intervals {
		out = append(out, string(t))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := intervals[Timespan(out[i])], intervals[Timespan(out[j])]
		if unitRank[a.unit] != unitRank[b.unit] {
			return unitRank[a.unit] < unitRank[b.unit]
		}

		return a.multiplier < b.multiplier
	})

	return out
}

var unitRank = map[models.Timespan]int{
	models.Second: 0,
	models.Minute: 1,
	models.Hour:   2,
	models.Day:    3,
	models.Week:   4,
	models.Month:  5,
}

// Multiplier is the count of units, 1 for an unknown interval.
func (t Timespan) Multiplier() int {
	if i, ok := intervals[t]; ok {
		return i.multiplier
	}

	return 1
}

// Timespan is the unit, a day for an unknown interval.
func (t Timespan) Timespan() models.Timespan {
	if i, ok := intervals[t]; ok {
		return i.unit
	}

	return models.Day
}
