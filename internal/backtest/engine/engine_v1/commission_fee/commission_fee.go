package commission_fee

import "github.com/rxtech-lab/argo-intraday/pkg/errors"

// CommissionFee prices one leg of a round trip.
type CommissionFee interface {
	// Calculate the brokerage for a leg of quantity shares at price
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	// BrokerFlat charges the same fee on every leg, like Indian discount brokers.
	BrokerFlat     Broker = "flat"
	BrokerPerShare Broker = "per_share"
	BrokerZero     Broker = "zero"
)

var AllBrokers = []any{
	BrokerFlat,
	BrokerPerShare,
	BrokerZero,
}

// Schedule carries the numbers each broker model reads.
type Schedule struct {
	// FlatFee is charged per leg by BrokerFlat.
	FlatFee float64
	// PerShareRate and PerShareMinimum configure BrokerPerShare.
	PerShareRate    float64
	PerShareMinimum float64
}

// GetCommissionFeeHandler returns the fee model for broker. An unknown broker
// is an error.
func GetCommissionFeeHandler(broker Broker, schedule Schedule) (CommissionFee, error) {
	switch broker {
	case BrokerFlat:
		return NewFlatCommissionFee(schedule.FlatFee), nil
	case BrokerPerShare:
		return NewPerShareCommissionFee(schedule.PerShareRate, schedule.PerShareMinimum), nil
	case BrokerZero:
		return NewZeroCommissionFee(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedBroker, "unsupported broker %q", broker)
	}
}
