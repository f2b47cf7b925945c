package types

// EndOfDataPolicy decides how a position still open after the last bar is
// closed.
type EndOfDataPolicy string

const (
	// EndOfDataRawClose exits at the final close without slippage or brokerage.
	EndOfDataRawClose EndOfDataPolicy = "raw_close"
	// EndOfDataWithCosts exits like an opposite signal: slippage and brokerage apply.
	EndOfDataWithCosts EndOfDataPolicy = "with_costs"
)

// Valid reports whether p is a known policy.
func (p EndOfDataPolicy) Valid() bool {
	return p == EndOfDataRawClose || p == EndOfDataWithCosts
}

// PositionPolicy decides which sides a strategy may hold.
type PositionPolicy string

const (
	// PositionPolicyLongOnly opens longs on BUY. SELL only closes.
	PositionPolicyLongOnly PositionPolicy = "long_only"
)

// Valid reports whether p is a supported policy.
func (p PositionPolicy) Valid() bool {
	return p == PositionPolicyLongOnly
}
