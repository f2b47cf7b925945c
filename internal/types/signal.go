package types

// Signal is the per-bar trading decision produced by a strategy.
type Signal string

const (
	// SignalBuy opens a long position when flat.
	SignalBuy Signal = "BUY"
	// SignalSell closes an open position. It never opens a short.
	SignalSell Signal = "SELL"
	// SignalHold takes no action.
	SignalHold Signal = "HOLD"
	// SignalDefiningRange marks bars inside the opening-range window.
	SignalDefiningRange Signal = "DEFINING_RANGE"
)

// IsEntry reports whether the signal can open a position.
func (s Signal) IsEntry() bool {
	return s == SignalBuy
}

// String implements fmt.Stringer.
func (s Signal) String() string {
	return string(s)
}

// Holds returns a series of n HOLD signals.
func Holds(n int) []Signal {
	out := make([]Signal, n)
	for i := range out {
		out[i] = SignalHold
	}

	return out
}
