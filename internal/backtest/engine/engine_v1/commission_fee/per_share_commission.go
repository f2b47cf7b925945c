package commission_fee

// PerShareCommissionFee charges rate per share with a minimum per leg.
type PerShareCommissionFee struct {
	rate    float64
	minimum float64
}

// NewPerShareCommissionFee creates a per-share schedule. A zero rate falls
// back to 0.005 per share with a 1.0 minimum.
func NewPerShareCommissionFee(rate, minimum float64) CommissionFee {
	if rate <= 0 {
		rate, minimum = 0.005, 1.0
	}

	return &PerShareCommissionFee{rate: rate, minimum: minimum}
}

func (c *PerShareCommissionFee) Calculate(quantity float64, price float64) float64 {
	fee := c.rate * quantity
	if fee < c.minimum {
		return c.minimum
	}

	return fee
}
