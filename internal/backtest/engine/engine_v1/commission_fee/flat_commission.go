package commission_fee

// FlatCommissionFee charges a fixed amount per leg regardless of size.
type FlatCommissionFee struct {
	fee float64
}

func NewFlatCommissionFee(fee float64) CommissionFee {
	return &FlatCommissionFee{fee: fee}
}

func (c *FlatCommissionFee) Calculate(quantity float64, price float64) float64 {
	return c.fee
}
