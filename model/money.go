package model

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Sum returns Σ quantity × price over the cart lines.
func (c *Cart) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.CartItems {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
