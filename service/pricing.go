package service

import (
	"storefront/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectivePrice is the price a buyer pays right now: the base price, or the
// discounted price truncated to cents when the product is on sale with a positive discount.
func EffectivePrice(p *model.Product) decimal.Decimal {
	if !p.Sale.IsOnSale || !p.Sale.DiscountPercentage.IsPositive() {
		return p.Price
	}
	return discounted(p.Price, p.Sale.DiscountPercentage)
}

func discounted(price, pct decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(pct)).Div(hundred).RoundDown(2)
}

// cents reports whether d has at most two decimal places.
func cents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// ApplySale validates in and writes it onto p together with the cached sale price.
// p is left untouched when validation fails.
func ApplySale(p *model.Product, in model.SaleInput) error {
	pct := in.DiscountPercentage
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return model.Validation("Discount percentage must be between 0 and 100")
	}
	if !cents(pct) {
		return model.Validation("Discount percentage must have at most 2 decimal places")
	}
	if in.SaleStart != nil && in.SaleEnd != nil && in.SaleEnd.Before(*in.SaleStart) {
		return model.Validation("Sale end must not be before sale start")
	}

	sale := model.Sale{
		IsOnSale:           in.IsOnSale,
		DiscountPercentage: pct,
		SaleStart:          in.SaleStart,
		SaleEnd:            in.SaleEnd,
	}
	salePrice, err := cachedSalePrice(p.Price, sale)
	if err != nil {
		return err
	}
	sale.SalePrice = salePrice
	p.Sale = sale
	return nil
}

// refreshSalePrice recomputes the cached sale price after a base price change.
func refreshSalePrice(p *model.Product) error {
	salePrice, err := cachedSalePrice(p.Price, p.Sale)
	if err != nil {
		return err
	}
	p.Sale.SalePrice = salePrice
	return nil
}

func cachedSalePrice(price decimal.Decimal, sale model.Sale) (*decimal.Decimal, error) {
	if !sale.IsOnSale || !sale.DiscountPercentage.IsPositive() {
		return nil, nil
	}
	salePrice := discounted(price, sale.DiscountPercentage)
	if !salePrice.LessThan(price) {
		return nil, model.Validation("Sale price must be lower than original price")
	}
	return &salePrice, nil
}
