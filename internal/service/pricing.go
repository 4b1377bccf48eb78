package service

import (
	"github.com/shopspring/decimal"
)

// PricedLine is the minimal view of an order line the pricing calculator
// needs. Bundle lines carry the bundle's fixed price as their unit price, so
// the calculator never needs to know about bundle composition.
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int32
}

// Totals is a fully computed order price breakdown.
type Totals struct {
	Subtotal    decimal.Decimal
	PlatformFee decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// ComputeTotals derives the order total from its parts. It is pure and
// idempotent: the same inputs always produce the same breakdown.
//
// The discount is capped at the subtotal and the grand total is clamped at
// zero, so an oversized voucher can never drive an order negative.
func ComputeTotals(lines []PricedLine, platformFee, deliveryFee, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	total := subtotal.Add(platformFee).Add(deliveryFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:    subtotal,
		PlatformFee: platformFee,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Total:       total,
	}
}

// Distance tier boundaries for metered delivery pricing.
var (
	freeDeliveryLimitKm = decimal.NewFromFloat(0.5)
	flatDeliveryLimitKm = decimal.NewFromInt(1)
)

// DistanceDeliveryFee computes the metered delivery fee:
// the first 0.5 km is free, up to 1 km costs the flat base fee, and beyond
// 1 km the per-kilometer rate applies to the distance in excess of 1 km.
func DistanceDeliveryFee(distanceKm, baseFee, perKmRate decimal.Decimal) decimal.Decimal {
	switch {
	case distanceKm.LessThanOrEqual(freeDeliveryLimitKm):
		return decimal.Zero
	case distanceKm.LessThanOrEqual(flatDeliveryLimitKm):
		return baseFee
	default:
		return perKmRate.Mul(distanceKm.Sub(flatDeliveryLimitKm))
	}
}
