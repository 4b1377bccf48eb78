package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/store"
	"github.com/shopspring/decimal"
)

// Voucher rejection reasons. Checks short-circuit in this order: unknown or
// inactive code, expiry, usage limit, minimum order amount.
var (
	ErrVoucherInvalidCode  = errors.New("invalid voucher code")
	ErrVoucherExpired      = errors.New("voucher has expired")
	ErrVoucherUsageLimit   = errors.New("voucher usage limit reached")
	ErrVoucherBelowMinimum = errors.New("order amount below voucher minimum")
)

// NormalizeVoucherCode upper-cases and trims a customer-entered code.
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateVoucher checks a voucher against an order amount and returns the
// discount it grants. It never mutates the voucher: usage is incremented
// separately at confirmed order placement, so repeated validation while the
// customer edits their cart cannot burn redemptions.
func ValidateVoucher(v store.Voucher, orderAmount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !v.IsActive {
		return decimal.Zero, ErrVoucherInvalidCode
	}
	if !now.Before(v.ExpiresAt) {
		return decimal.Zero, ErrVoucherExpired
	}
	if v.UsageLimit > 0 && v.UsageCount >= v.UsageLimit {
		return decimal.Zero, ErrVoucherUsageLimit
	}
	minAmount := numericToDecimal(v.MinOrderAmount)
	if orderAmount.LessThan(minAmount) {
		return decimal.Zero, fmt.Errorf("%w: minimum order amount is %s", ErrVoucherBelowMinimum, minAmount.StringFixed(2))
	}

	value := numericToDecimal(v.Value)
	if v.DiscountType == enum.VoucherTypeFixed {
		return value, nil
	}

	discount := orderAmount.Mul(value).Div(decimal.NewFromInt(100))
	if v.MaxDiscount.Valid {
		if maxDiscount := numericToDecimal(v.MaxDiscount); discount.GreaterThan(maxDiscount) {
			discount = maxDiscount
		}
	}
	return discount, nil
}

// VoucherStore defines the DB methods needed to validate vouchers.
type VoucherStore interface {
	GetVoucherByCode(ctx context.Context, code string) (store.Voucher, error)
}

// VoucherService handles voucher validation against the live voucher table.
type VoucherService struct {
	store VoucherStore
}

// NewVoucherService creates a new VoucherService.
func NewVoucherService(s VoucherStore) *VoucherService {
	return &VoucherService{store: s}
}

// Validate looks up a code and runs the validation chain for the given order
// amount. An unknown code reports ErrVoucherInvalidCode like an inactive one.
func (s *VoucherService) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	v, err := s.store.GetVoucherByCode(ctx, NormalizeVoucherCode(code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrVoucherInvalidCode
		}
		return decimal.Zero, fmt.Errorf("get voucher: %w", err)
	}
	return ValidateVoucher(v, orderAmount, time.Now())
}

// IsVoucherRejection reports whether err is one of the four validator
// failure modes, as opposed to an infrastructure error.
func IsVoucherRejection(err error) bool {
	return errors.Is(err, ErrVoucherInvalidCode) ||
		errors.Is(err, ErrVoucherExpired) ||
		errors.Is(err, ErrVoucherUsageLimit) ||
		errors.Is(err, ErrVoucherBelowMinimum)
}
