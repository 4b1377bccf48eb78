package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const voucherColumns = `id, code, discount_type, value, min_order_amount, max_discount,
expires_at, usage_limit, usage_count, is_active, created_at`

func scanVoucher(row interface{ Scan(...any) error }) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Code, &v.DiscountType, &v.Value, &v.MinOrderAmount,
		&v.MaxDiscount, &v.ExpiresAt, &v.UsageLimit, &v.UsageCount, &v.IsActive, &v.CreatedAt)
	return v, err
}

type CreateVoucherParams struct {
	Code           string
	DiscountType   string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	MaxDiscount    pgtype.Numeric
	ExpiresAt      time.Time
	UsageLimit     int32
	IsActive       bool
}

func (q *Queries) CreateVoucher(ctx context.Context, arg CreateVoucherParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO vouchers (code, discount_type, value, min_order_amount, max_discount, expires_at, usage_limit, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+voucherColumns,
		arg.Code, arg.DiscountType, arg.Value, arg.MinOrderAmount, arg.MaxDiscount,
		arg.ExpiresAt, arg.UsageLimit, arg.IsActive)
	return scanVoucher(row)
}

func (q *Queries) GetVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	row := q.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE code = $1`, code)
	return scanVoucher(row)
}

func (q *Queries) ListVouchers(ctx context.Context) ([]Voucher, error) {
	rows, err := q.db.Query(ctx, `SELECT `+voucherColumns+` FROM vouchers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type UpdateVoucherParams struct {
	ID             uuid.UUID
	DiscountType   string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	MaxDiscount    pgtype.Numeric
	ExpiresAt      time.Time
	UsageLimit     int32
	IsActive       bool
}

func (q *Queries) UpdateVoucher(ctx context.Context, arg UpdateVoucherParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
UPDATE vouchers
SET discount_type = $2, value = $3, min_order_amount = $4, max_discount = $5,
    expires_at = $6, usage_limit = $7, is_active = $8
WHERE id = $1
RETURNING `+voucherColumns,
		arg.ID, arg.DiscountType, arg.Value, arg.MinOrderAmount, arg.MaxDiscount,
		arg.ExpiresAt, arg.UsageLimit, arg.IsActive)
	return scanVoucher(row)
}

func (q *Queries) DeleteVoucher(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	return tag.RowsAffected(), err
}

// IncrementVoucherUsage bumps the usage counter, but only while the voucher
// is still under its limit (limit 0 means unlimited). Returns pgx.ErrNoRows
// via the scan when the limit has been reached, which makes concurrent
// redemptions of the last slot race safely.
func (q *Queries) IncrementVoucherUsage(ctx context.Context, code string) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
UPDATE vouchers
SET usage_count = usage_count + 1
WHERE code = $1 AND is_active AND (usage_limit = 0 OR usage_count < usage_limit)
RETURNING `+voucherColumns, code)
	return scanVoucher(row)
}
