package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Restaurant settings (single row) ---

const settingsColumns = `id, platform_fee_enabled, platform_fee_amount, delivery_fee_mode,
delivery_base_fee, delivery_per_km_rate, avg_delivery_minutes, preorder_restrictions_enabled, updated_at`

func scanSettings(row interface{ Scan(...any) error }) (Settings, error) {
	var s Settings
	err := row.Scan(&s.ID, &s.PlatformFeeEnabled, &s.PlatformFeeAmount, &s.DeliveryFeeMode,
		&s.DeliveryBaseFee, &s.DeliveryPerKmRate, &s.AvgDeliveryMinutes,
		&s.PreorderRestrictionsEnabled, &s.UpdatedAt)
	return s, err
}

func (q *Queries) GetSettings(ctx context.Context) (Settings, error) {
	row := q.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM restaurant_settings LIMIT 1`)
	return scanSettings(row)
}

type UpdateSettingsParams struct {
	PlatformFeeEnabled bool
	PlatformFeeAmount  pgtype.Numeric
	DeliveryFeeMode    string
	DeliveryBaseFee    pgtype.Numeric
	DeliveryPerKmRate  pgtype.Numeric
	AvgDeliveryMinutes int32
}

func (q *Queries) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) (Settings, error) {
	row := q.db.QueryRow(ctx, `
UPDATE restaurant_settings
SET platform_fee_enabled = $1, platform_fee_amount = $2, delivery_fee_mode = $3,
    delivery_base_fee = $4, delivery_per_km_rate = $5, avg_delivery_minutes = $6, updated_at = now()
RETURNING `+settingsColumns,
		arg.PlatformFeeEnabled, arg.PlatformFeeAmount, arg.DeliveryFeeMode,
		arg.DeliveryBaseFee, arg.DeliveryPerKmRate, arg.AvgDeliveryMinutes)
	return scanSettings(row)
}

func (q *Queries) SetPreorderRestrictionsEnabled(ctx context.Context, enabled bool) error {
	_, err := q.db.Exec(ctx, `
UPDATE restaurant_settings SET preorder_restrictions_enabled = $1, updated_at = now()`, enabled)
	return err
}

// --- Per-barangay delivery fees ---

func (q *Queries) ListDeliveryFees(ctx context.Context) ([]DeliveryFee, error) {
	rows, err := q.db.Query(ctx, `SELECT id, barangay, fee FROM delivery_fees ORDER BY barangay`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DeliveryFee
	for rows.Next() {
		var f DeliveryFee
		if err := rows.Scan(&f.ID, &f.Barangay, &f.Fee); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (q *Queries) GetDeliveryFeeByBarangay(ctx context.Context, barangay string) (DeliveryFee, error) {
	row := q.db.QueryRow(ctx, `SELECT id, barangay, fee FROM delivery_fees WHERE lower(barangay) = lower($1)`, barangay)
	var f DeliveryFee
	err := row.Scan(&f.ID, &f.Barangay, &f.Fee)
	return f, err
}

type UpsertDeliveryFeeParams struct {
	Barangay string
	Fee      pgtype.Numeric
}

func (q *Queries) UpsertDeliveryFee(ctx context.Context, arg UpsertDeliveryFeeParams) (DeliveryFee, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO delivery_fees (barangay, fee)
VALUES ($1, $2)
ON CONFLICT (barangay) DO UPDATE SET fee = EXCLUDED.fee
RETURNING id, barangay, fee`, arg.Barangay, arg.Fee)
	var f DeliveryFee
	err := row.Scan(&f.ID, &f.Barangay, &f.Fee)
	return f, err
}

func (q *Queries) DeleteDeliveryFee(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM delivery_fees WHERE id = $1`, id)
	return tag.RowsAffected(), err
}

// --- Pre-order windows ---

func (q *Queries) ListPreorderWindows(ctx context.Context) ([]PreorderWindow, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, date, start_minutes, end_minutes FROM preorder_windows ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PreorderWindow
	for rows.Next() {
		var w PreorderWindow
		if err := rows.Scan(&w.ID, &w.Date, &w.StartMinutes, &w.EndMinutes); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type UpsertPreorderWindowParams struct {
	Date         time.Time
	StartMinutes int32
	EndMinutes   int32
}

// UpsertPreorderWindow replaces any existing window for the same date.
func (q *Queries) UpsertPreorderWindow(ctx context.Context, arg UpsertPreorderWindowParams) (PreorderWindow, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO preorder_windows (date, start_minutes, end_minutes)
VALUES ($1, $2, $3)
ON CONFLICT (date) DO UPDATE SET start_minutes = EXCLUDED.start_minutes, end_minutes = EXCLUDED.end_minutes
RETURNING id, date, start_minutes, end_minutes`,
		arg.Date, arg.StartMinutes, arg.EndMinutes)
	var w PreorderWindow
	err := row.Scan(&w.ID, &w.Date, &w.StartMinutes, &w.EndMinutes)
	return w, err
}

func (q *Queries) DeleteAllPreorderWindows(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `DELETE FROM preorder_windows`)
	return err
}

// --- Denial reason presets ---

func (q *Queries) ListDenialReasons(ctx context.Context) ([]DenialReason, error) {
	rows, err := q.db.Query(ctx, `SELECT id, reason, created_at FROM denial_reasons ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DenialReason
	for rows.Next() {
		var d DenialReason
		if err := rows.Scan(&d.ID, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveDenialReason persists a reason for reuse; duplicates are ignored.
func (q *Queries) SaveDenialReason(ctx context.Context, reason string) error {
	_, err := q.db.Exec(ctx, `
INSERT INTO denial_reasons (reason) VALUES ($1) ON CONFLICT (reason) DO NOTHING`, reason)
	return err
}
