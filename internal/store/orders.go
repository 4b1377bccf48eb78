package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, customer_id, customer_name, customer_phone, customer_address,
customer_barangay, order_type, status, fulfillment_method, scheduled_at, delivery_distance_km,
subtotal, platform_fee, delivery_fee, discount, total, voucher_code, estimated_prep_minutes,
denial_reason, down_payment_proof_url, full_payment_proof_url, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerPhone,
		&o.CustomerAddress, &o.CustomerBarangay, &o.OrderType, &o.Status, &o.FulfillmentMethod,
		&o.ScheduledAt, &o.DeliveryDistanceKm, &o.Subtotal, &o.PlatformFee, &o.DeliveryFee,
		&o.Discount, &o.Total, &o.VoucherCode, &o.EstimatedPrepMinutes, &o.DenialReason,
		&o.DownPaymentProofURL, &o.FullPaymentProofURL, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetNextOrderNumber returns the next daily sequence number together with
// the database's current date, so the order number prefix and the sequence
// come from the same clock. Concurrent transactions can read the same MAX;
// the unique constraint on order_number plus the caller's retry loop
// resolves the race.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, time.Time, error) {
	row := q.db.QueryRow(ctx, `
SELECT COALESCE(MAX(daily_seq), 0) + 1, CURRENT_DATE FROM orders WHERE created_at::date = CURRENT_DATE`)
	var n int32
	var day time.Time
	err := row.Scan(&n, &day)
	return n, day, err
}

type CreateOrderParams struct {
	OrderNumber        string
	DailySeq           int32
	CustomerID         uuid.UUID
	CustomerName       string
	CustomerPhone      pgtype.Text
	CustomerAddress    pgtype.Text
	CustomerBarangay   pgtype.Text
	OrderType          string
	Status             string
	FulfillmentMethod  pgtype.Text
	ScheduledAt        pgtype.Timestamptz
	DeliveryDistanceKm pgtype.Numeric
	Subtotal           pgtype.Numeric
	PlatformFee        pgtype.Numeric
	DeliveryFee        pgtype.Numeric
	Discount           pgtype.Numeric
	Total              pgtype.Numeric
	VoucherCode        pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO orders (order_number, daily_seq, customer_id, customer_name, customer_phone,
	customer_address, customer_barangay, order_type, status, fulfillment_method, scheduled_at,
	delivery_distance_km, subtotal, platform_fee, delivery_fee, discount, total, voucher_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING `+orderColumns,
		arg.OrderNumber, arg.DailySeq, arg.CustomerID, arg.CustomerName, arg.CustomerPhone,
		arg.CustomerAddress, arg.CustomerBarangay, arg.OrderType, arg.Status, arg.FulfillmentMethod,
		arg.ScheduledAt, arg.DeliveryDistanceKm, arg.Subtotal, arg.PlatformFee, arg.DeliveryFee,
		arg.Discount, arg.Total, arg.VoucherCode)
	return scanOrder(row)
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderForUpdate locks the order row for the duration of the transaction.
// Every read-modify-write (status transition, item edit, proof attach) goes
// through this to avoid lost updates between racing actors.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

type ListOrdersParams struct {
	Status     pgtype.Text
	OrderType  pgtype.Text
	CustomerID pgtype.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR order_type = $2)
  AND ($3::uuid IS NULL OR customer_id = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at < $5 + interval '1 day')
ORDER BY created_at DESC
LIMIT $6 OFFSET $7`,
		arg.Status, arg.OrderType, arg.CustomerID, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID                   uuid.UUID
	Status               string
	DenialReason         pgtype.Text
	EstimatedPrepMinutes pgtype.Int4
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
UPDATE orders
SET status = $2, denial_reason = $3, estimated_prep_minutes = $4, updated_at = now()
WHERE id = $1
RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.DenialReason, arg.EstimatedPrepMinutes)
	return scanOrder(row)
}

type UpdateOrderTotalsParams struct {
	ID       uuid.UUID
	Subtotal pgtype.Numeric
	Discount pgtype.Numeric
	Total    pgtype.Numeric
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
UPDATE orders SET subtotal = $2, discount = $3, total = $4, updated_at = now()
WHERE id = $1
RETURNING `+orderColumns,
		arg.ID, arg.Subtotal, arg.Discount, arg.Total)
	return scanOrder(row)
}

type SetPaymentProofParams struct {
	ID                  uuid.UUID
	DownPaymentProofURL pgtype.Text
	FullPaymentProofURL pgtype.Text
}

func (q *Queries) SetPaymentProof(ctx context.Context, arg SetPaymentProofParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
UPDATE orders
SET down_payment_proof_url = COALESCE($2, down_payment_proof_url),
    full_payment_proof_url = COALESCE($3, full_payment_proof_url),
    updated_at = now()
WHERE id = $1
RETURNING `+orderColumns,
		arg.ID, arg.DownPaymentProofURL, arg.FullPaymentProofURL)
	return scanOrder(row)
}

// --- Order items ---

const orderItemColumns = `id, order_id, menu_item_id, display_name, unit_price, quantity,
line_total, variant_id, variant_name, selected_choices, bundle_items, sort_order`

func scanOrderItem(row interface{ Scan(...any) error }) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.MenuItemID, &i.DisplayName, &i.UnitPrice, &i.Quantity,
		&i.LineTotal, &i.VariantID, &i.VariantName, &i.SelectedChoices, &i.BundleItems, &i.SortOrder)
	return i, err
}

type CreateOrderItemParams struct {
	OrderID         uuid.UUID
	MenuItemID      uuid.UUID
	DisplayName     string
	UnitPrice       pgtype.Numeric
	Quantity        int32
	LineTotal       pgtype.Numeric
	VariantID       pgtype.UUID
	VariantName     pgtype.Text
	SelectedChoices []byte
	BundleItems     []byte
	SortOrder       int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO order_items (order_id, menu_item_id, display_name, unit_price, quantity, line_total,
	variant_id, variant_name, selected_choices, bundle_items, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+orderItemColumns,
		arg.OrderID, arg.MenuItemID, arg.DisplayName, arg.UnitPrice, arg.Quantity, arg.LineTotal,
		arg.VariantID, arg.VariantName, arg.SelectedChoices, arg.BundleItems, arg.SortOrder)
	return scanOrderItem(row)
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY sort_order`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

// --- Modification ledger (append-only) ---

type CreateOrderModificationParams struct {
	OrderID          uuid.UUID
	ActorID          uuid.UUID
	ActorName        string
	ModificationType string
	PreviousValue    []byte
	NewValue         []byte
	ItemDetails      string
}

func (q *Queries) CreateOrderModification(ctx context.Context, arg CreateOrderModificationParams) (OrderModification, error) {
	row := q.db.QueryRow(ctx, `
INSERT INTO order_modifications (order_id, actor_id, actor_name, modification_type, previous_value, new_value, item_details)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, actor_id, actor_name, modification_type, previous_value, new_value, item_details, created_at`,
		arg.OrderID, arg.ActorID, arg.ActorName, arg.ModificationType,
		arg.PreviousValue, arg.NewValue, arg.ItemDetails)
	var m OrderModification
	err := row.Scan(&m.ID, &m.OrderID, &m.ActorID, &m.ActorName, &m.ModificationType,
		&m.PreviousValue, &m.NewValue, &m.ItemDetails, &m.CreatedAt)
	return m, err
}

func (q *Queries) ListOrderModifications(ctx context.Context, orderID uuid.UUID) ([]OrderModification, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, order_id, actor_id, actor_name, modification_type, previous_value, new_value, item_details, created_at
FROM order_modifications WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderModification
	for rows.Next() {
		var m OrderModification
		if err := rows.Scan(&m.ID, &m.OrderID, &m.ActorID, &m.ActorName, &m.ModificationType,
			&m.PreviousValue, &m.NewValue, &m.ItemDetails, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
