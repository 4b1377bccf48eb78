package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/store"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrInvalidVariantID     = errors.New("invalid variant_id")
	ErrInvalidFulfillment   = errors.New("invalid fulfillment_method")
	ErrScheduledAtRequired  = errors.New("scheduled_at is required for pre-orders")
	ErrInvalidScheduledAt   = errors.New("invalid scheduled_at")
	ErrBarangayRequired     = errors.New("barangay is required for delivery")
	ErrNoDeliveryArea       = errors.New("delivery is not available in this barangay")
	ErrDistanceRequired     = errors.New("delivery distance is required")
	ErrInvalidDistance      = errors.New("invalid delivery distance")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDenialReasonRequired = errors.New("a denial reason is required")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *store.Queries (pool- or tx-bound).
type OrderStore interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	ListPreorderWindows(ctx context.Context) ([]store.PreorderWindow, error)
	GetUser(ctx context.Context, id uuid.UUID) (store.User, error)

	GetMenuItem(ctx context.Context, id uuid.UUID) (store.MenuItem, error)
	ListVariantsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]store.MenuItemVariant, error)
	ListChoiceGroupsByBundle(ctx context.Context, bundleID uuid.UUID) ([]store.ChoiceGroup, error)
	ListBundleConstituents(ctx context.Context, bundleID uuid.UUID) ([]store.BundleConstituent, error)

	GetDeliveryFeeByBarangay(ctx context.Context, barangay string) (store.DeliveryFee, error)
	GetVoucherByCode(ctx context.Context, code string) (store.Voucher, error)
	IncrementVoucherUsage(ctx context.Context, code string) (store.Voucher, error)

	GetNextOrderNumber(ctx context.Context) (int32, time.Time, error)
	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	CreateOrderItem(ctx context.Context, arg store.CreateOrderItemParams) (store.OrderItem, error)

	GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (store.Order, error)
	UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
	UpdateOrderTotals(ctx context.Context, arg store.UpdateOrderTotalsParams) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	SetPaymentProof(ctx context.Context, arg store.SetPaymentProofParams) (store.Order, error)

	CreateOrderModification(ctx context.Context, arg store.CreateOrderModificationParams) (store.OrderModification, error)
	ListOrderModifications(ctx context.Context, orderID uuid.UUID) ([]store.OrderModification, error)
	SaveDenialReason(ctx context.Context, reason string) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db store.DBTX) OrderStore

// Actor identifies who performed a state-changing operation, for the audit
// ledger.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// CreateOrderRequest is the validated input for placing an order.
type CreateOrderRequest struct {
	CustomerID         uuid.UUID
	OrderType          string
	FulfillmentMethod  string // pre-orders only
	ScheduledAt        string // RFC3339, pre-orders only
	VoucherCode        string
	DeliveryAddress    string // overrides the customer profile snapshot
	Barangay           string
	ContactPhone       string
	DeliveryDistanceKm string // decimal, used in DISTANCE fee mode
	Items              []LineRequest
}

// LineRequest is a single requested order line.
type LineRequest struct {
	MenuItemID      string
	VariantID       string
	Quantity        int32
	SelectedChoices map[string]string
}

// CreateOrderResult is the created order with its lines.
type CreateOrderResult struct {
	Order store.Order
	Items []store.OrderItem
}

// OrderService handles order lifecycle business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates, composes, prices, and persists an order atomically.
// Retries on order_number unique constraint violations (concurrent
// transactions can read the same daily MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var scheduledAt time.Time
	if req.OrderType == enum.OrderTypePreOrder {
		switch req.FulfillmentMethod {
		case enum.FulfillmentPickup, enum.FulfillmentDelivery:
		default:
			return nil, ErrInvalidFulfillment
		}
		if req.ScheduledAt == "" {
			return nil, ErrScheduledAtRequired
		}
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScheduledAt, err)
		}
		scheduledAt = t
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req, scheduledAt)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, scheduledAt time.Time) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := s.newStore(tx)

	settings, err := st.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	// --- Pre-order schedule gate ---
	if req.OrderType == enum.OrderTypePreOrder && settings.PreorderRestrictionsEnabled {
		windows, err := st.ListPreorderWindows(ctx)
		if err != nil {
			return nil, fmt.Errorf("list preorder windows: %w", err)
		}
		minutes := int32(scheduledAt.Hour()*60 + scheduledAt.Minute())
		if !slotAllowed(windows, true, scheduledAt, minutes) {
			return nil, ErrScheduleViolation
		}
	}

	// --- Customer contact snapshot (captured now, never re-derived) ---
	customer, err := st.GetUser(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	phone := req.ContactPhone
	if phone == "" && customer.Phone.Valid {
		phone = customer.Phone.String
	}
	address := req.DeliveryAddress
	if address == "" && customer.Address.Valid {
		address = customer.Address.String
	}
	barangay := req.Barangay
	if barangay == "" && customer.Barangay.Valid {
		barangay = customer.Barangay.String
	}

	// --- Compose and price lines ---
	var lines []ResolvedLine
	for i, lr := range req.Items {
		line, err := s.resolveRequestLine(ctx, st, lr)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		lines = append(lines, line)
	}

	priced := make([]PricedLine, len(lines))
	for i, l := range lines {
		priced[i] = PricedLine{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}
	subtotal := decimal.Zero
	for _, p := range priced {
		subtotal = subtotal.Add(p.UnitPrice.Mul(decimal.NewFromInt32(p.Quantity)))
	}

	// --- Platform fee ---
	platformFee := decimal.Zero
	if settings.PlatformFeeEnabled {
		platformFee = numericToDecimal(settings.PlatformFeeAmount)
	}

	// --- Delivery fee ---
	deliveryFee := decimal.Zero
	distanceKm := pgtype.Numeric{}
	if deliversToCustomer(req.OrderType, req.FulfillmentMethod) {
		fee, dist, err := s.resolveDeliveryFee(ctx, st, settings, barangay, req.DeliveryDistanceKm)
		if err != nil {
			return nil, err
		}
		deliveryFee = fee
		distanceKm = dist
	}

	// --- Voucher (validated, then redeemed in this same transaction) ---
	discount := decimal.Zero
	voucherCode := pgtype.Text{}
	if req.VoucherCode != "" {
		code := NormalizeVoucherCode(req.VoucherCode)
		voucher, err := st.GetVoucherByCode(ctx, code)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrVoucherInvalidCode
			}
			return nil, fmt.Errorf("get voucher: %w", err)
		}
		discount, err = ValidateVoucher(voucher, subtotal, time.Now())
		if err != nil {
			return nil, err
		}
		if _, err := st.IncrementVoucherUsage(ctx, code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Lost the race for the last redemption slot.
				return nil, ErrVoucherUsageLimit
			}
			return nil, fmt.Errorf("redeem voucher: %w", err)
		}
		voucherCode = pgtype.Text{String: code, Valid: true}
	}

	totals := ComputeTotals(priced, platformFee, deliveryFee, discount)

	// --- Order number ---
	// The prefix date comes from the same query as the sequence so both are
	// stamped by the database clock. Mixing in the app server's clock could
	// pair yesterday's sequence with today's date around midnight.
	nextNum, day, err := st.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("KAI-%s-%03d", day.Format("20060102"), nextNum)

	status := enum.OrderStatusPending
	if req.OrderType == enum.OrderTypePreOrder {
		status = enum.OrderStatusPreOrderPending
	}

	fulfillment := pgtype.Text{}
	if req.OrderType == enum.OrderTypePreOrder {
		fulfillment = pgtype.Text{String: req.FulfillmentMethod, Valid: true}
	}
	scheduled := pgtype.Timestamptz{}
	if !scheduledAt.IsZero() {
		scheduled = pgtype.Timestamptz{Time: scheduledAt, Valid: true}
	}

	order, err := st.CreateOrder(ctx, store.CreateOrderParams{
		OrderNumber:        orderNumber,
		DailySeq:           nextNum,
		CustomerID:         customer.ID,
		CustomerName:       customer.FullName,
		CustomerPhone:      textOrNull(phone),
		CustomerAddress:    textOrNull(address),
		CustomerBarangay:   textOrNull(barangay),
		OrderType:          req.OrderType,
		Status:             status,
		FulfillmentMethod:  fulfillment,
		ScheduledAt:        scheduled,
		DeliveryDistanceKm: distanceKm,
		Subtotal:           decimalToNumeric(totals.Subtotal),
		PlatformFee:        decimalToNumeric(totals.PlatformFee),
		DeliveryFee:        decimalToNumeric(totals.DeliveryFee),
		Discount:           decimalToNumeric(totals.Discount),
		Total:              decimalToNumeric(totals.Total),
		VoucherCode:        voucherCode,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []store.OrderItem
	for i, l := range lines {
		params, err := lineToItemParams(order.ID, l, int32(i))
		if err != nil {
			return nil, err
		}
		item, err := st.CreateOrderItem(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// resolveRequestLine loads the menu rows one line needs, builds the
// per-request index, and runs the composition builder.
func (s *OrderService) resolveRequestLine(ctx context.Context, st OrderStore, lr LineRequest) (ResolvedLine, error) {
	menuItemID, err := uuid.Parse(lr.MenuItemID)
	if err != nil {
		return ResolvedLine{}, ErrInvalidMenuItemID
	}

	item, err := st.GetMenuItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResolvedLine{}, ErrMenuItemNotFound
		}
		return ResolvedLine{}, fmt.Errorf("get menu item: %w", err)
	}

	variants, err := st.ListVariantsByMenuItem(ctx, menuItemID)
	if err != nil {
		return ResolvedLine{}, fmt.Errorf("list variants: %w", err)
	}

	var groups []store.ChoiceGroup
	var constituents []store.BundleConstituent
	itemNameByID := map[uuid.UUID]string{}
	if item.IsBundle {
		groups, err = st.ListChoiceGroupsByBundle(ctx, menuItemID)
		if err != nil {
			return ResolvedLine{}, fmt.Errorf("list choice groups: %w", err)
		}
		constituents, err = st.ListBundleConstituents(ctx, menuItemID)
		if err != nil {
			return ResolvedLine{}, fmt.Errorf("list bundle constituents: %w", err)
		}

		// Resolve names for every concrete menu item the bundle can contain.
		want := map[uuid.UUID]bool{}
		for _, c := range constituents {
			want[c.MenuItemID] = true
		}
		for _, g := range groups {
			for _, c := range g.Choices {
				if c.MenuItemID != nil {
					want[*c.MenuItemID] = true
				}
			}
		}
		for id := range want {
			child, err := st.GetMenuItem(ctx, id)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					continue
				}
				return ResolvedLine{}, fmt.Errorf("get bundle child item: %w", err)
			}
			itemNameByID[id] = child.Name
		}
	}

	var variantID uuid.UUID
	if lr.VariantID != "" {
		variantID, err = uuid.Parse(lr.VariantID)
		if err != nil {
			return ResolvedLine{}, ErrInvalidVariantID
		}
	}

	idx := newMenuIndex(item, variants, groups, constituents, itemNameByID)
	return resolveLine(idx, LineSelection{
		MenuItemID:      menuItemID,
		VariantID:       variantID,
		Quantity:        lr.Quantity,
		SelectedChoices: lr.SelectedChoices,
	})
}

// resolveDeliveryFee computes the fee according to the configured mode.
func (s *OrderService) resolveDeliveryFee(ctx context.Context, st OrderStore, settings store.Settings, barangay, distanceStr string) (decimal.Decimal, pgtype.Numeric, error) {
	if settings.DeliveryFeeMode == enum.DeliveryFeeModeDistance {
		if distanceStr == "" {
			return decimal.Zero, pgtype.Numeric{}, ErrDistanceRequired
		}
		distance, err := decimal.NewFromString(distanceStr)
		if err != nil || distance.IsNegative() {
			return decimal.Zero, pgtype.Numeric{}, ErrInvalidDistance
		}
		fee := DistanceDeliveryFee(distance,
			numericToDecimal(settings.DeliveryBaseFee),
			numericToDecimal(settings.DeliveryPerKmRate))
		return fee, decimalToNumeric(distance), nil
	}

	if barangay == "" {
		return decimal.Zero, pgtype.Numeric{}, ErrBarangayRequired
	}
	areaFee, err := st.GetDeliveryFeeByBarangay(ctx, barangay)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, pgtype.Numeric{}, ErrNoDeliveryArea
		}
		return decimal.Zero, pgtype.Numeric{}, fmt.Errorf("get delivery fee: %w", err)
	}
	return numericToDecimal(areaFee.Fee), pgtype.Numeric{}, nil
}

func lineToItemParams(orderID uuid.UUID, l ResolvedLine, sortOrder int32) (store.CreateOrderItemParams, error) {
	var selectedChoices, bundleItems []byte
	var err error
	if len(l.SelectedChoices) > 0 {
		selectedChoices, err = json.Marshal(l.SelectedChoices)
		if err != nil {
			return store.CreateOrderItemParams{}, fmt.Errorf("encode selected choices: %w", err)
		}
	}
	if len(l.BundleItems) > 0 {
		bundleItems, err = json.Marshal(l.BundleItems)
		if err != nil {
			return store.CreateOrderItemParams{}, fmt.Errorf("encode bundle items: %w", err)
		}
	}

	variantID := pgtype.UUID{}
	variantName := pgtype.Text{}
	if l.VariantID != uuid.Nil {
		variantID = pgtype.UUID{Bytes: l.VariantID, Valid: true}
		variantName = pgtype.Text{String: l.VariantName, Valid: true}
	}

	lineTotal := l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
	return store.CreateOrderItemParams{
		OrderID:         orderID,
		MenuItemID:      l.MenuItemID,
		DisplayName:     l.DisplayName,
		UnitPrice:       decimalToNumeric(l.UnitPrice),
		Quantity:        l.Quantity,
		LineTotal:       decimalToNumeric(lineTotal),
		VariantID:       variantID,
		VariantName:     variantName,
		SelectedChoices: selectedChoices,
		BundleItems:     bundleItems,
		SortOrder:       sortOrder,
	}, nil
}

// --- Helpers ---

func validateOrderType(s string) error {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeaway,
		enum.OrderTypeDelivery, enum.OrderTypePreOrder:
		return nil
	}
	return ErrInvalidOrderType
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
