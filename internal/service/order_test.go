package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/store"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error          { return m.commitErr }
func (m *mockTx) Rollback(ctx context.Context) error        { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	getSettingsFn              func(ctx context.Context) (store.Settings, error)
	listPreorderWindowsFn      func(ctx context.Context) ([]store.PreorderWindow, error)
	getUserFn                  func(ctx context.Context, id uuid.UUID) (store.User, error)
	getMenuItemFn              func(ctx context.Context, id uuid.UUID) (store.MenuItem, error)
	listVariantsByMenuItemFn   func(ctx context.Context, menuItemID uuid.UUID) ([]store.MenuItemVariant, error)
	listChoiceGroupsByBundleFn func(ctx context.Context, bundleID uuid.UUID) ([]store.ChoiceGroup, error)
	listBundleConstituentsFn   func(ctx context.Context, bundleID uuid.UUID) ([]store.BundleConstituent, error)
	getDeliveryFeeByBarangayFn func(ctx context.Context, barangay string) (store.DeliveryFee, error)
	getVoucherByCodeFn         func(ctx context.Context, code string) (store.Voucher, error)
	incrementVoucherUsageFn    func(ctx context.Context, code string) (store.Voucher, error)
	getNextOrderNumberFn       func(ctx context.Context) (int32, time.Time, error)
	createOrderFn              func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	createOrderItemFn          func(ctx context.Context, arg store.CreateOrderItemParams) (store.OrderItem, error)
	getOrderFn                 func(ctx context.Context, id uuid.UUID) (store.Order, error)
	getOrderForUpdateFn        func(ctx context.Context, id uuid.UUID) (store.Order, error)
	updateOrderStatusFn        func(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
	updateOrderTotalsFn        func(ctx context.Context, arg store.UpdateOrderTotalsParams) (store.Order, error)
	listOrderItemsFn           func(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
	deleteOrderItemsFn         func(ctx context.Context, orderID uuid.UUID) error
	setPaymentProofFn          func(ctx context.Context, arg store.SetPaymentProofParams) (store.Order, error)
	createOrderModificationFn  func(ctx context.Context, arg store.CreateOrderModificationParams) (store.OrderModification, error)
	listOrderModificationsFn   func(ctx context.Context, orderID uuid.UUID) ([]store.OrderModification, error)
	saveDenialReasonFn         func(ctx context.Context, reason string) error
}

func (m *mockOrderStore) GetSettings(ctx context.Context) (store.Settings, error) {
	return m.getSettingsFn(ctx)
}
func (m *mockOrderStore) ListPreorderWindows(ctx context.Context) ([]store.PreorderWindow, error) {
	return m.listPreorderWindowsFn(ctx)
}
func (m *mockOrderStore) GetUser(ctx context.Context, id uuid.UUID) (store.User, error) {
	return m.getUserFn(ctx, id)
}
func (m *mockOrderStore) GetMenuItem(ctx context.Context, id uuid.UUID) (store.MenuItem, error) {
	return m.getMenuItemFn(ctx, id)
}
func (m *mockOrderStore) ListVariantsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]store.MenuItemVariant, error) {
	return m.listVariantsByMenuItemFn(ctx, menuItemID)
}
func (m *mockOrderStore) ListChoiceGroupsByBundle(ctx context.Context, bundleID uuid.UUID) ([]store.ChoiceGroup, error) {
	return m.listChoiceGroupsByBundleFn(ctx, bundleID)
}
func (m *mockOrderStore) ListBundleConstituents(ctx context.Context, bundleID uuid.UUID) ([]store.BundleConstituent, error) {
	return m.listBundleConstituentsFn(ctx, bundleID)
}
func (m *mockOrderStore) GetDeliveryFeeByBarangay(ctx context.Context, barangay string) (store.DeliveryFee, error) {
	return m.getDeliveryFeeByBarangayFn(ctx, barangay)
}
func (m *mockOrderStore) GetVoucherByCode(ctx context.Context, code string) (store.Voucher, error) {
	return m.getVoucherByCodeFn(ctx, code)
}
func (m *mockOrderStore) IncrementVoucherUsage(ctx context.Context, code string) (store.Voucher, error) {
	return m.incrementVoucherUsageFn(ctx, code)
}
func (m *mockOrderStore) GetNextOrderNumber(ctx context.Context) (int32, time.Time, error) {
	return m.getNextOrderNumberFn(ctx)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg store.CreateOrderItemParams) (store.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error) {
	return m.getOrderFn(ctx, id)
}
func (m *mockOrderStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (store.Order, error) {
	return m.getOrderForUpdateFn(ctx, id)
}
func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error) {
	return m.updateOrderStatusFn(ctx, arg)
}
func (m *mockOrderStore) UpdateOrderTotals(ctx context.Context, arg store.UpdateOrderTotalsParams) (store.Order, error) {
	return m.updateOrderTotalsFn(ctx, arg)
}
func (m *mockOrderStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error) {
	return m.listOrderItemsFn(ctx, orderID)
}
func (m *mockOrderStore) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	return m.deleteOrderItemsFn(ctx, orderID)
}
func (m *mockOrderStore) SetPaymentProof(ctx context.Context, arg store.SetPaymentProofParams) (store.Order, error) {
	return m.setPaymentProofFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderModification(ctx context.Context, arg store.CreateOrderModificationParams) (store.OrderModification, error) {
	return m.createOrderModificationFn(ctx, arg)
}
func (m *mockOrderStore) ListOrderModifications(ctx context.Context, orderID uuid.UUID) ([]store.OrderModification, error) {
	return m.listOrderModificationsFn(ctx, orderID)
}
func (m *mockOrderStore) SaveDenialReason(ctx context.Context, reason string) error {
	return m.saveDenialReasonFn(ctx, reason)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// newTestService creates an OrderService with mocked dependencies.
func newTestService(st *mockOrderStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db store.DBTX) OrderStore { return st }
	return NewOrderService(pool, newStore), tx
}

// defaultStore returns a mockOrderStore with sensible defaults for a basic
// order: one available menu item at 250.00, a known customer, barangay fee
// mode, no platform fee. Individual tests override what they care about.
func defaultStore(customerID, menuItemID uuid.UUID) *mockOrderStore {
	return &mockOrderStore{
		getSettingsFn: func(ctx context.Context) (store.Settings, error) {
			return store.Settings{
				ID:                 uuid.New(),
				PlatformFeeEnabled: false,
				PlatformFeeAmount:  makeNumeric("10.00"),
				DeliveryFeeMode:    enum.DeliveryFeeModeBarangay,
				DeliveryBaseFee:    makeNumeric("49.00"),
				DeliveryPerKmRate:  makeNumeric("15.00"),
			}, nil
		},
		listPreorderWindowsFn: func(ctx context.Context) ([]store.PreorderWindow, error) {
			return nil, nil
		},
		getUserFn: func(ctx context.Context, id uuid.UUID) (store.User, error) {
			if id == customerID {
				return store.User{
					ID:       customerID,
					FullName: "Maria Santos",
					Email:    "maria@example.com",
					Phone:    pgtype.Text{String: "09171234567", Valid: true},
					Address:  pgtype.Text{String: "123 Rizal St", Valid: true},
					Barangay: pgtype.Text{String: "Poblacion", Valid: true},
					Role:     enum.UserRoleCustomer,
				}, nil
			}
			return store.User{}, pgx.ErrNoRows
		},
		getMenuItemFn: func(ctx context.Context, id uuid.UUID) (store.MenuItem, error) {
			if id == menuItemID {
				return store.MenuItem{
					ID:          menuItemID,
					Name:        "Chicken Adobo",
					BasePrice:   makeNumeric("250.00"),
					Category:    "Mains",
					IsAvailable: true,
				}, nil
			}
			return store.MenuItem{}, pgx.ErrNoRows
		},
		listVariantsByMenuItemFn: func(ctx context.Context, menuItemID uuid.UUID) ([]store.MenuItemVariant, error) {
			return nil, nil
		},
		listChoiceGroupsByBundleFn: func(ctx context.Context, bundleID uuid.UUID) ([]store.ChoiceGroup, error) {
			return nil, nil
		},
		listBundleConstituentsFn: func(ctx context.Context, bundleID uuid.UUID) ([]store.BundleConstituent, error) {
			return nil, nil
		},
		getDeliveryFeeByBarangayFn: func(ctx context.Context, barangay string) (store.DeliveryFee, error) {
			return store.DeliveryFee{}, pgx.ErrNoRows
		},
		getVoucherByCodeFn: func(ctx context.Context, code string) (store.Voucher, error) {
			return store.Voucher{}, pgx.ErrNoRows
		},
		incrementVoucherUsageFn: func(ctx context.Context, code string) (store.Voucher, error) {
			return store.Voucher{Code: code}, nil
		},
		getNextOrderNumberFn: func(ctx context.Context) (int32, time.Time, error) {
			return 1, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), nil
		},
		createOrderFn: func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
			return store.Order{
				ID:           uuid.New(),
				OrderNumber:  arg.OrderNumber,
				CustomerID:   arg.CustomerID,
				CustomerName: arg.CustomerName,
				OrderType:    arg.OrderType,
				Status:       arg.Status,
				Subtotal:     arg.Subtotal,
				PlatformFee:  arg.PlatformFee,
				DeliveryFee:  arg.DeliveryFee,
				Discount:     arg.Discount,
				Total:        arg.Total,
				VoucherCode:  arg.VoucherCode,
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg store.CreateOrderItemParams) (store.OrderItem, error) {
			return store.OrderItem{
				ID:          uuid.New(),
				OrderID:     arg.OrderID,
				MenuItemID:  arg.MenuItemID,
				DisplayName: arg.DisplayName,
				UnitPrice:   arg.UnitPrice,
				Quantity:    arg.Quantity,
				LineTotal:   arg.LineTotal,
				VariantID:   arg.VariantID,
				VariantName: arg.VariantName,
				SortOrder:   arg.SortOrder,
			}, nil
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (store.Order, error) {
			return store.Order{}, pgx.ErrNoRows
		},
		getOrderForUpdateFn: func(ctx context.Context, id uuid.UUID) (store.Order, error) {
			return store.Order{}, pgx.ErrNoRows
		},
		updateOrderStatusFn: func(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error) {
			return store.Order{
				ID:                   arg.ID,
				Status:               arg.Status,
				DenialReason:         arg.DenialReason,
				EstimatedPrepMinutes: arg.EstimatedPrepMinutes,
			}, nil
		},
		updateOrderTotalsFn: func(ctx context.Context, arg store.UpdateOrderTotalsParams) (store.Order, error) {
			return store.Order{ID: arg.ID, Subtotal: arg.Subtotal, Discount: arg.Discount, Total: arg.Total}, nil
		},
		listOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error) {
			return nil, nil
		},
		deleteOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) error {
			return nil
		},
		setPaymentProofFn: func(ctx context.Context, arg store.SetPaymentProofParams) (store.Order, error) {
			return store.Order{
				ID:                  arg.ID,
				DownPaymentProofURL: arg.DownPaymentProofURL,
				FullPaymentProofURL: arg.FullPaymentProofURL,
			}, nil
		},
		createOrderModificationFn: func(ctx context.Context, arg store.CreateOrderModificationParams) (store.OrderModification, error) {
			return store.OrderModification{
				ID:               uuid.New(),
				OrderID:          arg.OrderID,
				ActorID:          arg.ActorID,
				ActorName:        arg.ActorName,
				ModificationType: arg.ModificationType,
				PreviousValue:    arg.PreviousValue,
				NewValue:         arg.NewValue,
				ItemDetails:      arg.ItemDetails,
			}, nil
		},
		listOrderModificationsFn: func(ctx context.Context, orderID uuid.UUID) ([]store.OrderModification, error) {
			return nil, nil
		},
		saveDenialReasonFn: func(ctx context.Context, reason string) error {
			return nil
		},
	}
}

func basicReq(customerID uuid.UUID, menuItemID string) CreateOrderRequest {
	return CreateOrderRequest{
		CustomerID: customerID,
		OrderType:  enum.OrderTypeTakeaway,
		Items: []LineRequest{
			{MenuItemID: menuItemID, Quantity: 2},
		},
	}
}

// =====================
// Validation tests
// =====================

func TestCreateOrder_EmptyItems(t *testing.T) {
	st := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: uuid.New(),
		OrderType:  enum.OrderTypeTakeaway,
		Items:      nil,
	})
	if !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got: %v", err)
	}
}

func TestCreateOrder_InvalidOrderType(t *testing.T) {
	st := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: uuid.New(),
		OrderType:  "INVALID",
		Items: []LineRequest{
			{MenuItemID: uuid.New().String(), Quantity: 1},
		},
	})
	if !errors.Is(err, ErrInvalidOrderType) {
		t.Fatalf("expected ErrInvalidOrderType, got: %v", err)
	}
}

func TestCreateOrder_ZeroQuantity(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: customerID,
		OrderType:  enum.OrderTypeTakeaway,
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 0},
		},
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

func TestCreateOrder_MenuItemNotFound(t *testing.T) {
	customerID := uuid.New()
	st := defaultStore(customerID, uuid.New()) // store knows a different item
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: customerID,
		OrderType:  enum.OrderTypeTakeaway,
		Items: []LineRequest{
			{MenuItemID: uuid.New().String(), Quantity: 1},
		},
	})
	if !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("expected ErrMenuItemNotFound, got: %v", err)
	}
}

func TestCreateOrder_UnavailableItem(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	st.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (store.MenuItem, error) {
		return store.MenuItem{
			ID:          menuItemID,
			Name:        "Chicken Adobo",
			BasePrice:   makeNumeric("250.00"),
			IsAvailable: false,
		}, nil
	}
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), basicReq(customerID, menuItemID.String()))
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got: %v", err)
	}
}

func TestCreateOrder_CustomerNotFound(t *testing.T) {
	menuItemID := uuid.New()
	st := defaultStore(uuid.New(), menuItemID)
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), basicReq(uuid.New(), menuItemID.String()))
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got: %v", err)
	}
}

func TestCreateOrder_PreOrderWithoutSchedule(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:        customerID,
		OrderType:         enum.OrderTypePreOrder,
		FulfillmentMethod: enum.FulfillmentPickup,
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 1},
		},
	})
	if !errors.Is(err, ErrScheduledAtRequired) {
		t.Fatalf("expected ErrScheduledAtRequired, got: %v", err)
	}
}

func TestCreateOrder_PreOrderInvalidFulfillment(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:        customerID,
		OrderType:         enum.OrderTypePreOrder,
		FulfillmentMethod: "DRONE",
		ScheduledAt:       "2026-09-01T13:00:00+08:00",
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 1},
		},
	})
	if !errors.Is(err, ErrInvalidFulfillment) {
		t.Fatalf("expected ErrInvalidFulfillment, got: %v", err)
	}
}

// =====================
// Price calculation tests
// =====================

func TestCreateOrder_BasicPrice(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)

	var captured store.CreateOrderParams
	base := st.createOrderFn
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}
	var capturedItem store.CreateOrderItemParams
	baseItem := st.createOrderItemFn
	st.createOrderItemFn = func(ctx context.Context, arg store.CreateOrderItemParams) (store.OrderItem, error) {
		capturedItem = arg
		return baseItem(ctx, arg)
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), basicReq(customerID, menuItemID.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// unit_price = base price 250
	if !numericEquals(capturedItem.UnitPrice, "250.00") {
		t.Errorf("item unit_price: got %v, want 250.00", numericToDecimal(capturedItem.UnitPrice))
	}
	// line_total = 250 * 2 = 500
	if !numericEquals(capturedItem.LineTotal, "500.00") {
		t.Errorf("item line_total: got %v, want 500.00", numericToDecimal(capturedItem.LineTotal))
	}
	if !numericEquals(captured.Subtotal, "500.00") {
		t.Errorf("order subtotal: got %v, want 500.00", numericToDecimal(captured.Subtotal))
	}
	// no fees, no discount
	if !numericEquals(captured.Total, "500.00") {
		t.Errorf("order total: got %v, want 500.00", numericToDecimal(captured.Total))
	}
	if captured.Status != enum.OrderStatusPending {
		t.Errorf("status: got %v, want PENDING", captured.Status)
	}
}

func TestCreateOrder_FullBreakdown(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	voucherID := uuid.New()
	st := defaultStore(customerID, menuItemID)

	// Platform fee on, distance fee mode, 40 off voucher.
	st.getSettingsFn = func(ctx context.Context) (store.Settings, error) {
		return store.Settings{
			PlatformFeeEnabled: true,
			PlatformFeeAmount:  makeNumeric("10.00"),
			DeliveryFeeMode:    enum.DeliveryFeeModeDistance,
			DeliveryBaseFee:    makeNumeric("49.00"),
			DeliveryPerKmRate:  makeNumeric("15.00"),
		}, nil
	}
	st.getVoucherByCodeFn = func(ctx context.Context, code string) (store.Voucher, error) {
		if code == "HAPPY40" {
			return store.Voucher{
				ID:             voucherID,
				Code:           "HAPPY40",
				DiscountType:   enum.VoucherTypeFixed,
				Value:          makeNumeric("40.00"),
				MinOrderAmount: makeNumeric("0.00"),
				ExpiresAt:      time.Now().Add(24 * time.Hour),
				IsActive:       true,
			}, nil
		}
		return store.Voucher{}, pgx.ErrNoRows
	}

	var captured store.CreateOrderParams
	base := st.createOrderFn
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:         customerID,
		OrderType:          enum.OrderTypeDelivery,
		VoucherCode:        "happy40",
		DeliveryDistanceKm: "1.5",
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 2}, // 250 * 2 = 500
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// delivery fee = 15 * (1.5 - 1) = 7.50
	if !numericEquals(captured.DeliveryFee, "7.50") {
		t.Errorf("delivery fee: got %v, want 7.50", numericToDecimal(captured.DeliveryFee))
	}
	if !numericEquals(captured.PlatformFee, "10.00") {
		t.Errorf("platform fee: got %v, want 10.00", numericToDecimal(captured.PlatformFee))
	}
	if !numericEquals(captured.Discount, "40.00") {
		t.Errorf("discount: got %v, want 40.00", numericToDecimal(captured.Discount))
	}
	// total = 500 + 10 + 7.50 - 40 = 477.50
	if !numericEquals(captured.Total, "477.50") {
		t.Errorf("total: got %v, want 477.50", numericToDecimal(captured.Total))
	}
	if !captured.VoucherCode.Valid || captured.VoucherCode.String != "HAPPY40" {
		t.Errorf("voucher code: got %v, want HAPPY40", captured.VoucherCode)
	}
}

func TestCreateOrder_BarangayFee(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	st.getDeliveryFeeByBarangayFn = func(ctx context.Context, barangay string) (store.DeliveryFee, error) {
		if barangay == "Poblacion" {
			return store.DeliveryFee{Barangay: "Poblacion", Fee: makeNumeric("35.00")}, nil
		}
		return store.DeliveryFee{}, pgx.ErrNoRows
	}

	var captured store.CreateOrderParams
	base := st.createOrderFn
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: customerID,
		OrderType:  enum.OrderTypeDelivery,
		// no barangay in the request: falls back to the profile snapshot
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(captured.DeliveryFee, "35.00") {
		t.Errorf("delivery fee: got %v, want 35.00", numericToDecimal(captured.DeliveryFee))
	}
	if !captured.CustomerBarangay.Valid || captured.CustomerBarangay.String != "Poblacion" {
		t.Errorf("barangay snapshot: got %v, want Poblacion", captured.CustomerBarangay)
	}
}

func TestCreateOrder_UnservedBarangay(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	svc, _ := newTestService(st)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: customerID,
		OrderType:  enum.OrderTypeDelivery,
		Barangay:   "San Roque",
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 1},
		},
	})
	if !errors.Is(err, ErrNoDeliveryArea) {
		t.Fatalf("expected ErrNoDeliveryArea, got: %v", err)
	}
}

func TestCreateOrder_TakeawayHasNoDeliveryFee(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)

	var captured store.CreateOrderParams
	base := st.createOrderFn
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), basicReq(customerID, menuItemID.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(captured.DeliveryFee, "0") {
		t.Errorf("delivery fee: got %v, want 0", numericToDecimal(captured.DeliveryFee))
	}
}

// =====================
// Voucher redemption inside the create transaction
// =====================

func TestCreateOrder_VoucherRedeemed(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	st.getVoucherByCodeFn = func(ctx context.Context, code string) (store.Voucher, error) {
		return store.Voucher{
			Code:           code,
			DiscountType:   enum.VoucherTypeFixed,
			Value:          makeNumeric("50.00"),
			MinOrderAmount: makeNumeric("0.00"),
			ExpiresAt:      time.Now().Add(time.Hour),
			IsActive:       true,
		}, nil
	}
	incremented := 0
	st.incrementVoucherUsageFn = func(ctx context.Context, code string) (store.Voucher, error) {
		incremented++
		return store.Voucher{Code: code}, nil
	}

	svc, _ := newTestService(st)
	req := basicReq(customerID, menuItemID.String())
	req.VoucherCode = "TREAT50"
	if _, err := svc.CreateOrder(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if incremented != 1 {
		t.Errorf("expected 1 usage increment, got %d", incremented)
	}
}

func TestCreateOrder_VoucherLostRace(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	st.getVoucherByCodeFn = func(ctx context.Context, code string) (store.Voucher, error) {
		return store.Voucher{
			Code:           code,
			DiscountType:   enum.VoucherTypeFixed,
			Value:          makeNumeric("50.00"),
			MinOrderAmount: makeNumeric("0.00"),
			ExpiresAt:      time.Now().Add(time.Hour),
			UsageLimit:     10,
			UsageCount:     9, // validation passes, but another order redeems first
			IsActive:       true,
		}, nil
	}
	st.incrementVoucherUsageFn = func(ctx context.Context, code string) (store.Voucher, error) {
		return store.Voucher{}, pgx.ErrNoRows
	}

	svc, _ := newTestService(st)
	req := basicReq(customerID, menuItemID.String())
	req.VoucherCode = "TREAT50"
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrVoucherUsageLimit) {
		t.Fatalf("expected ErrVoucherUsageLimit, got: %v", err)
	}
}

func TestCreateOrder_UnknownVoucher(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	svc, _ := newTestService(st)

	req := basicReq(customerID, menuItemID.String())
	req.VoucherCode = "NOPE"
	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrVoucherInvalidCode) {
		t.Fatalf("expected ErrVoucherInvalidCode, got: %v", err)
	}
}

// =====================
// Pre-order gating
// =====================

func TestCreateOrder_PreOrderInsideWindow(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	st.getSettingsFn = func(ctx context.Context) (store.Settings, error) {
		return store.Settings{
			DeliveryFeeMode:             enum.DeliveryFeeModeBarangay,
			PreorderRestrictionsEnabled: true,
		}, nil
	}
	st.listPreorderWindowsFn = func(ctx context.Context) ([]store.PreorderWindow, error) {
		return []store.PreorderWindow{
			{Date: time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), StartMinutes: 13 * 60, EndMinutes: 19 * 60},
		}, nil
	}

	var captured store.CreateOrderParams
	base := st.createOrderFn
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:        customerID,
		OrderType:         enum.OrderTypePreOrder,
		FulfillmentMethod: enum.FulfillmentPickup,
		ScheduledAt:       "2026-12-25T13:00:00Z",
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Status != enum.OrderStatusPreOrderPending {
		t.Errorf("status: got %v, want PRE_ORDER_PENDING", captured.Status)
	}
}

func TestCreateOrder_PreOrderOutsideWindow(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	st.getSettingsFn = func(ctx context.Context) (store.Settings, error) {
		return store.Settings{
			DeliveryFeeMode:             enum.DeliveryFeeModeBarangay,
			PreorderRestrictionsEnabled: true,
		}, nil
	}
	st.listPreorderWindowsFn = func(ctx context.Context) ([]store.PreorderWindow, error) {
		return []store.PreorderWindow{
			{Date: time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), StartMinutes: 13 * 60, EndMinutes: 19 * 60},
		}, nil
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:        customerID,
		OrderType:         enum.OrderTypePreOrder,
		FulfillmentMethod: enum.FulfillmentPickup,
		ScheduledAt:       "2026-12-25T20:30:00Z",
		Items: []LineRequest{
			{MenuItemID: menuItemID.String(), Quantity: 1},
		},
	})
	if !errors.Is(err, ErrScheduleViolation) {
		t.Fatalf("expected ErrScheduleViolation, got: %v", err)
	}
}

// =====================
// Order number generation
// =====================

func TestCreateOrder_OrderNumberFormat(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)
	st.getNextOrderNumberFn = func(ctx context.Context) (int32, time.Time, error) {
		return 42, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), nil
	}

	var captured store.CreateOrderParams
	base := st.createOrderFn
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		captured = arg
		return base(ctx, arg)
	}

	svc, _ := newTestService(st)
	if _, err := svc.CreateOrder(context.Background(), basicReq(customerID, menuItemID.String())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The prefix date must be the one returned with the sequence, not the
	// app server's clock.
	want := "KAI-20260815-042"
	if captured.OrderNumber != want {
		t.Errorf("order number: got %v, want %v", captured.OrderNumber, want)
	}
	if captured.DailySeq != 42 {
		t.Errorf("daily seq: got %v, want 42", captured.DailySeq)
	}
}

func TestCreateOrder_RetryOnUniqueViolation(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)

	createCallCount := 0
	base := st.createOrderFn
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		createCallCount++
		if createCallCount == 1 {
			return store.Order{}, &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "orders_order_number_key",
			}
		}
		return base(ctx, arg)
	}

	orderNumCallCount := 0
	st.getNextOrderNumberFn = func(ctx context.Context) (int32, time.Time, error) {
		orderNumCallCount++
		return int32(orderNumCallCount), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), nil
	}

	svc, _ := newTestService(st)
	result, err := svc.CreateOrder(context.Background(), basicReq(customerID, menuItemID.String()))
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if createCallCount != 2 {
		t.Errorf("expected 2 CreateOrder calls (1 fail + 1 success), got %d", createCallCount)
	}
	if orderNumCallCount != 2 {
		t.Errorf("expected 2 GetNextOrderNumber calls, got %d", orderNumCallCount)
	}
}

func TestCreateOrder_RetryExhausted(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)

	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		return store.Order{}, &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "orders_order_number_key",
		}
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), basicReq(customerID, menuItemID.String()))
	if err == nil {
		t.Fatal("expected error after exhausting retries, got nil")
	}
	if !strings.Contains(err.Error(), "create order") {
		t.Errorf("expected 'create order' in error message, got: %v", err)
	}
}

func TestCreateOrder_NonUniqueErrorNotRetried(t *testing.T) {
	customerID := uuid.New()
	menuItemID := uuid.New()
	st := defaultStore(customerID, menuItemID)

	callCount := 0
	st.createOrderFn = func(ctx context.Context, arg store.CreateOrderParams) (store.Order, error) {
		callCount++
		return store.Order{}, errors.New("some other DB error")
	}

	svc, _ := newTestService(st)
	_, err := svc.CreateOrder(context.Background(), basicReq(customerID, menuItemID.String()))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if callCount != 1 {
		t.Errorf("non-unique errors should not retry: expected 1 call, got %d", callCount)
	}
}
