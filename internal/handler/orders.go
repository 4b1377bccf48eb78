package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/middleware"
	"github.com/kainan-app/api/internal/service"
	"github.com/kainan-app/api/internal/store"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	TransitionStatus(ctx context.Context, req service.TransitionStatusRequest) (*store.Order, error)
	DenyOrder(ctx context.Context, req service.DenyOrderRequest) (*store.Order, error)
	OverrideDenied(ctx context.Context, req service.OverrideDeniedRequest) (*store.Order, error)
	EditOrderItems(ctx context.Context, req service.EditOrderItemsRequest) (*service.CreateOrderResult, error)
	AttachPaymentProof(ctx context.Context, req service.AttachPaymentProofRequest) (*store.Order, error)
}

// OrderReader defines the database methods needed by order read handlers.
// Satisfied by *store.Queries; narrow interface for testability.
type OrderReader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
	ListOrderModifications(ctx context.Context, orderID uuid.UUID) ([]store.OrderModification, error)
}

// Notifier pushes order events to connected dashboard clients.
// Satisfied by *ws.Hub; nil disables notifications.
type Notifier interface {
	BroadcastEvent(event string, payload any)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderReader
	notifier Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderReader, notifier Notifier) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers the endpoints both roles can reach.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Cancel)
	r.Post("/{id}/payment-proof", h.AttachPaymentProof)
	r.Get("/{id}/modifications", h.ListModifications)
}

// RegisterOwnerRoutes registers the endpoints only the owner dashboard uses.
func (h *OrderHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/deny", h.Deny)
	r.Post("/{id}/deny/override", h.OverrideDenial)
	r.Put("/{id}/items", h.EditItems)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderType          string            `json:"order_type"`
	FulfillmentMethod  string            `json:"fulfillment_method"`
	ScheduledAt        string            `json:"scheduled_at"`
	VoucherCode        string            `json:"voucher_code"`
	DeliveryAddress    string            `json:"delivery_address"`
	Barangay           string            `json:"barangay"`
	ContactPhone       string            `json:"contact_phone"`
	DeliveryDistanceKm string            `json:"delivery_distance_km"`
	Items              []lineItemRequest `json:"items"`
}

type lineItemRequest struct {
	MenuItemID      string            `json:"menu_item_id"`
	VariantID       string            `json:"variant_id"`
	Quantity        int32             `json:"quantity"`
	SelectedChoices map[string]string `json:"selected_choices"`
}

type updateStatusRequest struct {
	Status               string `json:"status"`
	EstimatedPrepMinutes int32  `json:"estimated_prep_minutes"`
}

type denyOrderRequest struct {
	Reason string `json:"reason"`
}

type overrideDenialRequest struct {
	Status string `json:"status"`
}

type editItemsRequest struct {
	Items []editItemEntry `json:"items"`
}

type editItemEntry struct {
	OrderItemID     string            `json:"order_item_id"`
	MenuItemID      string            `json:"menu_item_id"`
	VariantID       string            `json:"variant_id"`
	Quantity        int32             `json:"quantity"`
	SelectedChoices map[string]string `json:"selected_choices"`
}

type paymentProofRequest struct {
	DownPaymentProofURL string `json:"down_payment_proof_url"`
	FullPaymentProofURL string `json:"full_payment_proof_url"`
}

type orderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	OrderNumber          string              `json:"order_number"`
	CustomerID           uuid.UUID           `json:"customer_id"`
	CustomerName         string              `json:"customer_name"`
	CustomerPhone        *string             `json:"customer_phone"`
	CustomerAddress      *string             `json:"customer_address"`
	CustomerBarangay     *string             `json:"customer_barangay"`
	OrderType            string              `json:"order_type"`
	Status               string              `json:"status"`
	FulfillmentMethod    *string             `json:"fulfillment_method"`
	ScheduledAt          *time.Time          `json:"scheduled_at"`
	Subtotal             string              `json:"subtotal"`
	PlatformFee          string              `json:"platform_fee"`
	DeliveryFee          string              `json:"delivery_fee"`
	Discount             string              `json:"discount"`
	Total                string              `json:"total"`
	VoucherCode          *string             `json:"voucher_code"`
	EstimatedPrepMinutes *int32              `json:"estimated_prep_minutes"`
	DenialReason         *string             `json:"denial_reason"`
	PaymentStatus        string              `json:"payment_status"`
	DownPaymentProofURL  *string             `json:"down_payment_proof_url"`
	FullPaymentProofURL  *string             `json:"full_payment_proof_url"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Items                []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	MenuItemID      uuid.UUID       `json:"menu_item_id"`
	DisplayName     string          `json:"display_name"`
	UnitPrice       string          `json:"unit_price"`
	Quantity        int32           `json:"quantity"`
	LineTotal       string          `json:"line_total"`
	VariantID       *string         `json:"variant_id"`
	VariantName     *string         `json:"variant_name"`
	SelectedChoices json.RawMessage `json:"selected_choices,omitempty"`
	BundleItems     json.RawMessage `json:"bundle_items,omitempty"`
}

type modificationResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"order_id"`
	ActorID          uuid.UUID       `json:"actor_id"`
	ActorName        string          `json:"actor_name"`
	ModificationType string          `json:"modification_type"`
	PreviousValue    json.RawMessage `json:"previous_value,omitempty"`
	NewValue         json.RawMessage `json:"new_value,omitempty"`
	ItemDetails      string          `json:"item_details"`
	CreatedAt        time.Time       `json:"created_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_type is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}
	for i, item := range req.Items {
		if item.MenuItemID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "menu_item_id is required"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
	}

	svcItems := make([]service.LineRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.LineRequest{
			MenuItemID:      item.MenuItemID,
			VariantID:       item.VariantID,
			Quantity:        item.Quantity,
			SelectedChoices: item.SelectedChoices,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerID:         claims.UserID,
		OrderType:          req.OrderType,
		FulfillmentMethod:  req.FulfillmentMethod,
		ScheduledAt:        req.ScheduledAt,
		VoucherCode:        req.VoucherCode,
		DeliveryAddress:    req.DeliveryAddress,
		Barangay:           req.Barangay,
		ContactPhone:       req.ContactPhone,
		DeliveryDistanceKm: req.DeliveryDistanceKm,
		Items:              svcItems,
	})
	if err != nil {
		switch {
		case isCreateValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case service.IsVoucherRejection(err):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrScheduleViolation):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: create order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := toOrderResponse(result.Order, result.Items)
	h.broadcast("order_created", resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders. Customers only see their own orders; the owner
// sees everything and can filter.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := store.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if claims.Role == enum.UserRoleCustomer {
		params.CustomerID = pgtype.UUID{Bytes: claims.UserID, Valid: true}
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("type"); s != "" {
		params.OrderType = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetchVisibleOrder(w, r)
	if !ok {
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// ListModifications handles GET /orders/{id}/modifications.
func (h *OrderHandler) ListModifications(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetchVisibleOrder(w, r)
	if !ok {
		return
	}

	mods, err := h.store.ListOrderModifications(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order modifications: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]modificationResponse, len(mods))
	for i, m := range mods {
		resp[i] = modificationResponse{
			ID:               m.ID,
			OrderID:          m.OrderID,
			ActorID:          m.ActorID,
			ActorName:        m.ActorName,
			ModificationType: m.ModificationType,
			PreviousValue:    json.RawMessage(m.PreviousValue),
			NewValue:         json.RawMessage(m.NewValue),
			ItemDetails:      m.ItemDetails,
			CreatedAt:        m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /orders/{id}/status (owner only).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.svc.TransitionStatus(r.Context(), service.TransitionStatusRequest{
		OrderID:              orderID,
		NextStatus:           req.Status,
		EstimatedPrepMinutes: req.EstimatedPrepMinutes,
		Actor:                service.Actor{ID: claims.UserID, Name: claims.FullName},
	})
	if err != nil {
		h.writeLifecycleError(w, "update order status", err)
		return
	}

	resp := toOrderResponse(*updated, nil)
	h.broadcast("order_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// Deny handles POST /orders/{id}/deny (owner only).
func (h *OrderHandler) Deny(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req denyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.DenyOrder(r.Context(), service.DenyOrderRequest{
		OrderID: orderID,
		Reason:  req.Reason,
		Actor:   service.Actor{ID: claims.UserID, Name: claims.FullName},
	})
	if err != nil {
		if errors.Is(err, service.ErrDenialReasonRequired) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.writeLifecycleError(w, "deny order", err)
		return
	}

	resp := toOrderResponse(*updated, nil)
	h.broadcast("order_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// OverrideDenial handles POST /orders/{id}/deny/override (owner only).
func (h *OrderHandler) OverrideDenial(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req overrideDenialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.svc.OverrideDenied(r.Context(), service.OverrideDeniedRequest{
		OrderID:    orderID,
		NextStatus: req.Status,
		Actor:      service.Actor{ID: claims.UserID, Name: claims.FullName},
	})
	if err != nil {
		h.writeLifecycleError(w, "override denial", err)
		return
	}

	resp := toOrderResponse(*updated, nil)
	h.broadcast("order_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// EditItems handles PUT /orders/{id}/items (owner only).
func (h *OrderHandler) EditItems(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req editItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	entries := make([]service.EditLineRequest, len(req.Items))
	for i, e := range req.Items {
		entries[i] = service.EditLineRequest{
			OrderItemID:     e.OrderItemID,
			MenuItemID:      e.MenuItemID,
			VariantID:       e.VariantID,
			Quantity:        e.Quantity,
			SelectedChoices: e.SelectedChoices,
		}
	}

	result, err := h.svc.EditOrderItems(r.Context(), service.EditOrderItemsRequest{
		OrderID: orderID,
		Items:   entries,
		Actor:   service.Actor{ID: claims.UserID, Name: claims.FullName},
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrOrderNotEditable):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case isCreateValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: edit order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := toOrderResponse(result.Order, result.Items)
	h.broadcast("order_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// Cancel handles DELETE /orders/{id}. Customers can cancel their own orders
// while they are still pending; the state machine enforces the cutoff.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	order, ok := h.fetchVisibleOrder(w, r)
	if !ok {
		return
	}

	updated, err := h.svc.TransitionStatus(r.Context(), service.TransitionStatusRequest{
		OrderID:    order.ID,
		NextStatus: enum.OrderStatusCancelled,
		Actor:      service.Actor{ID: claims.UserID, Name: claims.FullName},
	})
	if err != nil {
		h.writeLifecycleError(w, "cancel order", err)
		return
	}

	resp := toOrderResponse(*updated, nil)
	h.broadcast("order_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// AttachPaymentProof handles POST /orders/{id}/payment-proof.
func (h *OrderHandler) AttachPaymentProof(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetchVisibleOrder(w, r)
	if !ok {
		return
	}

	var req paymentProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.AttachPaymentProof(r.Context(), service.AttachPaymentProofRequest{
		OrderID:             order.ID,
		DownPaymentProofURL: req.DownPaymentProofURL,
		FullPaymentProofURL: req.FullPaymentProofURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoProofProvided) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.writeLifecycleError(w, "attach payment proof", err)
		return
	}

	resp := toOrderResponse(*updated, nil)
	h.broadcast("order_updated", resp)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// fetchVisibleOrder loads the order from the URL and enforces that customers
// only touch their own orders. Writes the error response itself on failure.
func (h *OrderHandler) fetchVisibleOrder(w http.ResponseWriter, r *http.Request) (store.Order, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return store.Order{}, false
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return store.Order{}, false
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return store.Order{}, false
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return store.Order{}, false
	}

	if claims.Role == enum.UserRoleCustomer && order.CustomerID != claims.UserID {
		// 404 rather than 403 so customers cannot probe for order IDs.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return store.Order{}, false
	}
	return order, true
}

func (h *OrderHandler) writeLifecycleError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (h *OrderHandler) broadcast(event string, payload any) {
	if h.notifier != nil {
		h.notifier.BroadcastEvent(event, payload)
	}
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

// isCreateValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isCreateValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidMenuItemID) ||
		errors.Is(err, service.ErrMenuItemNotFound) ||
		errors.Is(err, service.ErrInvalidVariantID) ||
		errors.Is(err, service.ErrInvalidFulfillment) ||
		errors.Is(err, service.ErrScheduledAtRequired) ||
		errors.Is(err, service.ErrInvalidScheduledAt) ||
		errors.Is(err, service.ErrBarangayRequired) ||
		errors.Is(err, service.ErrNoDeliveryArea) ||
		errors.Is(err, service.ErrDistanceRequired) ||
		errors.Is(err, service.ErrInvalidDistance) ||
		errors.Is(err, service.ErrCustomerNotFound) ||
		errors.Is(err, service.ErrItemUnavailable) ||
		errors.Is(err, service.ErrVariantRequired) ||
		errors.Is(err, service.ErrVariantMismatch) ||
		errors.Is(err, service.ErrVariantUnavailable) ||
		errors.Is(err, service.ErrChoiceRequired) ||
		errors.Is(err, service.ErrChoiceNotFound) ||
		errors.Is(err, service.ErrChoiceUnavailable)
}

func toOrderResponse(o store.Order, items []store.OrderItem) orderResponse {
	resp := orderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.CustomerID,
		CustomerName:     o.CustomerName,
		OrderType:        o.OrderType,
		Status:           o.Status,
		Subtotal:         numericToString(o.Subtotal),
		PlatformFee:      numericToString(o.PlatformFee),
		DeliveryFee:      numericToString(o.DeliveryFee),
		Discount:         numericToString(o.Discount),
		Total:            numericToString(o.Total),
		PaymentStatus:    service.DerivePaymentStatus(o),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}

	if o.CustomerPhone.Valid {
		resp.CustomerPhone = &o.CustomerPhone.String
	}
	if o.CustomerAddress.Valid {
		resp.CustomerAddress = &o.CustomerAddress.String
	}
	if o.CustomerBarangay.Valid {
		resp.CustomerBarangay = &o.CustomerBarangay.String
	}
	if o.FulfillmentMethod.Valid {
		resp.FulfillmentMethod = &o.FulfillmentMethod.String
	}
	if o.ScheduledAt.Valid {
		resp.ScheduledAt = &o.ScheduledAt.Time
	}
	if o.VoucherCode.Valid {
		resp.VoucherCode = &o.VoucherCode.String
	}
	if o.EstimatedPrepMinutes.Valid {
		resp.EstimatedPrepMinutes = &o.EstimatedPrepMinutes.Int32
	}
	if o.DenialReason.Valid {
		resp.DenialReason = &o.DenialReason.String
	}
	if o.DownPaymentProofURL.Valid {
		resp.DownPaymentProofURL = &o.DownPaymentProofURL.String
	}
	if o.FullPaymentProofURL.Valid {
		resp.FullPaymentProofURL = &o.FullPaymentProofURL.String
	}

	if items != nil {
		resp.Items = make([]orderItemResponse, len(items))
		for i, it := range items {
			resp.Items[i] = toOrderItemResponse(it)
		}
	}
	return resp
}

func toOrderItemResponse(it store.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:          it.ID,
		MenuItemID:  it.MenuItemID,
		DisplayName: it.DisplayName,
		UnitPrice:   numericToString(it.UnitPrice),
		Quantity:    it.Quantity,
		LineTotal:   numericToString(it.LineTotal),
	}
	if it.VariantID.Valid {
		s := uuid.UUID(it.VariantID.Bytes).String()
		resp.VariantID = &s
	}
	if it.VariantName.Valid {
		resp.VariantName = &it.VariantName.String
	}
	if len(it.SelectedChoices) > 0 {
		resp.SelectedChoices = json.RawMessage(it.SelectedChoices)
	}
	if len(it.BundleItems) > 0 {
		resp.BundleItems = json.RawMessage(it.BundleItems)
	}
	return resp
}
