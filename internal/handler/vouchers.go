package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/service"
	"github.com/kainan-app/api/internal/store"
)

// VoucherValidator checks a code against an order amount.
// Satisfied by *service.VoucherService.
type VoucherValidator interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error)
}

// VoucherStore defines the database methods needed by voucher handlers.
type VoucherStore interface {
	CreateVoucher(ctx context.Context, arg store.CreateVoucherParams) (store.Voucher, error)
	ListVouchers(ctx context.Context) ([]store.Voucher, error)
	UpdateVoucher(ctx context.Context, arg store.UpdateVoucherParams) (store.Voucher, error)
	DeleteVoucher(ctx context.Context, id uuid.UUID) (int64, error)
}

// VoucherHandler handles voucher management and validation endpoints.
type VoucherHandler struct {
	store     VoucherStore
	validator VoucherValidator
}

func NewVoucherHandler(store VoucherStore, validator VoucherValidator) *VoucherHandler {
	return &VoucherHandler{store: store, validator: validator}
}

// RegisterRoutes registers the validation endpoint customers use at checkout.
func (h *VoucherHandler) RegisterRoutes(r chi.Router) {
	r.Post("/validate", h.Validate)
}

// RegisterOwnerRoutes registers the management endpoints.
func (h *VoucherHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type voucherRequest struct {
	Code           string `json:"code"`
	DiscountType   string `json:"discount_type"`
	Value          string `json:"value"`
	MinOrderAmount string `json:"min_order_amount"`
	MaxDiscount    string `json:"max_discount"`
	ExpiresAt      string `json:"expires_at"`
	UsageLimit     int32  `json:"usage_limit"`
	IsActive       *bool  `json:"is_active"`
}

type voucherResponse struct {
	ID             uuid.UUID `json:"id"`
	Code           string    `json:"code"`
	DiscountType   string    `json:"discount_type"`
	Value          string    `json:"value"`
	MinOrderAmount string    `json:"min_order_amount"`
	MaxDiscount    *string   `json:"max_discount"`
	ExpiresAt      time.Time `json:"expires_at"`
	UsageLimit     int32     `json:"usage_limit"`
	UsageCount     int32     `json:"usage_count"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type validateVoucherRequest struct {
	Code        string `json:"code"`
	OrderAmount string `json:"order_amount"`
}

type validateVoucherResponse struct {
	Valid    bool   `json:"valid"`
	Discount string `json:"discount,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Validate handles POST /vouchers/validate. A rejected voucher is still a
// 200: the rejection reason is part of the checkout flow, not an error.
func (h *VoucherHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}
	amount, err := decimal.NewFromString(req.OrderAmount)
	if err != nil || amount.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_amount"})
		return
	}

	discount, err := h.validator.Validate(r.Context(), req.Code, amount)
	if err != nil {
		if service.IsVoucherRejection(err) {
			writeJSON(w, http.StatusOK, validateVoucherResponse{Valid: false, Reason: err.Error()})
			return
		}
		log.Printf("ERROR: validate voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, validateVoucherResponse{Valid: true, Discount: discount.StringFixed(2)})
}

// Create handles POST /vouchers (owner only).
func (h *VoucherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	code := service.NormalizeVoucherCode(req.Code)
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}
	params, ok := h.voucherParams(w, req)
	if !ok {
		return
	}
	params.Code = code

	voucher, err := h.store.CreateVoucher(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "voucher code already exists"})
			return
		}
		log.Printf("ERROR: create voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toVoucherResponse(voucher))
}

// List handles GET /vouchers (owner only).
func (h *VoucherHandler) List(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.store.ListVouchers(r.Context())
	if err != nil {
		log.Printf("ERROR: list vouchers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]voucherResponse, len(vouchers))
	for i, v := range vouchers {
		resp[i] = toVoucherResponse(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT /vouchers/{id} (owner only). The code itself is
// immutable; past orders reference it by value.
func (h *VoucherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher ID"})
		return
	}

	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	params, ok := h.voucherParams(w, req)
	if !ok {
		return
	}

	voucher, err := h.store.UpdateVoucher(r.Context(), store.UpdateVoucherParams{
		ID:             id,
		DiscountType:   params.DiscountType,
		Value:          params.Value,
		MinOrderAmount: params.MinOrderAmount,
		MaxDiscount:    params.MaxDiscount,
		ExpiresAt:      params.ExpiresAt,
		UsageLimit:     params.UsageLimit,
		IsActive:       params.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
			return
		}
		log.Printf("ERROR: update voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toVoucherResponse(voucher))
}

// Delete handles DELETE /vouchers/{id} (owner only).
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid voucher ID"})
		return
	}

	affected, err := h.store.DeleteVoucher(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: delete voucher: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "voucher not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// voucherParams validates the shared create/update fields. It writes the
// error response itself and reports success via the bool.
func (h *VoucherHandler) voucherParams(w http.ResponseWriter, req voucherRequest) (store.CreateVoucherParams, bool) {
	var params store.CreateVoucherParams

	if req.DiscountType != enum.VoucherTypePercentage && req.DiscountType != enum.VoucherTypeFixed {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "discount_type must be PERCENTAGE or FIXED_AMOUNT"})
		return params, false
	}
	params.DiscountType = req.DiscountType

	value, err := parseMoney(req.Value)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid value"})
		return params, false
	}
	params.Value = value

	if req.MinOrderAmount != "" {
		minAmount, err := parseMoney(req.MinOrderAmount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_order_amount"})
			return params, false
		}
		params.MinOrderAmount = minAmount
	}
	if req.MaxDiscount != "" {
		maxDiscount, err := parseMoney(req.MaxDiscount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid max_discount"})
			return params, false
		}
		params.MaxDiscount = maxDiscount
	}

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expires_at, use RFC3339"})
		return params, false
	}
	params.ExpiresAt = expiresAt

	if req.UsageLimit < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "usage_limit cannot be negative"})
		return params, false
	}
	params.UsageLimit = req.UsageLimit

	params.IsActive = true
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}
	return params, true
}

func toVoucherResponse(v store.Voucher) voucherResponse {
	resp := voucherResponse{
		ID:             v.ID,
		Code:           v.Code,
		DiscountType:   v.DiscountType,
		Value:          numericToString(v.Value),
		MinOrderAmount: numericToString(v.MinOrderAmount),
		ExpiresAt:      v.ExpiresAt,
		UsageLimit:     v.UsageLimit,
		UsageCount:     v.UsageCount,
		IsActive:       v.IsActive,
		CreatedAt:      v.CreatedAt,
	}
	if v.MaxDiscount.Valid {
		s := numericToString(v.MaxDiscount)
		resp.MaxDiscount = &s
	}
	return resp
}
