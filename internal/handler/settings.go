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
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/store"
)

// SettingsStore defines the database methods needed by settings handlers.
type SettingsStore interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	UpdateSettings(ctx context.Context, arg store.UpdateSettingsParams) (store.Settings, error)

	ListDeliveryFees(ctx context.Context) ([]store.DeliveryFee, error)
	UpsertDeliveryFee(ctx context.Context, arg store.UpsertDeliveryFeeParams) (store.DeliveryFee, error)
	DeleteDeliveryFee(ctx context.Context, id uuid.UUID) (int64, error)

	ListDenialReasons(ctx context.Context) ([]store.DenialReason, error)
}

// SettingsHandler handles restaurant settings, delivery fee areas and denial
// reason presets.
type SettingsHandler struct {
	store SettingsStore
}

func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// RegisterRoutes registers the read endpoints. The app needs fees and
// settings to render checkout, so these are not owner-gated.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Get("/delivery-fees", h.ListDeliveryFees)
}

// RegisterOwnerRoutes registers the mutation endpoints.
func (h *SettingsHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Put("/", h.Update)
	r.Put("/delivery-fees", h.UpsertDeliveryFee)
	r.Delete("/delivery-fees/{id}", h.DeleteDeliveryFee)
	r.Get("/denial-reasons", h.ListDenialReasons)
}

type settingsRequest struct {
	PlatformFeeEnabled bool   `json:"platform_fee_enabled"`
	PlatformFeeAmount  string `json:"platform_fee_amount"`
	DeliveryFeeMode    string `json:"delivery_fee_mode"`
	DeliveryBaseFee    string `json:"delivery_base_fee"`
	DeliveryPerKmRate  string `json:"delivery_per_km_rate"`
	AvgDeliveryMinutes int32  `json:"avg_delivery_minutes"`
}

type settingsResponse struct {
	PlatformFeeEnabled          bool      `json:"platform_fee_enabled"`
	PlatformFeeAmount           string    `json:"platform_fee_amount"`
	DeliveryFeeMode             string    `json:"delivery_fee_mode"`
	DeliveryBaseFee             string    `json:"delivery_base_fee"`
	DeliveryPerKmRate           string    `json:"delivery_per_km_rate"`
	AvgDeliveryMinutes          int32     `json:"avg_delivery_minutes"`
	PreorderRestrictionsEnabled bool      `json:"preorder_restrictions_enabled"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

type deliveryFeeRequest struct {
	Barangay string `json:"barangay"`
	Fee      string `json:"fee"`
}

type deliveryFeeResponse struct {
	ID       uuid.UUID `json:"id"`
	Barangay string    `json:"barangay"`
	Fee      string    `json:"fee"`
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// Update handles PUT /settings (owner only).
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.DeliveryFeeMode != enum.DeliveryFeeModeBarangay && req.DeliveryFeeMode != enum.DeliveryFeeModeDistance {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery_fee_mode must be BARANGAY or DISTANCE"})
		return
	}
	feeAmount, err := parseMoney(req.PlatformFeeAmount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid platform_fee_amount"})
		return
	}
	baseFee, err := parseMoney(req.DeliveryBaseFee)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delivery_base_fee"})
		return
	}
	perKmRate, err := parseMoney(req.DeliveryPerKmRate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delivery_per_km_rate"})
		return
	}
	if req.AvgDeliveryMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "avg_delivery_minutes cannot be negative"})
		return
	}

	settings, err := h.store.UpdateSettings(r.Context(), store.UpdateSettingsParams{
		PlatformFeeEnabled: req.PlatformFeeEnabled,
		PlatformFeeAmount:  feeAmount,
		DeliveryFeeMode:    req.DeliveryFeeMode,
		DeliveryBaseFee:    baseFee,
		DeliveryPerKmRate:  perKmRate,
		AvgDeliveryMinutes: req.AvgDeliveryMinutes,
	})
	if err != nil {
		log.Printf("ERROR: update settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// ListDeliveryFees handles GET /settings/delivery-fees.
func (h *SettingsHandler) ListDeliveryFees(w http.ResponseWriter, r *http.Request) {
	fees, err := h.store.ListDeliveryFees(r.Context())
	if err != nil {
		log.Printf("ERROR: list delivery fees: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]deliveryFeeResponse, len(fees))
	for i, f := range fees {
		resp[i] = deliveryFeeResponse{ID: f.ID, Barangay: f.Barangay, Fee: numericToString(f.Fee)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpsertDeliveryFee handles PUT /settings/delivery-fees (owner only).
func (h *SettingsHandler) UpsertDeliveryFee(w http.ResponseWriter, r *http.Request) {
	var req deliveryFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Barangay == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "barangay is required"})
		return
	}
	fee, err := parseMoney(req.Fee)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid fee"})
		return
	}

	f, err := h.store.UpsertDeliveryFee(r.Context(), store.UpsertDeliveryFeeParams{Barangay: req.Barangay, Fee: fee})
	if err != nil {
		log.Printf("ERROR: upsert delivery fee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, deliveryFeeResponse{ID: f.ID, Barangay: f.Barangay, Fee: numericToString(f.Fee)})
}

// DeleteDeliveryFee handles DELETE /settings/delivery-fees/{id} (owner only).
func (h *SettingsHandler) DeleteDeliveryFee(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid delivery fee ID"})
		return
	}

	affected, err := h.store.DeleteDeliveryFee(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: delete delivery fee: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "delivery fee not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDenialReasons handles GET /settings/denial-reasons (owner only). The
// dashboard offers these as one-tap presets when denying an order.
func (h *SettingsHandler) ListDenialReasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := h.store.ListDenialReasons(r.Context())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: list denial reasons: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if reasons == nil {
		reasons = []store.DenialReason{}
	}
	writeJSON(w, http.StatusOK, reasons)
}

func toSettingsResponse(s store.Settings) settingsResponse {
	return settingsResponse{
		PlatformFeeEnabled:          s.PlatformFeeEnabled,
		PlatformFeeAmount:           numericToString(s.PlatformFeeAmount),
		DeliveryFeeMode:             s.DeliveryFeeMode,
		DeliveryBaseFee:             numericToString(s.DeliveryBaseFee),
		DeliveryPerKmRate:           numericToString(s.DeliveryPerKmRate),
		AvgDeliveryMinutes:          s.AvgDeliveryMinutes,
		PreorderRestrictionsEnabled: s.PreorderRestrictionsEnabled,
		UpdatedAt:                   s.UpdatedAt,
	}
}
