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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kainan-app/api/internal/store"
)

// MenuStore defines the database methods needed by menu handlers.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, arg store.CreateMenuItemParams) (store.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (store.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]store.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg store.UpdateMenuItemParams) (store.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error)

	ListVariantsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]store.MenuItemVariant, error)
	CreateVariant(ctx context.Context, arg store.CreateVariantParams) (store.MenuItemVariant, error)
	UpdateVariant(ctx context.Context, arg store.UpdateVariantParams) (store.MenuItemVariant, error)
	DeleteVariant(ctx context.Context, arg store.DeleteVariantParams) (int64, error)

	ListBundleConstituents(ctx context.Context, bundleID uuid.UUID) ([]store.BundleConstituent, error)
	CreateBundleConstituent(ctx context.Context, arg store.CreateBundleConstituentParams) (store.BundleConstituent, error)
	DeleteBundleConstituent(ctx context.Context, arg store.DeleteBundleConstituentParams) (int64, error)

	ListChoiceGroupsByBundle(ctx context.Context, bundleID uuid.UUID) ([]store.ChoiceGroup, error)
	CreateChoiceGroup(ctx context.Context, arg store.CreateChoiceGroupParams) (store.ChoiceGroup, error)
	UpdateChoiceGroup(ctx context.Context, arg store.UpdateChoiceGroupParams) (store.ChoiceGroup, error)
	DeleteChoiceGroup(ctx context.Context, arg store.DeleteChoiceGroupParams) (int64, error)
}

// MenuHandler handles menu item, variant, constituent and choice group
// endpoints.
type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers the read endpoints available to everyone.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterOwnerRoutes registers the mutation endpoints.
func (h *MenuHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/variants", h.CreateVariant)
	r.Put("/{id}/variants/{variantID}", h.UpdateVariant)
	r.Delete("/{id}/variants/{variantID}", h.DeleteVariant)

	r.Post("/{id}/constituents", h.CreateConstituent)
	r.Delete("/{id}/constituents/{constituentID}", h.DeleteConstituent)

	r.Post("/{id}/choice-groups", h.CreateChoiceGroup)
	r.Put("/{id}/choice-groups/{groupID}", h.UpdateChoiceGroup)
	r.Delete("/{id}/choice-groups/{groupID}", h.DeleteChoiceGroup)
}

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   string `json:"base_price"`
	Category    string `json:"category"`
	IsAvailable *bool  `json:"is_available"`
	IsBundle    bool   `json:"is_bundle"`
}

type menuItemResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	BasePrice   string            `json:"base_price"`
	Category    string            `json:"category"`
	IsAvailable bool              `json:"is_available"`
	IsBundle    bool              `json:"is_bundle"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Variants    []variantResponse `json:"variants,omitempty"`
}

type variantRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	IsAvailable *bool  `json:"is_available"`
	Sku         string `json:"sku"`
	SortOrder   int32  `json:"sort_order"`
}

type variantResponse struct {
	ID          uuid.UUID `json:"id"`
	MenuItemID  uuid.UUID `json:"menu_item_id"`
	Name        string    `json:"name"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"is_available"`
	Sku         *string   `json:"sku"`
	SortOrder   int32     `json:"sort_order"`
}

type constituentRequest struct {
	MenuItemID string `json:"menu_item_id"`
	SortOrder  int32  `json:"sort_order"`
}

type choiceGroupRequest struct {
	Name       string              `json:"name"`
	IsRequired bool                `json:"is_required"`
	SortOrder  int32               `json:"sort_order"`
	Choices    []store.ChoiceOption `json:"choices"`
}

// List handles GET /menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /menu/{id}. Variants, constituents and choice groups come
// along so the app can render the item detail in one round trip.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	variants, err := h.store.ListVariantsByMenuItem(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list variants: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := struct {
		menuItemResponse
		Constituents []store.BundleConstituent `json:"constituents,omitempty"`
		ChoiceGroups []store.ChoiceGroup       `json:"choice_groups,omitempty"`
	}{menuItemResponse: toMenuItemResponse(item, variants)}

	if item.IsBundle {
		resp.Constituents, err = h.store.ListBundleConstituents(r.Context(), id)
		if err != nil {
			log.Printf("ERROR: list bundle constituents: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp.ChoiceGroups, err = h.store.ListChoiceGroupsByBundle(r.Context(), id)
		if err != nil {
			log.Printf("ERROR: list choice groups: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /menu (owner only).
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and category are required"})
		return
	}
	price, err := parseMoney(req.BasePrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid base_price"})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := h.store.CreateMenuItem(r.Context(), store.CreateMenuItemParams{
		Name:        req.Name,
		Description: textOrNull(req.Description),
		BasePrice:   price,
		Category:    req.Category,
		IsAvailable: available,
		IsBundle:    req.IsBundle,
	})
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item, nil))
}

// Update handles PUT /menu/{id} (owner only).
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and category are required"})
		return
	}
	price, err := parseMoney(req.BasePrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid base_price"})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := h.store.UpdateMenuItem(r.Context(), store.UpdateMenuItemParams{
		ID:          id,
		Name:        req.Name,
		Description: textOrNull(req.Description),
		BasePrice:   price,
		Category:    req.Category,
		IsAvailable: available,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item, nil))
}

// Delete handles DELETE /menu/{id} (owner only). Items referenced by past
// orders keep their captured snapshots; the foreign key only blocks deleting
// items still wired into bundles.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	affected, err := h.store.DeleteMenuItem(r.Context(), id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item is part of a bundle"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateVariant handles POST /menu/{id}/variants (owner only).
func (h *MenuHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	menuItemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	variant, err := h.store.CreateVariant(r.Context(), store.CreateVariantParams{
		MenuItemID:  menuItemID,
		Name:        req.Name,
		Price:       price,
		IsAvailable: available,
		Sku:         textOrNull(req.Sku),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: create variant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toVariantResponse(variant))
}

// UpdateVariant handles PUT /menu/{id}/variants/{variantID} (owner only).
func (h *MenuHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	menuItemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant ID"})
		return
	}

	var req variantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	variant, err := h.store.UpdateVariant(r.Context(), store.UpdateVariantParams{
		ID:          variantID,
		MenuItemID:  menuItemID,
		Name:        req.Name,
		Price:       price,
		IsAvailable: available,
		Sku:         textOrNull(req.Sku),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "variant not found"})
			return
		}
		log.Printf("ERROR: update variant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toVariantResponse(variant))
}

// DeleteVariant handles DELETE /menu/{id}/variants/{variantID} (owner only).
func (h *MenuHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	menuItemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid variant ID"})
		return
	}

	affected, err := h.store.DeleteVariant(r.Context(), store.DeleteVariantParams{ID: variantID, MenuItemID: menuItemID})
	if err != nil {
		log.Printf("ERROR: delete variant: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "variant not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateConstituent handles POST /menu/{id}/constituents (owner only).
func (h *MenuHandler) CreateConstituent(w http.ResponseWriter, r *http.Request) {
	bundleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req constituentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu_item_id"})
		return
	}
	if menuItemID == bundleID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a bundle cannot contain itself"})
		return
	}

	bundle, err := h.store.GetMenuItem(r.Context(), bundleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !bundle.IsBundle {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu item is not a bundle"})
		return
	}

	c, err := h.store.CreateBundleConstituent(r.Context(), store.CreateBundleConstituentParams{
		BundleID:   bundleID,
		MenuItemID: menuItemID,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "constituent menu item not found"})
			return
		}
		log.Printf("ERROR: create bundle constituent: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DeleteConstituent handles DELETE /menu/{id}/constituents/{constituentID}
// (owner only).
func (h *MenuHandler) DeleteConstituent(w http.ResponseWriter, r *http.Request) {
	bundleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	constituentID, err := uuid.Parse(chi.URLParam(r, "constituentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid constituent ID"})
		return
	}

	affected, err := h.store.DeleteBundleConstituent(r.Context(), store.DeleteBundleConstituentParams{ID: constituentID, BundleID: bundleID})
	if err != nil {
		log.Printf("ERROR: delete bundle constituent: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "constituent not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateChoiceGroup handles POST /menu/{id}/choice-groups (owner only).
func (h *MenuHandler) CreateChoiceGroup(w http.ResponseWriter, r *http.Request) {
	bundleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req choiceGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if len(req.Choices) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "choices are required"})
		return
	}

	group, err := h.store.CreateChoiceGroup(r.Context(), store.CreateChoiceGroupParams{
		BundleID:   bundleID,
		Name:       req.Name,
		IsRequired: req.IsRequired,
		SortOrder:  req.SortOrder,
		Choices:    req.Choices,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: create choice group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// UpdateChoiceGroup handles PUT /menu/{id}/choice-groups/{groupID} (owner only).
func (h *MenuHandler) UpdateChoiceGroup(w http.ResponseWriter, r *http.Request) {
	bundleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid choice group ID"})
		return
	}

	var req choiceGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if len(req.Choices) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "choices are required"})
		return
	}

	group, err := h.store.UpdateChoiceGroup(r.Context(), store.UpdateChoiceGroupParams{
		ID:         groupID,
		BundleID:   bundleID,
		Name:       req.Name,
		IsRequired: req.IsRequired,
		SortOrder:  req.SortOrder,
		Choices:    req.Choices,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "choice group not found"})
			return
		}
		log.Printf("ERROR: update choice group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// DeleteChoiceGroup handles DELETE /menu/{id}/choice-groups/{groupID} (owner only).
func (h *MenuHandler) DeleteChoiceGroup(w http.ResponseWriter, r *http.Request) {
	bundleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid choice group ID"})
		return
	}

	affected, err := h.store.DeleteChoiceGroup(r.Context(), store.DeleteChoiceGroupParams{ID: groupID, BundleID: bundleID})
	if err != nil {
		log.Printf("ERROR: delete choice group: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "choice group not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toMenuItemResponse(m store.MenuItem, variants []store.MenuItemVariant) menuItemResponse {
	resp := menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		BasePrice:   numericToString(m.BasePrice),
		Category:    m.Category,
		IsAvailable: m.IsAvailable,
		IsBundle:    m.IsBundle,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Description.Valid {
		resp.Description = &m.Description.String
	}
	if variants != nil {
		resp.Variants = make([]variantResponse, len(variants))
		for i, v := range variants {
			resp.Variants[i] = toVariantResponse(v)
		}
	}
	return resp
}

func toVariantResponse(v store.MenuItemVariant) variantResponse {
	resp := variantResponse{
		ID:          v.ID,
		MenuItemID:  v.MenuItemID,
		Name:        v.Name,
		Price:       numericToString(v.Price),
		IsAvailable: v.IsAvailable,
		SortOrder:   v.SortOrder,
	}
	if v.Sku.Valid {
		resp.Sku = &v.Sku.String
	}
	return resp
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
