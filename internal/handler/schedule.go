package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kainan-app/api/internal/service"
	"github.com/kainan-app/api/internal/store"
)

// ScheduleServicer defines the service methods needed by schedule handlers.
// Satisfied by *service.ScheduleService.
type ScheduleServicer interface {
	SaveSchedule(ctx context.Context, restrictionsEnabled bool, entries []service.ScheduleEntry) ([]store.PreorderWindow, error)
	ValidateSlot(ctx context.Context, dateStr, timeStr string) (bool, error)
}

// ScheduleReader lists the configured windows for display.
type ScheduleReader interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	ListPreorderWindows(ctx context.Context) ([]store.PreorderWindow, error)
}

// ScheduleHandler handles the pre-order window configuration.
type ScheduleHandler struct {
	svc   ScheduleServicer
	store ScheduleReader
}

func NewScheduleHandler(svc ScheduleServicer, store ScheduleReader) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, store: store}
}

// RegisterRoutes registers the endpoints the customer app uses to show and
// pre-check available slots.
func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/validate", h.ValidateSlot)
}

// RegisterOwnerRoutes registers the configuration endpoint.
func (h *ScheduleHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Put("/", h.Save)
}

type scheduleEntryPayload struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type saveScheduleRequest struct {
	RestrictionsEnabled bool                   `json:"restrictions_enabled"`
	Windows             []scheduleEntryPayload `json:"windows"`
}

type windowResponse struct {
	Date         string `json:"date"`
	StartMinutes int32  `json:"start_minutes"`
	EndMinutes   int32  `json:"end_minutes"`
}

type scheduleResponse struct {
	RestrictionsEnabled bool             `json:"restrictions_enabled"`
	Windows             []windowResponse `json:"windows"`
}

type validateSlotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Get handles GET /schedule.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	windows, err := h.store.ListPreorderWindows(r.Context())
	if err != nil {
		log.Printf("ERROR: list preorder windows: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(settings.PreorderRestrictionsEnabled, windows))
}

// Save handles PUT /schedule (owner only). The payload replaces the whole
// window configuration.
func (h *ScheduleHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	entries := make([]service.ScheduleEntry, len(req.Windows))
	for i, p := range req.Windows {
		entries[i] = service.ScheduleEntry{Date: p.Date, StartTime: p.StartTime, EndTime: p.EndTime}
	}

	windows, err := h.svc.SaveSchedule(r.Context(), req.RestrictionsEnabled, entries)
	if err != nil {
		if isScheduleInputError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: save schedule: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(req.RestrictionsEnabled, windows))
}

// ValidateSlot handles POST /schedule/validate. Lets the app pre-check a slot
// before the customer fills in the rest of the checkout form.
func (h *ScheduleHandler) ValidateSlot(w http.ResponseWriter, r *http.Request) {
	var req validateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	allowed, err := h.svc.ValidateSlot(r.Context(), req.Date, req.Time)
	if err != nil {
		if isScheduleInputError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: validate slot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func isScheduleInputError(err error) bool {
	return errors.Is(err, service.ErrInvalidWindow) ||
		errors.Is(err, service.ErrInvalidClockTime) ||
		errors.Is(err, service.ErrInvalidDate)
}

func toScheduleResponse(restrictionsEnabled bool, windows []store.PreorderWindow) scheduleResponse {
	resp := scheduleResponse{
		RestrictionsEnabled: restrictionsEnabled,
		Windows:             make([]windowResponse, len(windows)),
	}
	for i, win := range windows {
		resp.Windows[i] = windowResponse{
			Date:         win.Date.Format("2006-01-02"),
			StartMinutes: win.StartMinutes,
			EndMinutes:   win.EndMinutes,
		}
	}
	return resp
}
