package leads

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HansOheneba/celerey-api/pkg/common/logger"
	"github.com/HansOheneba/celerey-api/pkg/common/models"
	"github.com/HansOheneba/celerey-api/pkg/middleware"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register wires the public capture endpoint.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/start", h.handleCapture).Methods(http.MethodPost)
}

// RegisterOperator wires the operator-facing lead endpoints. The caller is
// expected to guard this subrouter with authentication middleware.
func (h *Handler) RegisterOperator(r *mux.Router) {
	r.HandleFunc("/leads", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/leads/stats", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/leads/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/leads/{id}", h.handleUpdateDetails).Methods(http.MethodPatch)
	r.HandleFunc("/leads/{id}/status", h.handleUpdateStatus).Methods(http.MethodPatch)
	r.HandleFunc("/leads/{id}/notes", h.handleUpdateNotes).Methods(http.MethodPatch)
	r.HandleFunc("/leads/{id}/events", h.handleEvents).Methods(http.MethodGet)
}

func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req models.CaptureLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid capture payload")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":      false,
			"error":   "VALIDATION_ERROR",
			"details": map[string]string{"body": "Request body must be valid JSON"},
		})
		return
	}

	meta := models.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}

	lead, err := h.service.Capture(r.Context(), req, meta)
	if err != nil {
		if IsValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"ok":      false,
				"error":   "VALIDATION_ERROR",
				"details": ValidationFields(err),
			})
			return
		}
		logger.Log.WithError(err).Error("failed to capture lead")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"ok":      false,
			"error":   "SERVER_ERROR",
			"message": "Something went wrong. Please try again.",
		})
		return
	}

	writeJSON(w, http.StatusCreated, models.CaptureLeadResponse{
		OK:      true,
		LeadID:  lead.ID,
		Message: "Thanks — we'll reach out via email shortly.",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := models.ListLeadsFilter{
		Status:  strings.TrimSpace(r.URL.Query().Get("status")),
		Source:  strings.TrimSpace(r.URL.Query().Get("source")),
		Email:   strings.TrimSpace(r.URL.Query().Get("email")),
		Page:    parseIntQuery(r, "page", 1),
		PerPage: parseIntQuery(r, "per_page", defaultPerPage),
	}
	filter.CreatedAfter = parseTimeQuery(r, "created_after")
	filter.CreatedBefore = parseTimeQuery(r, "created_before")

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list leads")
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "Lead not found"})
			return
		}
		logger.Log.WithError(err).Error("failed to get lead")
		http.Error(w, "failed to get lead", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "lead": lead})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	var payload models.UpdateLeadStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if payload.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}

	lead, err := h.service.UpdateStatus(r.Context(), id, payload.Status, resolveActor(r))
	if err != nil {
		h.writeUpdateError(w, err, "failed to update lead status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "lead": lead})
}

func (h *Handler) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	var payload models.UpdateLeadNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	lead, err := h.service.UpdateNotes(r.Context(), id, payload.InternalNotes, resolveActor(r))
	if err != nil {
		h.writeUpdateError(w, err, "failed to update lead notes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "lead": lead})
}

func (h *Handler) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	var payload models.UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	lead, err := h.service.UpdateDetails(r.Context(), id, payload, resolveActor(r))
	if err != nil {
		h.writeUpdateError(w, err, "failed to update lead")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "lead": lead})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}
	limit := parseIntQuery(r, "limit", 100)
	events, err := h.service.Events(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "Lead not found"})
			return
		}
		logger.Log.WithError(err).Error("failed to list lead events")
		http.Error(w, "failed to list lead events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": events})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to compute lead stats")
		http.Error(w, "failed to compute lead stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeUpdateError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "Lead not found"})
		return
	}
	if IsValidationError(err) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":      false,
			"error":   "VALIDATION_ERROR",
			"details": ValidationFields(err),
		})
		return
	}
	logger.Log.WithError(err).Error(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func parseLeadID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "invalid lead id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

func parseTimeQuery(r *http.Request, key string) *time.Time {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// clientIP prefers the forwarded address set by the edge proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func resolveActor(r *http.Request) string {
	if r == nil {
		return "system"
	}
	if claims, ok := r.Context().Value(middleware.UserContextKey).(map[string]interface{}); ok {
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			return sub
		}
	}
	return "system"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
