package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goran-ethernal/GridIndexor/internal/logger"
)

// DefaultLimit is used when a request carries no limit parameter.
const DefaultLimit = 50

// Handler handles HTTP requests for the API.
type Handler struct {
	source       Source
	defaultLimit int
	log          *logger.Logger
	now          func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(source Source, defaultLimit int, log *logger.Logger) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	return &Handler{
		source:       source,
		defaultLimit: defaultLimit,
		log:          log,
		now:          time.Now,
	}
}

// Health reports liveness together with the indexer status.
// @Summary Health check
// @Description Liveness probe with the indexer lifecycle state
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is alive"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Indexer:   h.source.Status(),
	})
}

// GetOrders returns the most recent orders, newest first.
// @Summary Recent orders
// @Description Most recent retained orders, newest first
// @Tags Events
// @Produce json
// @Param limit query int false "Maximum number of orders, clamped to the retention cap" default(50)
// @Success 200 {object} OrdersResponse "Recent orders"
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Router /orders [get]
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, OrdersResponse{
		Orders: orderViews(h.source.RecentOrders(limit)),
		Limit:  limit,
	})
}

// GetSettlements returns the most recent settlements, newest first.
// @Summary Recent settlements
// @Description Most recent retained tick settlements, newest first
// @Tags Events
// @Produce json
// @Param limit query int false "Maximum number of settlements, clamped to the retention cap" default(50)
// @Success 200 {object} SettlementsResponse "Recent settlements"
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Router /settlements [get]
func (h *Handler) GetSettlements(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SettlementsResponse{
		Settlements: settlementViews(h.source.RecentSettlements(limit)),
		Limit:       limit,
	})
}

// GetEvents returns recent orders and settlements plus the cumulative order count.
// @Summary Recent events
// @Description Recent orders and settlements together with the cumulative order count
// @Tags Events
// @Produce json
// @Param limit query int false "Maximum number of each event kind" default(50)
// @Success 200 {object} EventsResponse "Recent events"
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Router /events [get]
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, EventsResponse{
		Orders:      orderViews(h.source.RecentOrders(limit)),
		Settlements: settlementViews(h.source.RecentSettlements(limit)),
		Total:       h.source.Metrics().TotalOrders,
	})
}

// GetMetrics returns the derived analytics snapshot.
// @Summary Grid metrics
// @Description Rolling orders per block, cumulative totals and active ticks
// @Tags Analytics
// @Produce json
// @Success 200 {object} analytics.MetricsSnapshot "Metrics snapshot"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Router /metrics [get]
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.source.Metrics())
}

// parseLimit reads the limit query parameter. Values above the retention cap are clamped.
func (h *Handler) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(h.defaultLimit, h.maxLimit()), nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("invalid limit %q: must be a positive integer", raw)
	}

	return min(limit, h.maxLimit()), nil
}

func (h *Handler) maxLimit() int {
	if m := h.source.MaxEvents(); m > 0 {
		return m
	}
	return h.defaultLimit
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	// Headers already sent, a failed write can only be dropped
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
