package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manoa-its/helpdesk-assistant/internal/analytics"
	"github.com/manoa-its/helpdesk-assistant/internal/middleware"
	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
)

// Summarizer turns an analytics snapshot into one paragraph of prose.
type Summarizer interface {
	AISummary(ctx context.Context, summary model.DailySummary) string
}

// AnalyticsHandler handles analytics ingestion and query endpoints.
type AnalyticsHandler struct {
	store      *analytics.Store
	summarizer Summarizer
	logger     *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(store *analytics.Store, summarizer Summarizer, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		store:      store,
		summarizer: summarizer,
		logger:     log,
	}
}

// RecordEvent handles POST /api/v1/analytics/events
func (h *AnalyticsHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req model.RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "type and sessionId are required")
		return
	}

	event := model.AnalyticsEvent{
		ID:              uuid.Must(uuid.NewV7()).String(),
		Type:            req.Type,
		SessionID:       req.SessionID,
		QuickActionType: req.QuickActionType,
		CreatedAt:       time.Now().UTC(),
	}

	if err := h.store.Record(r.Context(), event); err != nil {
		h.logger.Error("failed to record analytics event", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// Summary handles GET /api/v1/analytics/summary?date=YYYY-MM-DD
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = analytics.DateKey(time.Now())
	}
	if err := middleware.ValidateDateKey(date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.store.Summary(r.Context(), date)
	if errors.Is(err, analytics.ErrNoSummary) {
		writeJSON(w, http.StatusOK, model.DailySummary{Date: date, QuickActionClicks: map[string]int{}})
		return
	}
	if err != nil {
		h.logger.Error("failed to load summary", zap.String("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// SummaryRange handles GET /api/v1/analytics/summary/range?from=&to=
func (h *AnalyticsHandler) SummaryRange(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if middleware.ValidateDateKey(from) != nil || middleware.ValidateDateKey(to) != nil {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
		return
	}

	summaries, err := h.store.Range(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to load summary range", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load summaries")
		return
	}

	writeJSON(w, http.StatusOK, &model.SummaryRangeResponse{Summaries: summaries})
}

// AISummary handles POST /api/v1/analytics/ai-summary
func (h *AnalyticsHandler) AISummary(w http.ResponseWriter, r *http.Request) {
	var req model.AISummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, &model.AISummaryResponse{
		Summary: h.summarizer.AISummary(r.Context(), req.Summary),
	})
}
