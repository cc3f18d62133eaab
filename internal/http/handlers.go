package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"raseed/internal/core"
	"raseed/internal/insights"
	"raseed/internal/store"
)

// handleIngestReceipt accepts a normalized receipt, persists it, and
// drops the user's cached insights.
func (s *Server) handleIngestReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var receipt core.Receipt
	if err := json.NewDecoder(r.Body).Decode(&receipt); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.ingest.IngestReceipt(r.Context(), receipt)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicateReceipt):
		writeError(w, http.StatusConflict, err.Error())
		return
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		slog.ErrorContext(r.Context(), "Failed to ingest receipt",
			"receipt_id", receipt.ReceiptID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to ingest receipt")
		return
	}

	s.insightCache.DeletePrefix(saved.UID + "|")

	writeJSON(w, http.StatusCreated, saved)
}

// handleInsights serves the composed five-section report, cached per
// user month.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	year, month := parseYearMonth(r)

	key := insightCacheKey(uid, year, month)
	if cached, hit := s.insightCache.Get(key); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	report, err := s.composer.Compose(r.Context(), uid, year, month)
	if err != nil {
		writeComposeError(w, r, err)
		return
	}

	s.insightCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	year, month := parseYearMonth(r)

	report, err := s.composer.Monthly(r.Context(), uid, year, month)
	if err != nil {
		writeComposeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	year, month := parseYearMonth(r)

	report, err := s.composer.Trends(r.Context(), uid, year, month)
	if err != nil {
		writeComposeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}

	report, err := s.composer.Recurring(r.Context(), uid)
	if err != nil {
		writeComposeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}

	report, err := s.composer.Anomalies(r.Context(), uid)
	if err != nil {
		writeComposeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTimeSlots(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}

	report, err := s.composer.TimeSlots(r.Context(), uid)
	if err != nil {
		writeComposeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeComposeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, insights.ErrInvalidMonth) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.ErrorContext(r.Context(), "Failed to compose insights", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to compose insights")
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrEmptyReceiptID,
		core.ErrEmptyUID,
		core.ErrMissingTimestamp,
		core.ErrEmptyItemName,
		core.ErrEmptyItemCategory,
		core.ErrNegativeAmount,
		core.ErrSummaryMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
