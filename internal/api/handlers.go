package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ticketq/internal/domain"
	"ticketq/internal/ports"
	"ticketq/internal/usecase"
)

// defaultStatsWindow is how far back stats look when no since param is given.
const defaultStatsWindow = 10 * time.Minute

type handlers struct {
	enq     usecase.Enqueuer
	records ports.RecordStore
	log     zerolog.Logger
}

type purchaseReq struct {
	EventCode string   `json:"event_code"`
	EventDate string   `json:"event_date"`
	Price     *float64 `json:"price"`
	Quantity  int      `json:"quantity"`
	UserEmail string   `json:"user_email"`
	SeatCode  string   `json:"seat_code"`
	ClientID  string   `json:"client_id"`
}

type purchaseResp struct {
	RecordID int64               `json:"record_id"`
	TaskID   string              `json:"task_id"`
	Status   domain.RecordStatus `json:"status"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) enqueuePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, taskID, err := h.enq.Enqueue(r.Context(), usecase.EnqueueParams{
		EventCode: req.EventCode,
		EventDate: req.EventDate,
		Price:     req.Price,
		Quantity:  req.Quantity,
		UserEmail: req.UserEmail,
		SeatCode:  req.SeatCode,
		ClientID:  req.ClientID,
	})
	switch {
	case errors.Is(err, usecase.ErrMissingEventCode),
		errors.Is(err, usecase.ErrMissingEventDate),
		errors.Is(err, usecase.ErrMissingUserEmail):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusAccepted, purchaseResp{
		RecordID: rec.ID,
		TaskID:   taskID,
		Status:   rec.Status,
	})
}

type statsResp struct {
	Stats     domain.Stats `json:"stats"`
	Since     string       `json:"since"`
	Timestamp string       `json:"timestamp"`
}

func (h *handlers) purchaseStats(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-defaultStatsWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("since must be RFC 3339"))
			return
		}
		since = parsed
	}

	stats, err := h.records.Stats(r.Context(), since)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read purchase stats")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResp{
		Stats:     stats,
		Since:     since.UTC().Format(time.RFC3339),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
