package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/domain"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/metrics"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/store"
)

// ErrorResponse defines standard error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSONError sends a JSON error response
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Handler serves the countdown and preview endpoints.
type Handler struct {
	Repo store.Repo
	Log  *zap.Logger
	Now  func() time.Time
}

// EntryResponse is one upcoming dose.
type EntryResponse struct {
	Medication       string    `json:"medication"`
	RuleID           int64     `json:"rule_id"`
	TimeOfDay        string    `json:"time_of_day"`
	At               time.Time `json:"at"`
	Label            string    `json:"label"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	Remaining        string    `json:"remaining"`
}

// CountdownResponse is the ordered countdown for one chat.
type CountdownResponse struct {
	ChatID  int64           `json:"chat_id"`
	Now     time.Time       `json:"now"`
	Entries []EntryResponse `json:"entries"`
}

// Countdown handles GET /api/chats/{chatID}/countdown.
func (h *Handler) Countdown(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil {
		JSONError(w, "invalid chat id", http.StatusBadRequest)
		return
	}

	meds, err := h.Repo.ListMedications(r.Context(), chatID)
	if err != nil {
		h.Log.Error("list medications failed", zap.Int64("chat_id", chatID), zap.Error(err))
		JSONError(w, "failed to load pillbox", http.StatusInternalServerError)
		return
	}

	now := h.Now().UTC()
	entries := countdown.Compute(countdown.Snapshot(meds), now)
	metrics.RecordRecompute("api", len(entries))

	resp := CountdownResponse{ChatID: chatID, Now: now, Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			Medication:       e.Medication,
			RuleID:           e.RuleID,
			TimeOfDay:        e.TimeOfDay.String(),
			At:               e.Occurrence.At,
			Label:            e.Occurrence.Label,
			RemainingSeconds: int64(e.Remaining / time.Second),
			Remaining:        countdown.FormatRemaining(e.Remaining),
		})
	}
	writeJSON(w, resp)
}

// PreviewRequest describes a rule that has not been saved yet.
type PreviewRequest struct {
	TimeOfDay  string     `json:"time_of_day"`
	DaysOfWeek string     `json:"days_of_week"`
	Timezone   string     `json:"timezone"`
	Now        *time.Time `json:"now,omitempty"`
}

// PreviewResponse is the next occurrence of the previewed rule.
type PreviewResponse struct {
	Found      bool       `json:"found"`
	DaysOfWeek string     `json:"days_of_week"`
	Cron       string     `json:"cron"`
	At         *time.Time `json:"at,omitempty"`
	Label      string     `json:"label,omitempty"`
	Remaining  string     `json:"remaining,omitempty"`
}

// Preview handles POST /api/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DaysOfWeek == "" {
		req.DaysOfWeek = domain.Daily
	}

	rule, err := domain.NewRule(0, req.TimeOfDay, req.DaysOfWeek, req.Timezone)
	if err != nil {
		metrics.RecordPreview("invalid")
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := h.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
	}
	resp := PreviewResponse{DaysOfWeek: rule.DaysOfWeek, Cron: rule.CronSpec()}
	occ, ok := rule.Next(now)
	if !ok {
		metrics.RecordPreview("none")
		writeJSON(w, resp)
		return
	}
	metrics.RecordPreview("found")
	resp.Found = true
	resp.At = &occ.At
	resp.Label = occ.Label
	resp.Remaining = countdown.FormatRemaining(occ.At.Sub(now))
	writeJSON(w, resp)
}
