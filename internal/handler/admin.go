package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/response"
)

const defaultReminderDays = 3

type SweepResult struct {
	Updated int `json:"updated"`
}

type ReminderResult struct {
	Reminded []string `json:"reminded"`
}

type SyncResult struct {
	Pending int `json:"pending"`
}

func (h *LendingHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	response.Success(w, SweepResult{Updated: h.service.SweepMissedPayments(r.Context())})
}

func (h *LendingHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	days := defaultReminderDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, customError.WrapValidation("days must be a non-negative integer"))
			return
		}
		days = n
	}

	loans := h.service.SendReminders(r.Context(), days)
	result := ReminderResult{Reminded: make([]string, 0, len(loans))}
	for _, l := range loans {
		result.Reminded = append(result.Reminded, l.ID)
	}
	response.Success(w, result)
}

// Sync retries write-backs that failed earlier.
func (h *LendingHandler) Sync(w http.ResponseWriter, r *http.Request) {
	pending, err := h.service.SyncPending(r.Context())
	if err != nil {
		response.ErrorWithCode(w, http.StatusServiceUnavailable, customError.Code(err), "Write-back still failing", err)
		return
	}
	response.Success(w, SyncResult{Pending: pending})
}

func (h *LendingHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Reconcile(r.Context()))
}

func (h *LendingHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	events, err := h.service.AuditTrail(r.Context(), vars["entityType"], vars["entityId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, events)
}
