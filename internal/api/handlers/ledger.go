package handlers

import (
	"net/http"
	"strconv"

	"github.com/shadowbrief/shadowbrief/internal/service"
)

type LedgerHandler struct {
	svc      *service.LedgerService
	minCount int
}

func NewLedgerHandler(svc *service.LedgerService, minCount int) *LedgerHandler {
	return &LedgerHandler{svc: svc, minCount: minCount}
}

// Get returns the per-topic ledger for a user. min_count overrides the
// configured evidence threshold for this request only.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	minCount := h.minCount
	if v := r.URL.Query().Get("min_count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minCount = n
		}
	}

	entries, err := h.svc.GetLedger(r.Context(), userID, minCount)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to synthesize ledger")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"min_count": minCount,
		"topics":    entries,
	})
}
