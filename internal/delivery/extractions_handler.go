package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/pdf_extract/internal/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ExtractionsHandler struct {
	svc ports.ExtractionService
	log *logger.ZapLogger
}

func NewExtractionsHandler(svc ports.ExtractionService, log *logger.ZapLogger) *ExtractionsHandler {
	return &ExtractionsHandler{svc: svc, log: log}
}

// GET /extractions?limit=N
func (h *ExtractionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	items, err := h.svc.ListRecent(r.Context(), limit)
	if errors.Is(err, ports.ErrAuditDisabled) {
		http.Error(w, "audit log disabled", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "db error", Service: serviceName, Error: err})
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, items)
}
