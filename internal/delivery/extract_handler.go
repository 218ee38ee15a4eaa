package delivery

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/goccy/go-json"

	"github.com/Vovarama1992/pdf_extract/internal/pdf"
	"github.com/Vovarama1992/pdf_extract/internal/ports"
)

const serviceName = "pdf_extract"

type ExtractHandler struct {
	svc       ports.ExtractionService
	log       *logger.ZapLogger
	maxUpload int64
}

func NewExtractHandler(svc ports.ExtractionService, log *logger.ZapLogger, maxUpload int64) *ExtractHandler {
	return &ExtractHandler{
		svc:       svc,
		log:       log,
		maxUpload: maxUpload,
	}
}

// POST /extract-text (multipart, field "file")
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	// the whole accepted body fits in memory, multipart never spills to disk
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		if isTooLarge(err) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.warn("invalid multipart", err)
		http.Error(w, "invalid multipart: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.warn("missing file", err)
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.svc.Extract(r.Context(), ports.Upload{
		FileName: header.Filename,
		Data:     data,
	})
	switch {
	case errors.Is(err, pdf.ErrDocumentOpen):
		h.warn("invalid pdf", err)
		http.Error(w, "invalid pdf: "+err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		h.log.Log(logger.LogEntry{Level: "error", Message: "extraction failed", Service: serviceName, Error: err})
		http.Error(w, "extraction failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ExtractHandler) warn(msg string, err error) {
	h.log.Log(logger.LogEntry{Level: "warn", Message: msg, Service: serviceName, Error: err})
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
