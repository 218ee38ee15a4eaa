package ports

import (
	"context"
	"errors"

	"github.com/Vovarama1992/pdf_extract/internal/pdf"
)

// ErrAuditDisabled is returned when the service runs without DATABASE_URL.
var ErrAuditDisabled = errors.New("extraction audit log disabled")

// Upload is the uploaded file as received by the transport.
type Upload struct {
	FileName string
	Data     []byte
}

type ExtractionService interface {
	Extract(ctx context.Context, up Upload) (*pdf.ExtractionResponse, error)
	ListRecent(ctx context.Context, limit int) ([]ExtractionRecord, error)
}
