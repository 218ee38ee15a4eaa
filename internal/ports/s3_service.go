package ports

import (
	"context"
	"io"
)

type S3Service interface {
	ObjectKey(extractionID, filename string) string
	SavePDF(ctx context.Context, extractionID string, file io.Reader, size int64, filename string) (string, error)
}
