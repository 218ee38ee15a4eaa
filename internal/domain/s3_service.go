package domain

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/Vovarama1992/pdf_extract/internal/ports"
)

type s3Service struct {
	client ports.S3Client
	now    func() time.Time
}

func NewS3Service(client ports.S3Client) ports.S3Service {
	return &s3Service{client: client, now: time.Now}
}

// ObjectKey: путь в бакете
func (s *s3Service) ObjectKey(extractionID, filename string) string {
	date := s.now().Format("2006-01-02")
	clean := filepath.Base(filepath.Clean("/" + filename))
	if clean == "/" || clean == "." {
		clean = "document.pdf"
	}
	return fmt.Sprintf("extractions/%s/%s/%s", date, extractionID, clean)
}

func (s *s3Service) SavePDF(
	ctx context.Context,
	extractionID string,
	file io.Reader,
	size int64,
	filename string,
) (string, error) {

	if extractionID == "" {
		return "", fmt.Errorf("extractionID required")
	}

	key := s.ObjectKey(extractionID, filename)
	return s.client.PutObject(ctx, key, file, size, "application/pdf")
}
