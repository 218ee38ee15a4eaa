package ports

import (
	"context"
	"time"
)

// ExtractionRecord is one row of the extraction audit log.
type ExtractionRecord struct {
	ID             string    `json:"id"`
	FileName       string    `json:"file_name"`
	SizeBytes      int64     `json:"size_bytes"`
	TotalPages     int       `json:"total_pages"`
	ProcessedPages int       `json:"processed_pages"`
	ImagesPerPage  []int64   `json:"images_per_page"`
	FailedImages   int       `json:"failed_images"`
	ArchiveURL     *string   `json:"archive_url,omitempty"`
	DurationMs     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

type ExtractionRepo interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, rec ExtractionRecord) error
	ListRecent(ctx context.Context, limit int) ([]ExtractionRecord, error)
}
