package infra

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/Vovarama1992/pdf_extract/internal/ports"
)

type extractionRepo struct {
	db *sql.DB
}

func NewExtractionRepo(db *sql.DB) ports.ExtractionRepo {
	return &extractionRepo{db: db}
}

func (r *extractionRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pdf_extractions (
			id              TEXT PRIMARY KEY,
			file_name       TEXT NOT NULL,
			size_bytes      BIGINT NOT NULL,
			total_pages     INT NOT NULL,
			processed_pages INT NOT NULL,
			images_per_page INT[] NOT NULL DEFAULT '{}',
			failed_images   INT NOT NULL DEFAULT 0,
			archive_url     TEXT,
			duration_ms     BIGINT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (r *extractionRepo) Create(ctx context.Context, rec ports.ExtractionRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pdf_extractions
			(id, file_name, size_bytes, total_pages, processed_pages,
			 images_per_page, failed_images, archive_url, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		rec.ID,
		rec.FileName,
		rec.SizeBytes,
		rec.TotalPages,
		rec.ProcessedPages,
		pq.Array(rec.ImagesPerPage),
		rec.FailedImages,
		rec.ArchiveURL,
		rec.DurationMs,
		rec.CreatedAt,
	)
	return err
}

func (r *extractionRepo) ListRecent(ctx context.Context, limit int) ([]ports.ExtractionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_name, size_bytes, total_pages, processed_pages,
		       images_per_page, failed_images, archive_url, duration_ms, created_at
		FROM pdf_extractions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []ports.ExtractionRecord{}
	for rows.Next() {
		var rec ports.ExtractionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.FileName,
			&rec.SizeBytes,
			&rec.TotalPages,
			&rec.ProcessedPages,
			pq.Array(&rec.ImagesPerPage),
			&rec.FailedImages,
			&rec.ArchiveURL,
			&rec.DurationMs,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
