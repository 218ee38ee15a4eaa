package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/Vovarama1992/pdf_extract/internal/error_notificator"
	"github.com/Vovarama1992/pdf_extract/internal/pdf"
	"github.com/Vovarama1992/pdf_extract/internal/ports"
)

type extractionService struct {
	extractor pdf.Extractor
	archive   ports.S3Service      // nil: archiving off
	repo      ports.ExtractionRepo // nil: audit log off
	notifier  error_notificator.Notificator
	log       *zap.Logger
	now       func() time.Time
}

func NewExtractionService(
	extractor pdf.Extractor,
	archive ports.S3Service,
	repo ports.ExtractionRepo,
	n error_notificator.Notificator,
	log *zap.Logger,
) ports.ExtractionService {
	return &extractionService{
		extractor: extractor,
		archive:   archive,
		repo:      repo,
		notifier:  n,
		log:       log,
		now:       time.Now,
	}
}

// Extract runs the extraction pipeline. Archive and audit failures are
// reported but never change the returned response.
func (s *extractionService) Extract(ctx context.Context, up ports.Upload) (*pdf.ExtractionResponse, error) {
	id := xid.New().String()
	start := s.now()
	size := int64(len(up.Data))

	log := s.log.With(
		zap.String("extraction_id", id),
		zap.String("file", up.FileName),
		zap.String("size", humanize.Bytes(uint64(size))),
	)
	log.Info("extraction started")

	resp, err := s.extractor.Extract(ctx, up.Data)
	if err != nil {
		switch {
		case errors.Is(err, pdf.ErrDocumentOpen):
			log.Warn("document rejected", zap.Error(err))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Warn("extraction abandoned", zap.Error(err))
		default:
			s.notifier.Notify(ctx, err,
				fmt.Sprintf("Ошибка извлечения: id=%s file=%s size=%s", id, up.FileName, humanize.Bytes(uint64(size))))
		}
		return nil, err
	}

	rec := ports.ExtractionRecord{
		ID:             id,
		FileName:       up.FileName,
		SizeBytes:      size,
		TotalPages:     resp.Stats.TotalPages,
		ProcessedPages: len(resp.Pages),
		ImagesPerPage:  toInt64s(resp.Stats.ImagesPerPage),
		FailedImages:   resp.Stats.FailedImages,
		CreatedAt:      start,
	}

	if s.archive != nil {
		url, err := s.archive.SavePDF(ctx, id, bytes.NewReader(up.Data), size, up.FileName)
		if err != nil {
			s.notifier.Notify(ctx, err, fmt.Sprintf("Ошибка архивации PDF: id=%s file=%s", id, up.FileName))
		} else {
			rec.ArchiveURL = &url
		}
	}

	rec.DurationMs = s.now().Sub(start).Milliseconds()

	if s.repo != nil {
		if err := s.repo.Create(ctx, rec); err != nil {
			s.notifier.Notify(ctx, err, fmt.Sprintf("Ошибка записи в журнал: id=%s", id))
		}
	}

	log.Info("extraction done",
		zap.Int("pages", rec.ProcessedPages),
		zap.Int("images", resp.Stats.EmittedImages),
		zap.Int64("duration_ms", rec.DurationMs),
	)

	return resp, nil
}

func (s *extractionService) ListRecent(ctx context.Context, limit int) ([]ports.ExtractionRecord, error) {
	if s.repo == nil {
		return nil, ports.ErrAuditDisabled
	}
	return s.repo.ListRecent(ctx, limit)
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
