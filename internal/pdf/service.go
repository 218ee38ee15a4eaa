package pdf

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// SkipPages is the number of leading pages excluded from both passes.
	SkipPages int
	// Workers bounds per-pass page concurrency (default: NumCPU).
	Workers int
	Logger  *zap.Logger
}

func DefaultConfig() Config {
	return Config{SkipPages: DefaultSkipPages}
}

func (c *Config) defaults() {
	if c.SkipPages < 0 {
		c.SkipPages = 0
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

type PDFService struct {
	loader Loader
	cfg    Config
	log    *zap.Logger
}

func NewPDFService(l Loader, cfg Config) *PDFService {
	cfg.defaults()
	return &PDFService{
		loader: l,
		cfg:    cfg,
		log:    cfg.Logger,
	}
}

func (s *PDFService) SkipPages() int {
	return s.cfg.SkipPages
}

// Extract runs the text and image passes over data and returns their
// page-aligned results. Only ErrDocumentOpen (or ctx cancellation) fails
// the call; page and image problems degrade into the result.
func (s *PDFService) Extract(ctx context.Context, data []byte) (*ExtractionResponse, error) {
	textDoc, imgDoc, err := s.open(ctx, data)
	if err != nil {
		return nil, err
	}
	defer textDoc.Close()
	defer imgDoc.Close()

	total := imgDoc.NumPages()
	if n := textDoc.NumPages(); n != total {
		s.log.Warn("page count mismatch between views",
			zap.Int("text_pages", n),
			zap.Int("image_pages", total),
		)
	}

	pages := SelectPages(total, s.cfg.SkipPages)

	var (
		texts  []string
		images [][]ExtractedImage
		stats  Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		texts, err = s.extractText(gctx, textDoc, pages)
		return err
	})
	g.Go(func() error {
		var err error
		images, stats, err = s.extractImages(gctx, imgDoc, pages)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp, err := assemble(texts, images)
	if err != nil {
		return nil, err
	}

	stats.TotalPages = total
	resp.Stats = stats

	s.log.Info("pdf extracted",
		zap.Int("total_pages", total),
		zap.Int("processed_pages", len(pages)),
		zap.Int("images", stats.EmittedImages),
		zap.Int("images_excluded", stats.ExcludedImages),
		zap.Int("images_failed", stats.FailedImages),
	)

	return resp, nil
}

// open builds both views concurrently. Whatever was opened is closed
// again if the other view fails.
func (s *PDFService) open(ctx context.Context, data []byte) (TextDocument, ImageDocument, error) {
	var (
		textDoc TextDocument
		imgDoc  ImageDocument
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.loader.OpenText(gctx, data)
		if err != nil {
			return fmt.Errorf("%w (text view): %w", ErrDocumentOpen, err)
		}
		textDoc = d
		return nil
	})
	g.Go(func() error {
		d, err := s.loader.OpenImages(gctx, data)
		if err != nil {
			return fmt.Errorf("%w (image view): %w", ErrDocumentOpen, err)
		}
		imgDoc = d
		return nil
	})

	if err := g.Wait(); err != nil {
		if textDoc != nil {
			textDoc.Close()
		}
		if imgDoc != nil {
			imgDoc.Close()
		}
		return nil, nil, err
	}

	return textDoc, imgDoc, nil
}
