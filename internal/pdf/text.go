package pdf

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (s *PDFService) extractText(ctx context.Context, doc TextDocument, pages []int) ([]string, error) {
	out := make([]string, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for slot, page := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[slot] = s.pageText(doc, page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// pageText never fails: an unreadable page degrades to "".
func (s *PDFService) pageText(doc TextDocument, page int) string {
	text, err := readPageText(doc, page)
	if err != nil {
		s.log.Warn("page text unavailable",
			zap.Int("page", page),
			zap.Error(err),
		)
		return ""
	}
	return text
}

func readPageText(doc TextDocument, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w %d: panic: %v", ErrPageAccess, page, r)
		}
	}()

	if page >= doc.NumPages() {
		return "", fmt.Errorf("%w %d: out of range", ErrPageAccess, page)
	}

	text, err = doc.PageText(page)
	if err != nil {
		return "", fmt.Errorf("%w %d: %w", ErrPageAccess, page, err)
	}
	return text, nil
}
