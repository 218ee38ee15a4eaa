package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Images with maxColorChannels or more non-alpha channels (CMYK and
// up) are left out.
const maxColorChannels = 4

var errUnsupportedColorSpace = errors.New("unsupported color space")

var pngEncoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// SupportedChannels is the channel test: only grayscale and RGB pass.
func SupportedChannels(n int, alpha bool) bool {
	if alpha {
		n--
	}
	return n < maxColorChannels
}

// Channels reports the channel count (alpha included) and alpha flag of
// a decoded color model.
func Channels(m color.Model) (int, bool) {
	if _, ok := m.(color.Palette); ok {
		return 3, false
	}

	switch m {
	case color.GrayModel, color.Gray16Model:
		return 1, false
	case color.AlphaModel, color.Alpha16Model:
		return 2, true
	case color.YCbCrModel:
		return 3, false
	case color.NYCbCrAModel:
		return 4, true
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		return 4, true
	case color.CMYKModel:
		return 4, false
	}
	// unknown model: treat as 4 color channels so it is excluded
	return maxColorChannels, false
}

func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// convertImage resolves one image, applies the channel test and encodes
// it. The raster is released before return on every path.
func convertImage(doc ImageDocument, ref ImageRef, index int) (out *ExtractedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: panic: %v", ErrImageResolve, r)
		}
	}()

	raster, err := doc.Resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageResolve, err)
	}
	if raster == nil {
		return nil, fmt.Errorf("%w: no image", ErrImageResolve)
	}
	defer raster.Release()

	if !SupportedChannels(raster.N, raster.Alpha) {
		return nil, errUnsupportedColorSpace
	}
	if raster.Pixels == nil {
		return nil, fmt.Errorf("%w: no pixel data", ErrImageResolve)
	}

	data, err := EncodePNG(raster.Pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageEncode, err)
	}

	return &ExtractedImage{
		Index:  index,
		Data:   data,
		Format: FormatPNG,
	}, nil
}

type pageImageStats struct {
	excluded int
	failed   int
}

func (s *PDFService) extractImages(ctx context.Context, doc ImageDocument, pages []int) ([][]ExtractedImage, Stats, error) {
	out := make([][]ExtractedImage, len(pages))
	perPage := make([]pageImageStats, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for slot, page := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[slot], perPage[slot] = s.pageImages(doc, page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	st := Stats{ImagesPerPage: make([]int, len(pages))}
	for i := range pages {
		st.ImagesPerPage[i] = len(out[i])
		st.EmittedImages += len(out[i])
		st.ExcludedImages += perPage[i].excluded
		st.FailedImages += perPage[i].failed
	}
	return out, st, nil
}

func (s *PDFService) pageImages(doc ImageDocument, page int) ([]ExtractedImage, pageImageStats) {
	var st pageImageStats

	refs, err := listPageImages(doc, page)
	if err != nil {
		s.log.Warn("page images unavailable",
			zap.Int("page", page),
			zap.Error(err),
		)
		return []ExtractedImage{}, st
	}

	images := make([]ExtractedImage, 0, len(refs))
	for idx, ref := range refs {
		img, err := convertImage(doc, ref, idx)
		switch {
		case errors.Is(err, errUnsupportedColorSpace):
			st.excluded++
			s.log.Debug("image skipped: unsupported color space",
				zap.Int("page", page),
				zap.Int("image", idx),
			)
		case err != nil:
			st.failed++
			s.log.Error("image extraction failed",
				zap.Int("page", page),
				zap.Int("image", idx),
				zap.Error(err),
			)
		default:
			images = append(images, *img)
		}
	}

	return images, st
}

func listPageImages(doc ImageDocument, page int) (refs []ImageRef, err error) {
	defer func() {
		if r := recover(); r != nil {
			refs, err = nil, fmt.Errorf("%w %d: panic: %v", ErrPageAccess, page, r)
		}
	}()

	if page >= doc.NumPages() {
		return nil, fmt.Errorf("%w %d: out of range", ErrPageAccess, page)
	}

	refs, err = doc.PageImages(page)
	if err != nil {
		return nil, fmt.Errorf("%w %d: %w", ErrPageAccess, page, err)
	}
	return refs, nil
}
