package pdf

import (
	"context"
	"image"
)

// FormatPNG is the only format images are re-encoded to.
const FormatPNG = "png"

type ExtractedImage struct {
	Index  int    `json:"index"`
	Data   []byte `json:"data"`
	Format string `json:"format"`
}

// ExtractionResponse: Pages[i] and Images[i] describe the same source page
// (skip + i).
type ExtractionResponse struct {
	Pages  []string           `json:"pages"`
	Images [][]ExtractedImage `json:"images"`

	Stats Stats `json:"-"`
}

type Stats struct {
	TotalPages     int
	ImagesPerPage  []int
	EmittedImages  int
	ExcludedImages int
	FailedImages   int
}

// ImageRef identifies an image resource inside an ImageDocument.
type ImageRef int

// RasterImage holds the decoded pixels of one image resource. Must be released
// right after conversion. Pixels is nil when the declared color space
// already fails the channel test.
type RasterImage struct {
	Pixels image.Image
	N      int
	Alpha  bool
}

func (r *RasterImage) Release() {
	if r == nil {
		return
	}
	r.Pixels = nil
}

// TextDocument is the text-extraction view of a document.
type TextDocument interface {
	NumPages() int
	// PageText returns "" when the page has no extractable text.
	PageText(index int) (string, error)
	Close() error
}

// ImageDocument is the image-extraction view of a document.
type ImageDocument interface {
	NumPages() int
	PageImages(index int) ([]ImageRef, error)
	Resolve(ref ImageRef) (*RasterImage, error)
	Close() error
}

// Loader opens the two independent views over the same bytes.
type Loader interface {
	OpenText(ctx context.Context, data []byte) (TextDocument, error)
	OpenImages(ctx context.Context, data []byte) (ImageDocument, error)
}

type Extractor interface {
	Extract(ctx context.Context, data []byte) (*ExtractionResponse, error)
}
