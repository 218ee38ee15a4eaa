package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"sort"
	"strings"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff"
)

// LibLoader opens the text view with ledongthuc/pdf and the image view
// with pdfcpu. Both read the same immutable buffer.
type LibLoader struct{}

func NewLibLoader() *LibLoader {
	// keep pdfcpu from creating its config dir on disk
	api.DisableConfigDir()
	return &LibLoader{}
}

func (l *LibLoader) OpenText(ctx context.Context, data []byte) (doc TextDocument, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ledongthuc panics on some malformed trailers
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	return &textDoc{r: r, pages: r.NumPage()}, nil
}

func (l *LibLoader) OpenImages(ctx context.Context, data []byte) (doc ImageDocument, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if pctx.Optimize == nil {
		return nil, fmt.Errorf("pdfcpu read: no image index")
	}

	return &imageDoc{ctx: pctx}, nil
}

// --- text view ---

// textDoc: the ledongthuc reader is immutable after open, so pages are
// read concurrently; the lock only guards Close.
type textDoc struct {
	mu    sync.RWMutex
	r     *lpdf.Reader
	pages int
}

func (d *textDoc) NumPages() int {
	return d.pages
}

func (d *textDoc) PageText(index int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.r == nil {
		return "", fmt.Errorf("document closed")
	}

	p := d.r.Page(index + 1)
	if p.V.IsNull() {
		return "", fmt.Errorf("page object missing")
	}

	return p.GetPlainText(nil)
}

func (d *textDoc) Close() error {
	d.mu.Lock()
	d.r = nil
	d.mu.Unlock()
	return nil
}

// --- image view ---

type imageDoc struct {
	// pdfcpu decodes streams in place, so context access is serialized;
	// pixel decoding happens outside the lock.
	mu  sync.Mutex
	ctx *model.Context
}

func (d *imageDoc) NumPages() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return 0
	}
	return d.ctx.PageCount
}

// PageImages lists the page's images in resource-name order (Im2 before
// Im10), object number breaking ties.
func (d *imageDoc) PageImages(index int) ([]ImageRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return nil, fmt.Errorf("document closed")
	}

	objNrs := pdfcpu.ImageObjNrs(d.ctx, index+1)
	names := make(map[int]string, len(objNrs))
	for _, nr := range objNrs {
		if obj := d.ctx.Optimize.ImageObjects[nr]; obj != nil {
			names[nr] = obj.ResourceNames[index]
		}
	}

	sort.Slice(objNrs, func(i, j int) bool {
		a, b := names[objNrs[i]], names[objNrs[j]]
		if a != b {
			return resourceNameLess(a, b)
		}
		return objNrs[i] < objNrs[j]
	})

	refs := make([]ImageRef, 0, len(objNrs))
	for _, nr := range objNrs {
		refs = append(refs, ImageRef(nr))
	}
	return refs, nil
}

// Resolve reads the declared color space first: images that fail the
// channel test come back without pixels and are never decoded.
func (d *imageDoc) Resolve(ref ImageRef) (*RasterImage, error) {
	layout, stream, fileType, err := d.imageStream(ref)
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return &RasterImage{N: layout.n, Alpha: layout.alpha}, nil
	}

	raster, err := decodeRaster(stream)
	if err != nil {
		return nil, fmt.Errorf("decode %s (obj %d): %w", fileType, ref, err)
	}
	return raster, nil
}

// channelLayout is the channel count an image dict declares. n == 0 when
// the color space is implicit (masks, JPX).
type channelLayout struct {
	n     int
	alpha bool
}

func declaredLayout(img *model.Image) channelLayout {
	if img == nil || img.Comp <= 0 {
		return channelLayout{}
	}
	l := channelLayout{n: img.Comp, alpha: img.HasSMask}
	if l.alpha {
		l.n++
	}
	return l
}

func (d *imageDoc) imageStream(ref ImageRef) (channelLayout, io.Reader, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx == nil {
		return channelLayout{}, nil, "", fmt.Errorf("document closed")
	}

	obj, ok := d.ctx.Optimize.ImageObjects[int(ref)]
	if !ok || obj == nil || obj.ImageDict == nil {
		return channelLayout{}, nil, "", fmt.Errorf("image object %d not found", ref)
	}
	resID := fmt.Sprintf("Im%d", ref)

	// stub only reads the dict; a broken dict falls through to the decoder
	stub, _ := pdfcpu.ExtractImage(d.ctx, obj.ImageDict, false, resID, int(ref), true)
	layout := declaredLayout(stub)
	if layout.n > 0 && !SupportedChannels(layout.n, layout.alpha) {
		return layout, nil, "", nil
	}

	img, err := pdfcpu.ExtractImage(d.ctx, obj.ImageDict, false, resID, int(ref), false)
	if err != nil {
		return layout, nil, "", fmt.Errorf("extract obj %d: %w", ref, err)
	}
	if img == nil || img.Reader == nil {
		return layout, nil, "", fmt.Errorf("obj %d: unsupported image filter", ref)
	}

	// copy out so nothing holds on to pdfcpu buffers after the lock
	buf, err := io.ReadAll(img.Reader)
	if err != nil {
		return layout, nil, "", fmt.Errorf("read obj %d: %w", ref, err)
	}
	return layout, bytes.NewReader(buf), img.FileType, nil
}

func (d *imageDoc) Close() error {
	d.mu.Lock()
	d.ctx = nil
	d.mu.Unlock()
	return nil
}

// decodeRaster decodes an extracted image stream (png, jpg or tif) into
// pixels and reads its channel layout off the color model.
func decodeRaster(r io.Reader) (*RasterImage, error) {
	px, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	n, alpha := Channels(px.ColorModel())
	return &RasterImage{
		Pixels: px,
		N:      n,
		Alpha:  alpha,
	}, nil
}

// resourceNameLess compares resource names with digit runs taken as
// numbers, so Im2 sorts before Im10.
func resourceNameLess(a, b string) bool {
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			if na != nb {
				// compare by magnitude: shorter run (without leading zeros) is smaller
				ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
				if len(ta) != len(tb) {
					return len(ta) < len(tb)
				}
				if ta != tb {
					return ta < tb
				}
				return len(na) < len(nb)
			}
			a, b = ra, rb
			continue
		}
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
