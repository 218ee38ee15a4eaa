package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/pdf_extract/internal/pdf"
	"github.com/Vovarama1992/pdf_extract/internal/ports"
)

type fakeService struct {
	resp    *pdf.ExtractionResponse
	err     error
	got     ports.Upload
	records []ports.ExtractionRecord
	listErr error
	limit   int
}

func (f *fakeService) Extract(_ context.Context, up ports.Upload) (*pdf.ExtractionResponse, error) {
	f.got = up
	return f.resp, f.err
}

func (f *fakeService) ListRecent(_ context.Context, limit int) ([]ports.ExtractionRecord, error) {
	f.limit = limit
	return f.records, f.listErr
}

func newRouter(svc ports.ExtractionService, opts RouteOptions, maxUpload int64) http.Handler {
	zl := logger.NewZapLogger(zap.NewNop().Sugar())
	r := chi.NewRouter()
	RegisterRoutes(r,
		NewExtractHandler(svc, zl, maxUpload),
		NewExtractionsHandler(svc, zl),
		opts,
	)
	return r
}

func uploadRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "boletin.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract-text", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractHandler_OK(t *testing.T) {
	svc := &fakeService{resp: &pdf.ExtractionResponse{
		Pages:  []string{"Hello", ""},
		Images: [][]pdf.ExtractedImage{{{Index: 0, Data: []byte{1, 2}, Format: "png"}}, {}},
	}}
	h := newRouter(svc, RouteOptions{}, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", []byte("%PDF-1.4 body")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"pages":["Hello",""],"images":[[{"index":0,"data":"AQI=","format":"png"}],[]]}`,
		rec.Body.String())

	assert.Equal(t, "boletin.pdf", svc.got.FileName)
	assert.Equal(t, []byte("%PDF-1.4 body"), svc.got.Data)
}

func TestExtractHandler_EmptyDocument(t *testing.T) {
	svc := &fakeService{resp: &pdf.ExtractionResponse{Pages: []string{}, Images: [][]pdf.ExtractedImage{}}}
	h := newRouter(svc, RouteOptions{}, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", []byte("%PDF")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pages":[],"images":[]}`, rec.Body.String())
}

func TestExtractHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		err    error
		status int
	}{
		{"missing file", "document", nil, http.StatusBadRequest},
		{"invalid pdf", "file", fmt.Errorf("%w (text view): bad header", pdf.ErrDocumentOpen), http.StatusUnprocessableEntity},
		{"internal", "file", pdf.ErrMisaligned, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			h := newRouter(svc, RouteOptions{}, 1<<20)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, uploadRequest(t, tt.field, []byte("junk")))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestExtractHandler_NotMultipart(t *testing.T) {
	h := newRouter(&fakeService{}, RouteOptions{}, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/extract-text", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractHandler_TooLarge(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc, RouteOptions{}, 64)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", bytes.Repeat([]byte("x"), 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, svc.got.Data)
}

func TestExtractHandler_LargeUploadStaysInMemory(t *testing.T) {
	// any spill to a temp file fails with TMPDIR pointing nowhere
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "absent"))

	svc := &fakeService{resp: &pdf.ExtractionResponse{Pages: []string{}, Images: [][]pdf.ExtractedImage{}}}
	h := newRouter(svc, RouteOptions{}, 40<<20)

	content := bytes.Repeat([]byte("x"), 33<<20)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", content))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, svc.got.Data, len(content))
}

func TestAuthMiddleware(t *testing.T) {
	svc := &fakeService{resp: &pdf.ExtractionResponse{Pages: []string{}, Images: [][]pdf.ExtractedImage{}}}
	h := newRouter(svc, RouteOptions{APIToken: "s3cret"}, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", []byte("%PDF")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := uploadRequest(t, "file", []byte("%PDF"))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = uploadRequest(t, "file", []byte("%PDF"))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	svc := &fakeService{resp: &pdf.ExtractionResponse{Pages: []string{}, Images: [][]pdf.ExtractedImage{}}}
	h := newRouter(svc, RouteOptions{RatePerMinute: 1}, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", []byte("%PDF")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "file", []byte("%PDF")))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPing(t *testing.T) {
	h := newRouter(&fakeService{}, RouteOptions{APIToken: "s3cret"}, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestExtractionsHandler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newRouter(&fakeService{listErr: ports.ErrAuditDisabled}, RouteOptions{}, 1<<20)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extractions", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("db error", func(t *testing.T) {
		h := newRouter(&fakeService{listErr: errors.New("conn refused")}, RouteOptions{}, 1<<20)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extractions", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		h := newRouter(&fakeService{}, RouteOptions{}, 1<<20)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extractions?limit=-3", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		svc := &fakeService{records: []ports.ExtractionRecord{{ID: "c1", FileName: "a.pdf", ImagesPerPage: []int64{0, 2}}}}
		h := newRouter(svc, RouteOptions{}, 1<<20)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extractions?limit=1000", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, maxListLimit, svc.limit)

		var got []ports.ExtractionRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0].ID)
		assert.Equal(t, []int64{0, 2}, got[0].ImagesPerPage)
	})
}
