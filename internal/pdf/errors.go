package pdf

import "errors"

var (
	// ErrDocumentOpen is the only failure that aborts a request.
	ErrDocumentOpen = errors.New("cannot open document")

	ErrPageAccess   = errors.New("cannot access page")
	ErrImageResolve = errors.New("cannot resolve image")
	ErrImageEncode  = errors.New("cannot encode image")

	// ErrMisaligned means the text and image passes disagree on length.
	ErrMisaligned = errors.New("page results misaligned")
)
