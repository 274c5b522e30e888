package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
	ErrUnavailable  = errors.New("ai provider unavailable")
	ErrEmptyAnswer  = errors.New("empty ai response")
	ErrNoDocuments  = errors.New("no documents produced")
	ErrEmbedderInit = errors.New("embedder init failed")

	ErrIndexNotFound   = errors.New("index folder not found")
	ErrIndexIncomplete = errors.New("index files incomplete")
	ErrIndexCorrupt    = errors.New("index corrupt")
	ErrIndexEmpty      = errors.New("index empty")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsIndexFatal reports whether err means the index handle cannot be served.
func IsIndexFatal(err error) bool {
	return errors.Is(err, ErrIndexNotFound) ||
		errors.Is(err, ErrIndexIncomplete) ||
		errors.Is(err, ErrIndexCorrupt) ||
		errors.Is(err, ErrEmbedderInit)
}
