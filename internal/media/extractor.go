package media

import (
	"context"
	"errors"
	"io"
)

// Extractor is the contract of the external extraction library. All
// protocol-level interaction with the video host happens behind it.
type Extractor interface {
	// GetInfo fetches metadata and the list of stream variants for url.
	// Failures are returned as-is; the Service wraps them as ErrExtraction.
	GetInfo(ctx context.Context, url string) (*RawVideoInfo, error)

	// OpenStream opens the byte stream selected by opts. An identifier that
	// can no longer be resolved must produce an error wrapping ErrFormatUnavailable.
	// Reads from the returned stream must be paced by the caller and must stop
	// once ctx is cancelled.
	OpenStream(ctx context.Context, url string, opts StreamOptions) (*Stream, error)
}

// Stream is an open upstream byte stream.
type Stream struct {
	Body io.ReadCloser
	// Size is the expected length in bytes, or 0 when unknown.
	Size int64
	// Format is the descriptor the stream was resolved to.
	Format RawStreamDescriptor
}

var (
	// ErrInvalidURL is returned when a URL is empty, malformed, or on a host
	// outside the allow-list.
	ErrInvalidURL = errors.New("invalid url")

	// ErrExtraction is returned when the extraction library failed to fetch
	// metadata (network failure, unavailable, private or restricted video).
	ErrExtraction = errors.New("extraction failed")

	// ErrFormatUnavailable is returned when the requested identifier no longer
	// resolves to a stream. Clients should fetch info again.
	ErrFormatUnavailable = errors.New("format unavailable")

	// ErrUpstreamStream is returned when the upstream byte stream fails to
	// open or fails mid-transfer.
	ErrUpstreamStream = errors.New("upstream stream failed")
)
