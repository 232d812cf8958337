package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// StaticExtractor is an in-memory Extractor serving canned metadata and
// payloads. It is a test double; the server always runs on the real adapter.
type StaticExtractor struct {
	mu       sync.RWMutex
	videos   map[string]*RawVideoInfo
	payloads map[string][]byte
	failures map[string]error

	// StreamErr, when set, is returned by the opened stream after its payload
	// has been read, simulating a mid-transfer failure.
	StreamErr error
}

// NewStaticExtractor returns an empty StaticExtractor.
func NewStaticExtractor() *StaticExtractor {
	return &StaticExtractor{
		videos:   make(map[string]*RawVideoInfo),
		payloads: make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// SetVideo registers metadata for url, replacing any previous entry.
func (s *StaticExtractor) SetVideo(url string, info *RawVideoInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[url] = info
}

// SetPayload registers the bytes served for identifier.
func (s *StaticExtractor) SetPayload(identifier string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[identifier] = data
}

// SetFailure makes every call for url fail with err.
func (s *StaticExtractor) SetFailure(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[url] = err
}

// GetInfo implements Extractor.GetInfo.
func (s *StaticExtractor) GetInfo(ctx context.Context, url string) (*RawVideoInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.failures[url]; err != nil {
		return nil, err
	}
	info, ok := s.videos[url]
	if !ok {
		return nil, fmt.Errorf("video not found: %s", url)
	}
	cp := *info
	cp.Formats = append([]RawStreamDescriptor(nil), info.Formats...)
	return &cp, nil
}

// OpenStream implements Extractor.OpenStream.
func (s *StaticExtractor) OpenStream(ctx context.Context, url string, opts StreamOptions) (*Stream, error) {
	info, err := s.GetInfo(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	d, err := ResolveStream(info.Formats, opts)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.payloads[d.Identifier]
	streamErr := s.StreamErr
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no payload for itag %s", ErrFormatUnavailable, d.Identifier)
	}

	var body io.Reader = bytes.NewReader(data)
	if streamErr != nil {
		body = io.MultiReader(body, errReader{streamErr})
	}
	return &Stream{Body: io.NopCloser(body), Size: int64(len(data)), Format: d}, nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
