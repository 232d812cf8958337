package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// userAgent matches the innertube client the stream URLs are issued to.
const userAgent = "com.google.ios.youtube/19.45.4 (iPhone16,2; U; CPU iOS 18_1_0 like Mac OS X;)"

var errReaderClosed = errors.New("stream closed")

// rangeReader reads a stream URL as consecutive `range=` requests. The next
// request is issued only once the previous response has been read to the end,
// so at most one response body is open and nothing is fetched ahead of the
// reader. A stream of unknown size is read with a single plain request.
type rangeReader struct {
	ctx       context.Context
	client    *http.Client
	url       string
	size      int64
	chunkSize int64

	offset   int64
	chunkEnd int64 // inclusive end of the open range
	body     io.ReadCloser
	closed   bool
}

func newRangeReader(ctx context.Context, client *http.Client, streamURL string, size, chunkSize int64) *rangeReader {
	if chunkSize <= 0 {
		chunkSize = 10 << 20
	}
	return &rangeReader{ctx: ctx, client: client, url: streamURL, size: size, chunkSize: chunkSize}
}

// Size returns the total stream length, or 0 when unknown.
func (r *rangeReader) Size() int64 {
	if r.size < 0 {
		return 0
	}
	return r.size
}

// open issues the request for the range at the current offset.
func (r *rangeReader) open() error {
	if r.size <= 0 {
		resp, err := r.get(r.url)
		if err != nil {
			return err
		}
		r.body = resp.Body
		r.size = resp.ContentLength
		r.chunkEnd = -1
		return nil
	}

	end := min(r.offset+r.chunkSize, r.size) - 1
	u, err := url.Parse(r.url)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("range", fmt.Sprintf("%d-%d", r.offset, end))
	u.RawQuery = q.Encode()

	resp, err := r.get(u.String())
	if err != nil {
		return err
	}
	r.body = resp.Body
	r.chunkEnd = end
	return nil
}

func (r *rangeReader) get(target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", "https://youtube.com")
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (r *rangeReader) Read(p []byte) (int, error) {
	for {
		if r.closed {
			return 0, errReaderClosed
		}
		if r.body == nil {
			if r.size <= 0 || r.offset >= r.size {
				return 0, io.EOF
			}
			if err := r.open(); err != nil {
				return 0, err
			}
		}

		n, err := r.body.Read(p)
		r.offset += int64(n)

		if err == io.EOF {
			r.body.Close()
			r.body = nil
			if r.chunkEnd < 0 {
				r.size = r.offset
			} else if r.offset != r.chunkEnd+1 {
				return n, fmt.Errorf("range ending at %d: %w after %d bytes", r.chunkEnd, io.ErrUnexpectedEOF, r.offset)
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			return n, err
		}
		if r.chunkEnd >= 0 && r.offset > r.chunkEnd+1 {
			return n, fmt.Errorf("range ending at %d overran to %d", r.chunkEnd, r.offset)
		}
		if n > 0 {
			return n, nil
		}
	}
}

// Close releases the open response, if any. Reads after Close fail.
func (r *rangeReader) Close() error {
	r.closed = true
	if r.body == nil {
		return nil
	}
	err := r.body.Close()
	r.body = nil
	return err
}
