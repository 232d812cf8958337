package media

import (
	"context"
	"errors"
	"io"
)

const relayBufferSize = 32 * 1024

// errClientGone marks a relay stopped because the client went away.
var errClientGone = errors.New("client disconnected")

// relay copies src to dst one buffer at a time, so upstream reads are paced by
// downstream writes. start runs once, right before the first byte is written.
// Read failures wrap ErrUpstreamStream; write failures and ctx cancellation
// wrap errClientGone.
func relay(ctx context.Context, dst io.Writer, src io.Reader, start func()) (written int64, err error) {
	buf := make([]byte, relayBufferSize)
	started := false

	for {
		if ctx.Err() != nil {
			return written, errors.Join(errClientGone, ctx.Err())
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if !started {
				start()
				started = true
			}
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, errors.Join(errClientGone, werr)
			}
			if m != n {
				return written, errors.Join(errClientGone, io.ErrShortWrite)
			}
		}

		if rerr == io.EOF {
			if !started {
				start()
			}
			return written, nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return written, errors.Join(errClientGone, ctx.Err())
			}
			return written, errors.Join(ErrUpstreamStream, rerr)
		}
	}
}
