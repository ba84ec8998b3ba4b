package service

import "io"

// sizeLimitReader fails with ErrSizeExceeded as soon as more than limit bytes
// have been read from the underlying stream.
type sizeLimitReader struct {
	r         io.Reader
	remaining int64
}

func newSizeLimitReader(r io.Reader, limit int64) *sizeLimitReader {
	return &sizeLimitReader{r: r, remaining: limit}
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrSizeExceeded
	}
	// read at most one byte past the limit so an overrun is detected
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrSizeExceeded
	}
	return n, err
}

// exceeded reports whether the stream ran past the limit; some backends do
// not wrap reader errors, so callers check this as well as the error chain.
func (l *sizeLimitReader) exceeded() bool {
	return l.remaining < 0
}
