package request

import (
	"io"
)

// Wraps the request body counting how many bytes the handler read from it
// so the access log can report it.
type bodyWrapper struct {
	in   io.ReadCloser
	size int64
}

func (b *bodyWrapper) Read(data []byte) (n int, err error) {
	if b.in == nil {
		return 0, io.EOF
	}
	n, err = b.in.Read(data)
	b.size += int64(n)
	return
}

func (b *bodyWrapper) Close() error {
	if b.in == nil {
		return nil
	}
	return b.in.Close()
}
