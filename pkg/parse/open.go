package parse

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte header of a gzip member.
var gzipMagic = [2]byte{0x1f, 0x8b}

// IsGzip reports whether the stream starts with the gzip magic number. The
// reader is not consumed.
func IsGzip(r *bufio.Reader) bool {
	head, err := r.Peek(2)
	if err != nil {
		return false
	}
	return head[0] == gzipMagic[0] && head[1] == gzipMagic[1]
}

// NewReader returns a reader that transparently decompresses r when it is a
// gzip stream. Detection is by magic number, never by file name.
func NewReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	if !IsGzip(br) {
		return br, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("parse: open gzip stream: %w", err)
	}
	return zr, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for i := len(rc.closers) - 1; i >= 0; i-- {
		if err := rc.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens a file for line reading, decompressing it when it is gzip.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	if !IsGzip(br) {
		return &readCloser{Reader: br, closers: []io.Closer{f}}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse: open gzip stream %s: %w", path, err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{f, zr}}, nil
}
