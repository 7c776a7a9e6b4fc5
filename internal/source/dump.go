package source

import (
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrUnsupportedEncoding is returned for dumps that are neither text nor a
// supported compression format.
var ErrUnsupportedEncoding = errors.New("unsupported dump encoding")

const (
	sniffLen   = 3072
	bufferSize = 1 << 20
)

// Dump is an opened, decompressed XML dump.
type Dump struct {
	io.Reader
	// MIME is the detected type of the underlying bytes.
	MIME string
	// Path is the dump path, or "" when the dump came from a reader. The XML
	// extractor resolves the DTD relative to it.
	Path string

	closers []io.Closer
}

// Close releases the decompressor and the file, in that order.
func (d *Dump) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenDump opens path and transparently decompresses gzip, zstd or bzip2
// content, sniffed from the leading bytes rather than the file name.
func OpenDump(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump: %w", err)
	}

	d, err := NewDump(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Path = path
	d.closers = append([]io.Closer{f}, d.closers...)
	return d, nil
}

// NewDump wraps r with the decompressor matching its content. Closing the
// Dump does not close r.
func NewDump(r io.Reader) (*Dump, error) {
	br := bufio.NewReaderSize(r, bufferSize)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read dump header: %w", err)
	}

	if len(head) == 0 {
		return &Dump{Reader: br, MIME: "text/plain"}, nil
	}

	mt := mimetype.Detect(head)
	switch {
	case mt.Is("application/gzip"):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &Dump{Reader: zr, MIME: mt.String(), closers: []io.Closer{zr}}, nil

	case mt.Is("application/zstd"):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc := zr.IOReadCloser()
		return &Dump{Reader: rc, MIME: mt.String(), closers: []io.Closer{rc}}, nil

	case mt.Is("application/x-bzip2"):
		return &Dump{Reader: bzip2.NewReader(br), MIME: mt.String()}, nil

	case isText(mt):
		return &Dump{Reader: br, MIME: mt.String()}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, mt.String())
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
