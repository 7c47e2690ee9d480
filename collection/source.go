package collection

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/tdewolff/opentype"
)

// Source opens the bytes of a font resource. Open may be called more than once, each returned reader is closed by the caller.
type Source interface {
	Open() (io.ReadCloser, error)
}

// FileSource is a font file on disk.
type FileSource string

func (s FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(s))
}

func (s FileSource) String() string {
	return string(s)
}

// StreamSource opens an arbitrary stream.
type StreamSource func() (io.ReadCloser, error)

func (s StreamSource) Open() (io.ReadCloser, error) {
	return s()
}

// BytesSource is a font held in memory.
type BytesSource []byte

func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s)), nil
}

// readSFNT reads the resource and converts WOFF, WOFF2 and EOT to sfnt.
func readSFNT(src Source) ([]byte, error) {
	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b, err := io.ReadAll(io.LimitReader(r, int64(opentype.MaxMemory)+1))
	if err != nil {
		return nil, err
	} else if int64(opentype.MaxMemory) < int64(len(b)) {
		return nil, opentype.ErrExceedsMemory
	}

	sfnt, err := opentype.ToSFNT(b)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	return sfnt, nil
}
