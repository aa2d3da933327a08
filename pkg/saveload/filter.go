package saveload

import (
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// Compression is a stream filter applied to everything after the header.
type Compression struct {
	Name   string
	Marker Tag

	NewWriter func(w io.Writer, level int) (io.WriteCloser, error)
	NewReader func(r io.Reader) (io.ReadCloser, error)
}

var compressions = []Compression{
	{
		Name:   "none",
		Marker: MustTag("TSVN"),
		NewWriter: func(w io.Writer, _ int) (io.WriteCloser, error) {
			return nopWriteCloser{w}, nil
		},
		NewReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	},
	{
		Name:   "zlib",
		Marker: MustTag("TSVZ"),
		NewWriter: func(w io.Writer, level int) (io.WriteCloser, error) {
			if level < 0 {
				level = zlib.DefaultCompression
			}
			return zlib.NewWriterLevel(w, level)
		},
		NewReader: func(r io.Reader) (io.ReadCloser, error) {
			zr, err := zlib.NewReader(r)
			if err != nil {
				return nil, sourceError(err)
			}
			return zr, nil
		},
	},
}

// Compressions lists the built-in filters.
func Compressions() []Compression {
	out := make([]Compression, len(compressions))
	copy(out, compressions)
	return out
}

// CompressionByName returns the filter called name. The empty name is "none".
func CompressionByName(name string) (Compression, error) {
	if name == "" {
		name = "none"
	}
	for _, c := range compressions {
		if c.Name == name {
			return c, nil
		}
	}
	return Compression{}, fmt.Errorf("saveload: unknown compression %q", name)
}

func compressionByMarker(m Tag) (Compression, bool) {
	for _, c := range compressions {
		if c.Marker == m {
			return c, true
		}
	}
	return Compression{}, false
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// sourceError classifies a read failure. Damaged compressed data is corruption;
// anything else is an i/o failure.
func sourceError(err error) error {
	var flateErr flate.CorruptInputError
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, zlib.ErrChecksum),
		errors.Is(err, zlib.ErrHeader),
		errors.Is(err, zlib.ErrDictionary),
		errors.As(err, &flateErr):
		return corruptf("compressed stream: %v", err)
	}
	return &ioError{op: "read", err: err}
}
