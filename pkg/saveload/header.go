package saveload

import (
	"encoding/binary"
	"errors"
	"io"
)

// HeaderSize is the size of the uncompressed stream header.
const HeaderSize = 8

// headerFeatureBlock is set when a feature flag block follows the header.
const headerFeatureBlock uint16 = 1 << 0

const headerFlagMask = headerFeatureBlock

// Header is the fixed prefix of every stream.
type Header struct {
	Compression Compression
	Version     Version
	Flags       uint16
}

func (h Header) hasFeatureBlock() bool { return h.Flags&headerFeatureBlock != 0 }

func writeHeader(w io.Writer, h Header) error {
	var b [HeaderSize]byte
	copy(b[:4], h.Compression.Marker[:])
	binary.BigEndian.PutUint16(b[4:6], uint16(h.Version))
	binary.BigEndian.PutUint16(b[6:8], h.Flags)
	if _, err := w.Write(b[:]); err != nil {
		return &ioError{op: "write header", err: err}
	}
	return nil
}

// ReadHeader reads and validates the stream header against f.
func ReadHeader(r io.Reader, f Format) (Header, error) {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, corruptf("truncated stream header")
		}
		return Header{}, &ioError{op: "read header", err: err}
	}
	var marker Tag
	copy(marker[:], b[:4])
	comp, ok := compressionByMarker(marker)
	if !ok {
		return Header{}, unsupportedf("unknown format marker %s", marker)
	}
	h := Header{
		Compression: comp,
		Version:     Version(binary.BigEndian.Uint16(b[4:6])),
		Flags:       binary.BigEndian.Uint16(b[6:8]),
	}
	if err := f.checkVersion(h.Version); err != nil {
		return h, err
	}
	if h.Flags&^headerFlagMask != 0 {
		return h, corruptf("unknown header flags 0x%04x", h.Flags)
	}
	if want := h.Version >= f.FeatureBlockSince; want != h.hasFeatureBlock() {
		return h, corruptf("feature block flag %t inconsistent with version %d", h.hasFeatureBlock(), h.Version)
	}
	return h, nil
}
