package saveload

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"slices"
)

// LengthPrefix selects how EndAutoLength records a sub-block size.
type LengthPrefix uint8

const (
	PrefixGamma LengthPrefix = iota
	PrefixU32
)

// minDumperBlock keeps every fixed-width write inside one block.
const minDumperBlock = 16

// MemoryDumper buffers encoded bytes in fixed blocks and flushes them to a sink.
//
// BeginAutoLength/EndAutoLength bracket a sub-block whose size is not known in
// advance: writes inside the bracket land in a scratch region which is emitted,
// behind its length, when the bracket closes. Brackets do not nest. Errors are
// sticky and reported by Err.
type MemoryDumper struct {
	sink    io.Writer
	blk     []byte
	n       int
	written int64

	auto    bool
	scratch []byte

	spare [16]byte
	err   error
}

// NewMemoryDumper returns a dumper flushing blocks of size bytes to sink.
func NewMemoryDumper(sink io.Writer, size int) *MemoryDumper {
	if size <= 0 {
		size = DefaultBufferSize
	}
	size = max(size, minDumperBlock)
	return &MemoryDumper{
		sink: sink,
		blk:  make([]byte, size),
	}
}

// Err returns the first error recorded by the dumper.
func (d *MemoryDumper) Err() error { return d.err }

// Fail records err unless an earlier error is already recorded.
func (d *MemoryDumper) Fail(err error) {
	if d.err == nil && err != nil {
		d.err = err
	}
}

// Written is the number of bytes accepted outside any open auto-length bracket.
func (d *MemoryDumper) Written() int64 { return d.written + int64(d.n) }

// Flush hands buffered bytes to the sink.
func (d *MemoryDumper) Flush() error {
	if d.err != nil {
		return d.err
	}
	if d.n > 0 {
		if _, err := d.sink.Write(d.blk[:d.n]); err != nil {
			d.Fail(&ioError{op: "write", err: err})
			return d.err
		}
		d.written += int64(d.n)
		d.n = 0
	}
	return nil
}

// reserve returns k writable bytes at the current position.
func (d *MemoryDumper) reserve(k int) []byte {
	if d.err != nil {
		return d.spare[:k]
	}
	if d.auto {
		s := len(d.scratch)
		d.scratch = slices.Grow(d.scratch, k)[:s+k]
		return d.scratch[s:]
	}
	if len(d.blk)-d.n < k {
		if d.Flush() != nil {
			return d.spare[:k]
		}
	}
	p := d.blk[d.n : d.n+k]
	d.n += k
	return p
}

func (d *MemoryDumper) WriteU8(v uint8) { d.reserve(1)[0] = v }

func (d *MemoryDumper) WriteU16(v uint16) { binary.BigEndian.PutUint16(d.reserve(2), v) }

func (d *MemoryDumper) WriteU32(v uint32) { binary.BigEndian.PutUint32(d.reserve(4), v) }

func (d *MemoryDumper) WriteU64(v uint64) { binary.BigEndian.PutUint64(d.reserve(8), v) }

// WriteGamma writes v as a gamma integer.
func (d *MemoryDumper) WriteGamma(v uint32) {
	AppendGamma(d.reserve(GammaLen(v))[:0], v)
}

// WriteRaw copies p into the stream.
func (d *MemoryDumper) WriteRaw(p []byte) {
	if d.err != nil {
		return
	}
	if d.auto {
		d.scratch = append(d.scratch, p...)
		return
	}
	for len(p) > 0 {
		if d.n == len(d.blk) && d.Flush() != nil {
			return
		}
		c := copy(d.blk[d.n:], p)
		d.n += c
		p = p[c:]
	}
}

// WriteLength writes a count or length as a gamma integer.
func (d *MemoryDumper) WriteLength(n int) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		d.Fail(limitf("length %d does not fit the stream", n))
		return
	}
	d.WriteGamma(uint32(n))
}

// WriteString writes a gamma length followed by the bytes of s.
func (d *MemoryDumper) WriteString(s string) {
	d.WriteLength(len(s))
	if d.err != nil {
		return
	}
	if d.auto {
		d.scratch = append(d.scratch, s...)
		return
	}
	d.WriteRaw([]byte(s))
}

// BeginAutoLength opens a sub-block whose length is written when it ends.
func (d *MemoryDumper) BeginAutoLength() {
	if d.auto {
		d.Fail(errors.New("saveload: nested auto-length block"))
		return
	}
	d.auto = true
	d.scratch = d.scratch[:0]
}

// EndAutoLength closes the open sub-block, writing its length with the given
// prefix followed by the buffered bytes. It returns the body length.
func (d *MemoryDumper) EndAutoLength(prefix LengthPrefix) int {
	if !d.auto {
		d.Fail(errors.New("saveload: auto-length block not open"))
		return 0
	}
	body := d.scratch
	d.auto = false
	switch prefix {
	case PrefixU32:
		if uint64(len(body)) > math.MaxUint32 {
			d.Fail(limitf("block of %d bytes does not fit a 32-bit length", len(body)))
			return 0
		}
		d.WriteU32(uint32(len(body)))
	default:
		d.WriteLength(len(body))
	}
	d.WriteRaw(body)
	d.scratch = body[:0]
	return len(body)
}
