package saveload

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// DefaultBufferSize is the working window used by readers and dumpers.
const DefaultBufferSize = 64 << 10

const noLimit = math.MaxInt64

// ReadBuffer is a bounded window over a byte source.
//
// All reads go through the window; the source is only touched when a request
// crosses the window's end. A declared-length limit can be pushed so that any read
// running past the end of a chunk or row fails as corruption. Errors are sticky:
// after the first failure every read returns zero values and Err reports the cause.
type ReadBuffer struct {
	src io.Reader
	buf []byte

	pos int // next unread byte
	end int // valid bytes in buf
	lim int // min(end, limit-base), the fast path bound

	base  int64 // stream offset of buf[0]
	limit int64 // absolute offset reads must not cross

	eof bool
	err error
}

// NewReadBuffer returns a reader over src with a window of size bytes.
func NewReadBuffer(src io.Reader, size int) *ReadBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &ReadBuffer{
		src:   src,
		buf:   make([]byte, size),
		limit: noLimit,
	}
}

// Err returns the first error the reader encountered.
func (r *ReadBuffer) Err() error { return r.err }

// Fail records err unless an earlier error is already recorded.
func (r *ReadBuffer) Fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Offset is the stream position of the next unread byte.
func (r *ReadBuffer) Offset() int64 { return r.base + int64(r.pos) }

// Remaining returns the bytes left before the active limit, or -1 when unbounded.
func (r *ReadBuffer) Remaining() int64 {
	if r.limit == noLimit {
		return -1
	}
	return r.limit - r.Offset()
}

func (r *ReadBuffer) clip() {
	r.lim = r.end
	if d := r.limit - r.base; d < int64(r.lim) {
		r.lim = int(d)
	}
}

// need makes n bytes available at pos, refilling if the window is short.
func (r *ReadBuffer) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n <= r.lim {
		return true
	}
	if r.Offset()+int64(n) > r.limit {
		r.Fail(corruptf("read of %d bytes at offset %d crosses declared end %d", n, r.Offset(), r.limit))
		return false
	}
	if r.end-r.pos < n && !r.refill(n) {
		return false
	}
	return true
}

// refill compacts the window and reads until at least n bytes are buffered.
func (r *ReadBuffer) refill(n int) bool {
	if n > len(r.buf) {
		grown := make([]byte, n)
		copy(grown, r.buf[r.pos:r.end])
		r.buf = grown
	} else {
		copy(r.buf, r.buf[r.pos:r.end])
	}
	r.base += int64(r.pos)
	r.end -= r.pos
	r.pos = 0

	for stalls := 0; r.end < n; {
		if r.eof {
			r.Fail(corruptf("unexpected end of stream at offset %d", r.base+int64(r.end)))
			return false
		}
		m, err := r.src.Read(r.buf[r.end:])
		r.end += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.eof = true
				continue
			}
			r.Fail(sourceError(err))
			return false
		}
		if m == 0 {
			if stalls++; stalls > 100 {
				r.Fail(&ioError{op: "read", err: io.ErrNoProgress})
				return false
			}
		}
	}
	r.clip()
	return true
}

// atEnd reports whether the source is exhausted at the current position.
func (r *ReadBuffer) atEnd() bool {
	if r.err != nil || r.pos < r.end {
		return false
	}
	r.base += int64(r.pos)
	r.pos, r.end, r.lim = 0, 0, 0
	for stalls := 0; !r.eof; {
		m, err := r.src.Read(r.buf[r.end:])
		r.end += m
		if m > 0 {
			r.clip()
			return false
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.eof = true
				break
			}
			r.Fail(sourceError(err))
			return false
		}
		if stalls++; stalls > 100 {
			r.Fail(&ioError{op: "read", err: io.ErrNoProgress})
			return false
		}
	}
	return true
}

// PushLimit bounds subsequent reads to the next n bytes and returns the previous
// limit for PopLimit.
func (r *ReadBuffer) PushLimit(n int64) int64 {
	prev := r.limit
	if n < 0 {
		r.Fail(corruptf("negative declared length %d", n))
		return prev
	}
	end := r.Offset() + n
	if end > r.limit || end < 0 {
		r.Fail(corruptf("declared length %d exceeds enclosing length %d", n, r.limit-r.Offset()))
		return prev
	}
	r.limit = end
	r.clip()
	return prev
}

// PopLimit restores the previous limit. The limited span must have been consumed
// exactly.
func (r *ReadBuffer) PopLimit(prev int64) {
	if r.err == nil && r.Offset() != r.limit {
		r.Fail(corruptf("%d bytes left unread before declared end", r.limit-r.Offset()))
	}
	r.limit = prev
	r.clip()
}

// ReadU8 reads one byte.
func (r *ReadBuffer) ReadU8() uint8 {
	if r.pos < r.lim || r.need(1) {
		b := r.buf[r.pos]
		r.pos++
		return b
	}
	return 0
}

// PeekU8 returns the next byte without consuming it.
func (r *ReadBuffer) PeekU8() uint8 {
	if r.pos < r.lim || r.need(1) {
		return r.buf[r.pos]
	}
	return 0
}

func (r *ReadBuffer) ReadU16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *ReadBuffer) ReadU32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *ReadBuffer) ReadU64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// ReadGamma reads a gamma encoded integer.
func (r *ReadBuffer) ReadGamma() uint32 {
	first := r.PeekU8()
	if r.err != nil {
		return 0
	}
	tail := gammaTail(first)
	if tail < 0 {
		r.Fail(corruptf("invalid gamma prefix 0x%02x at offset %d", first, r.Offset()))
		return 0
	}
	if !r.need(1 + tail) {
		return 0
	}
	v := gammaValue(r.buf[r.pos : r.pos+1+tail])
	r.pos += 1 + tail
	return v
}

// Skip advances past n bytes.
func (r *ReadBuffer) Skip(n int64) {
	if r.err != nil {
		return
	}
	if n < 0 || r.Offset()+n > r.limit {
		r.Fail(corruptf("skip of %d bytes at offset %d crosses declared end", n, r.Offset()))
		return
	}
	for n > 0 {
		if r.pos == r.end && !r.refill(1) {
			return
		}
		k := min(int64(r.end-r.pos), n)
		r.pos += int(k)
		n -= k
	}
}

// ReadRaw returns a view of the next n bytes. The view is only valid until the
// next call on r.
func (r *ReadBuffer) ReadRaw(n int) []byte {
	if n == 0 || !r.need(n) {
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// CopyInto fills dst from the stream without growing the window.
func (r *ReadBuffer) CopyInto(dst []byte) {
	if r.err != nil {
		return
	}
	if r.Offset()+int64(len(dst)) > r.limit {
		r.Fail(corruptf("copy of %d bytes at offset %d crosses declared end", len(dst), r.Offset()))
		return
	}
	for len(dst) > 0 {
		if r.pos == r.end && !r.refill(1) {
			return
		}
		c := copy(dst, r.buf[r.pos:r.end])
		r.pos += c
		dst = dst[c:]
	}
}

// ForEachU8 calls fn for the next n bytes.
func (r *ReadBuffer) ForEachU8(n int, fn func(uint8)) {
	for n > 0 {
		if !r.need(1) {
			return
		}
		k := min(n, r.lim-r.pos)
		for _, b := range r.buf[r.pos : r.pos+k] {
			fn(b)
		}
		r.pos += k
		n -= k
	}
}

// ForEachU16 calls fn for the next n big-endian uint16 values.
func (r *ReadBuffer) ForEachU16(n int, fn func(uint16)) {
	for n > 0 {
		if !r.need(2) {
			return
		}
		k := min(n, (r.lim-r.pos)/2)
		b := r.buf[r.pos : r.pos+2*k]
		for i := 0; i < len(b); i += 2 {
			fn(binary.BigEndian.Uint16(b[i:]))
		}
		r.pos += 2 * k
		n -= k
	}
}
