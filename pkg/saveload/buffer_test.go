package saveload

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func TestReadBufferRefillAcrossWindow(t *testing.T) {
	t.Parallel()

	data := seq(1000)
	r := NewReadBuffer(iotest.OneByteReader(bytes.NewReader(data)), 16)

	got := make([]byte, 0, len(data))
	got = append(got, r.ReadU8(), r.PeekU8())
	if got[1] != data[1] {
		t.Fatalf("peek = %d, want %d", got[1], data[1])
	}
	got = got[:1]
	got = append(got, r.ReadRaw(40)...)
	rest := make([]byte, 500)
	r.CopyInto(rest)
	got = append(got, rest...)
	r.Skip(100)
	r.ForEachU8(len(data)-len(got)-100, func(b uint8) { got = append(got, b) })
	if err := r.Err(); err != nil {
		t.Fatalf("read: %v", err)
	}

	want := append(append([]byte{}, data[:541]...), data[641:]...)
	if !bytes.Equal(got, want) {
		t.Fatalf("content mismatch")
	}
	if r.Offset() != int64(len(data)) {
		t.Fatalf("offset = %d, want %d", r.Offset(), len(data))
	}
	if !r.atEnd() {
		t.Fatalf("expected end of stream")
	}
}

func TestReadBufferForEachU16StraddlesWindow(t *testing.T) {
	t.Parallel()

	var src bytes.Buffer
	d := NewMemoryDumper(&src, 0)
	want := make([]uint16, 301)
	for i := range want {
		want[i] = uint16(i*131 + 7)
		d.WriteU16(want[i])
	}
	_ = d.Flush()

	// An odd window forces values to straddle refills.
	r := NewReadBuffer(bytes.NewReader(src.Bytes()), 9)
	got := make([]uint16, 0, len(want))
	r.ForEachU16(len(want), func(v uint16) { got = append(got, v) })
	if err := r.Err(); err != nil {
		t.Fatalf("read: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReadBufferFixedWidthBigEndian(t *testing.T) {
	t.Parallel()

	src := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E}
	r := NewReadBuffer(bytes.NewReader(src), 3)
	if v := r.ReadU16(); v != 0x0102 {
		t.Fatalf("u16 = %#x", v)
	}
	if v := r.ReadU32(); v != 0x03040506 {
		t.Fatalf("u32 = %#x", v)
	}
	if v := r.ReadU64(); v != 0x0708090A0B0C0D0E {
		t.Fatalf("u64 = %#x", v)
	}
}

func TestReadBufferUnexpectedEOFIsCorrupt(t *testing.T) {
	t.Parallel()

	r := NewReadBuffer(bytes.NewReader([]byte{1, 2, 3}), 0)
	r.ReadU32()
	if !errors.Is(r.Err(), ErrCorruptFormat) {
		t.Fatalf("expected corrupt format, got %v", r.Err())
	}
	// Errors are sticky.
	if v := r.ReadU8(); v != 0 {
		t.Fatalf("read after failure returned %d", v)
	}
}

func TestReadBufferSourceErrorIsIO(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	r := NewReadBuffer(iotest.ErrReader(boom), 0)
	r.ReadU8()
	if !errors.Is(r.Err(), ErrIO) || !errors.Is(r.Err(), boom) {
		t.Fatalf("expected ErrIO wrapping the cause, got %v", r.Err())
	}
}

func TestReadBufferLimits(t *testing.T) {
	t.Parallel()

	t.Run("exact", func(t *testing.T) {
		r := NewReadBuffer(bytes.NewReader(seq(20)), 4)
		prev := r.PushLimit(10)
		r.Skip(3)
		r.ReadRaw(7)
		if r.Remaining() != 0 {
			t.Fatalf("remaining = %d", r.Remaining())
		}
		r.PopLimit(prev)
		if r.Err() != nil {
			t.Fatalf("unexpected error: %v", r.Err())
		}
		if r.Remaining() != -1 {
			t.Fatalf("limit not restored")
		}
	})

	t.Run("over-read", func(t *testing.T) {
		r := NewReadBuffer(bytes.NewReader(seq(20)), 4)
		prev := r.PushLimit(3)
		r.ReadU32()
		r.PopLimit(prev)
		if !errors.Is(r.Err(), ErrCorruptFormat) {
			t.Fatalf("expected corrupt format, got %v", r.Err())
		}
	})

	t.Run("under-read", func(t *testing.T) {
		r := NewReadBuffer(bytes.NewReader(seq(20)), 4)
		prev := r.PushLimit(8)
		r.ReadU32()
		r.PopLimit(prev)
		if !errors.Is(r.Err(), ErrCorruptFormat) {
			t.Fatalf("expected corrupt format, got %v", r.Err())
		}
	})

	t.Run("nested exceeds parent", func(t *testing.T) {
		r := NewReadBuffer(bytes.NewReader(seq(20)), 4)
		r.PushLimit(8)
		r.PushLimit(9)
		if !errors.Is(r.Err(), ErrCorruptFormat) {
			t.Fatalf("expected corrupt format, got %v", r.Err())
		}
	})

	t.Run("skip past limit", func(t *testing.T) {
		r := NewReadBuffer(bytes.NewReader(seq(20)), 4)
		r.PushLimit(5)
		r.Skip(6)
		if !errors.Is(r.Err(), ErrCorruptFormat) {
			t.Fatalf("expected corrupt format, got %v", r.Err())
		}
	})
}

func TestMemoryDumperFlushesBlocks(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := NewMemoryDumper(&out, 16)
	d.WriteU8(0xAB)
	d.WriteU16(0x0102)
	d.WriteU32(0x03040506)
	d.WriteU64(0x0708090A0B0C0D0E)
	payload := seq(100)
	d.WriteRaw(payload)
	d.WriteString("hello")
	if d.Written() != 1+2+4+8+100+1+5 {
		t.Fatalf("written = %d", d.Written())
	}
	if err := d.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	want := []byte{0xAB, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E}
	want = append(want, payload...)
	want = append(want, 5, 'h', 'e', 'l', 'l', 'o')
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("output mismatch:\n got %x\nwant %x", out.Bytes(), want)
	}
}

func TestMemoryDumperAutoLength(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := NewMemoryDumper(&out, 16)
	d.WriteU8(1)
	d.BeginAutoLength()
	body := seq(300)
	d.WriteRaw(body)
	if n := d.EndAutoLength(PrefixGamma); n != len(body) {
		t.Fatalf("auto length = %d", n)
	}
	d.BeginAutoLength()
	d.WriteU16(7)
	d.EndAutoLength(PrefixU32)
	if err := d.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReadBuffer(bytes.NewReader(out.Bytes()), 8)
	if r.ReadU8() != 1 {
		t.Fatalf("prefix byte mismatch")
	}
	if n := r.ReadGamma(); n != uint32(len(body)) {
		t.Fatalf("gamma length = %d", n)
	}
	got := make([]byte, len(body))
	r.CopyInto(got)
	if !bytes.Equal(got, body) {
		t.Fatalf("body mismatch")
	}
	if r.ReadU32() != 2 || r.ReadU16() != 7 {
		t.Fatalf("u32 framed body mismatch")
	}
	if r.Err() != nil {
		t.Fatalf("read: %v", r.Err())
	}
}

func TestMemoryDumperNestedAutoLengthFails(t *testing.T) {
	t.Parallel()

	d := NewMemoryDumper(io.Discard, 0)
	d.BeginAutoLength()
	d.BeginAutoLength()
	if d.Err() == nil {
		t.Fatalf("expected nested auto-length to fail")
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestMemoryDumperSinkErrorIsIO(t *testing.T) {
	t.Parallel()

	boom := errors.New("pipe closed")
	d := NewMemoryDumper(failingWriter{boom}, 16)
	d.WriteRaw(seq(64))
	if err := d.Flush(); !errors.Is(err, ErrIO) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrIO wrapping the cause, got %v", err)
	}
}
