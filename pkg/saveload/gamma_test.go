package saveload

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func gammaSamples() []uint32 {
	vals := []uint32{0, 1, math.MaxUint32, math.MaxUint32 - 1}
	for _, bits := range []uint{7, 14, 21, 28} {
		edge := uint32(1) << bits
		vals = append(vals, edge-2, edge-1, edge, edge+1)
	}
	rng := rand.New(rand.NewPCG(1, 2))
	for range 2000 {
		vals = append(vals, rng.Uint32()>>rng.UintN(32))
	}
	return vals
}

func TestGammaRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range gammaSamples() {
		enc := AppendGamma(nil, v)
		if len(enc) > MaxGammaLen {
			t.Fatalf("encode(%d) is %d bytes, max %d", v, len(enc), MaxGammaLen)
		}
		if len(enc) != GammaLen(v) {
			t.Fatalf("GammaLen(%d)=%d, encoded %d bytes", v, GammaLen(v), len(enc))
		}
		got, n, err := DecodeGamma(enc)
		if err != nil {
			t.Fatalf("decode(%x): %v", enc, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("decode(encode(%d)) = %d (%d bytes)", v, got, n)
		}
	}
}

func TestGammaBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x80}},
		{0x3FFF, []byte{0xBF, 0xFF}},
		{0x4000, []byte{0xC0, 0x40, 0x00}},
		{0x1FFFFF, []byte{0xDF, 0xFF, 0xFF}},
		{0x200000, []byte{0xE0, 0x20, 0x00, 0x00}},
		{0x0FFFFFFF, []byte{0xEF, 0xFF, 0xFF, 0xFF}},
		{0x10000000, []byte{0xF0, 0x10, 0x00, 0x00, 0x00}},
		{math.MaxUint32, []byte{0xF0, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tc := range cases {
		if got := AppendGamma(nil, tc.v); !bytes.Equal(got, tc.want) {
			t.Fatalf("encode(%#x) = %x, want %x", tc.v, got, tc.want)
		}
	}
}

func TestGammaInvalidPrefix(t *testing.T) {
	t.Parallel()

	for _, b := range [][]byte{{0xF8, 0, 0, 0, 0}, {0xF1, 0, 0, 0, 0}, {0xFF}, {0xC0, 0x01}, {}} {
		if _, _, err := DecodeGamma(b); !errors.Is(err, ErrCorruptFormat) {
			t.Fatalf("decode(%x): expected corrupt format, got %v", b, err)
		}
	}
}

func TestReadGammaThroughBuffer(t *testing.T) {
	t.Parallel()

	vals := gammaSamples()
	var out bytes.Buffer
	d := NewMemoryDumper(&out, 32)
	for _, v := range vals {
		d.WriteGamma(v)
	}
	if err := d.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReadBuffer(bytes.NewReader(out.Bytes()), 7)
	for i, want := range vals {
		if got := r.ReadGamma(); got != want {
			t.Fatalf("value %d: got %d, want %d (err %v)", i, got, want, r.Err())
		}
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
}
