package saveload

// MaxGammaLen is the longest encoding AppendGamma produces.
const MaxGammaLen = 5

// Gamma integers carry their length in the leading bits of the first byte:
//
//	0xxxxxxx                     7 bits
//	10xxxxxx +1 byte            14 bits
//	110xxxxx +2 bytes           21 bits
//	1110xxxx +3 bytes           28 bits
//	11110000 +4 bytes           32 bits

// GammaLen returns the encoded size of v.
func GammaLen(v uint32) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	default:
		return 5
	}
}

// AppendGamma appends the gamma encoding of v to dst.
func AppendGamma(dst []byte, v uint32) []byte {
	switch GammaLen(v) {
	case 1:
		return append(dst, byte(v))
	case 2:
		return append(dst, 0x80|byte(v>>8), byte(v))
	case 3:
		return append(dst, 0xC0|byte(v>>16), byte(v>>8), byte(v))
	case 4:
		return append(dst, 0xE0|byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	default:
		return append(dst, 0xF0, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

// gammaTail returns the number of continuation bytes announced by the first byte,
// or -1 when the prefix is invalid.
func gammaTail(b byte) int {
	switch {
	case b&0x80 == 0:
		return 0
	case b&0xC0 == 0x80:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b == 0xF0:
		return 4
	default:
		return -1
	}
}

// DecodeGamma decodes one gamma integer from the start of b.
func DecodeGamma(b []byte) (uint32, int, error) {
	if len(b) == 0 {
		return 0, 0, corruptf("empty gamma")
	}
	tail := gammaTail(b[0])
	if tail < 0 {
		return 0, 0, corruptf("invalid gamma prefix 0x%02x", b[0])
	}
	if len(b) < 1+tail {
		return 0, 0, corruptf("truncated gamma")
	}
	return gammaValue(b[:1+tail]), 1 + tail, nil
}

func gammaValue(b []byte) uint32 {
	var v uint32
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		v = uint32(b[0] & 0x3F)
	case 3:
		v = uint32(b[0] & 0x1F)
	case 4:
		v = uint32(b[0] & 0x0F)
	}
	for _, c := range b[1:] {
		v = v<<8 | uint32(c)
	}
	return v
}
