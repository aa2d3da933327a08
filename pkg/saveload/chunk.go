package saveload

import (
	"fmt"
	"strings"
)

// Tag identifies a chunk in the stream.
type Tag [4]byte

// ParseTag converts a four character string to a Tag.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != len(t) {
		return t, fmt.Errorf("saveload: chunk tag %q must be %d bytes", s, len(t))
	}
	copy(t[:], s)
	return t, nil
}

// MustTag is ParseTag for package-level tag constants.
func MustTag(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Tag) IsZero() bool { return t == Tag{} }

func (t Tag) String() string {
	for _, c := range t {
		if c < 0x20 || c > 0x7E {
			return fmt.Sprintf("%08x", t[:])
		}
	}
	return string(t[:])
}

// MarshalText renders the tag for JSON and YAML output.
func (t Tag) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ChunkType is the framing of one chunk body.
type ChunkType uint8

const (
	TypeRIFF  ChunkType = 0
	TypeArray ChunkType = 1
	TypeTable ChunkType = 3
)

func (ct ChunkType) String() string {
	switch ct {
	case TypeRIFF:
		return "riff"
	case TypeArray:
		return "array"
	case TypeTable:
		return "table"
	}
	return fmt.Sprintf("type(%d)", uint8(ct))
}

// MarshalText renders the type for JSON and YAML output.
func (ct ChunkType) MarshalText() ([]byte, error) { return []byte(ct.String()), nil }

func (ct *ChunkType) UnmarshalText(b []byte) error {
	for _, t := range []ChunkType{TypeRIFF, TypeArray, TypeTable} {
		if t.String() == string(b) {
			*ct = t
			return nil
		}
	}
	return fmt.Errorf("saveload: unknown chunk type %q", b)
}

// ChunkFlags describe which framings a handler supports and how dispatch treats it.
type ChunkFlags uint8

const (
	ChunkRIFF ChunkFlags = 1 << iota
	ChunkArray
	ChunkTable
	// ChunkReadOnly chunks are accepted on load but never saved.
	ChunkReadOnly
	// ChunkLast marks the chunk that ends streams without a terminator.
	ChunkLast
)

const chunkEncodings = ChunkRIFF | ChunkArray | ChunkTable

func (f ChunkFlags) supports(ct ChunkType) bool {
	switch ct {
	case TypeRIFF:
		return f&ChunkRIFF != 0
	case TypeArray:
		return f&ChunkArray != 0
	case TypeTable:
		return f&ChunkTable != 0
	}
	return false
}

func (f ChunkFlags) String() string {
	var parts []string
	for _, p := range []struct {
		flag ChunkFlags
		name string
	}{
		{ChunkRIFF, "riff"}, {ChunkArray, "array"}, {ChunkTable, "table"},
		{ChunkReadOnly, "readonly"}, {ChunkLast, "last"},
	} {
		if f&p.flag != 0 {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "|")
}

//go:generate mockgen -source=chunk.go -destination=mock/mock_chunk.go

// Handler saves and loads one chunk.
type Handler interface {
	Tag() Tag
	Flags() ChunkFlags
	Save(w *ChunkWriter) error
	Load(r *ChunkReader) error
}

// PtrsHandler resolves cross-chunk references once every chunk is loaded.
type PtrsHandler interface {
	Ptrs(c *Context) error
}

// CheckHandler reads the parts of a chunk a summary needs.
type CheckHandler interface {
	Check(r *ChunkReader, s *Summary) error
}

// SpecialOp is a dispatch question asked of a handler.
type SpecialOp uint8

const (
	// OpShouldSave asks whether the chunk belongs in the stream being written.
	OpShouldSave SpecialOp = iota + 1
)

// SpecialHandler answers dispatch questions.
type SpecialHandler interface {
	Special(c *Context, op SpecialOp) bool
}

// TypeSelector picks the framing of a handler that supports several, typically
// by consulting the version at which the chunk moved to Table framing.
type TypeSelector interface {
	ChunkType(c *Context) ChunkType
}

// Sizer reports the RIFF body length in advance so it can be streamed without
// buffering.
type Sizer interface {
	RIFFSize(c *Context) int64
}

// FallbackHandler loads chunks whose tag is not registered.
type FallbackHandler interface {
	LoadUnknown(r *ChunkReader) error
}

// ChunkWriter is handed to Save callbacks.
type ChunkWriter struct {
	ctx  *Context
	d    *MemoryDumper
	tag  Tag
	typ  ChunkType
	rows int
}

func (w *ChunkWriter) Context() *Context { return w.ctx }

func (w *ChunkWriter) Tag() Tag { return w.tag }

func (w *ChunkWriter) Type() ChunkType { return w.typ }

// Dumper gives RIFF handlers direct access to the encoder.
func (w *ChunkWriter) Dumper() *MemoryDumper { return w.d }

// ChunkReader is handed to Load and Check callbacks.
type ChunkReader struct {
	ctx  *Context
	r    *ReadBuffer
	tag  Tag
	typ  ChunkType
	size int64
	rows int
}

func (r *ChunkReader) Context() *Context { return r.ctx }

func (r *ChunkReader) Tag() Tag { return r.tag }

func (r *ChunkReader) Type() ChunkType { return r.typ }

// Size is the declared RIFF body length, -1 for Array and Table chunks.
func (r *ChunkReader) Size() int64 { return r.size }

// Buffer gives RIFF handlers direct access to the decoder.
func (r *ChunkReader) Buffer() *ReadBuffer { return r.r }

// Skip discards the chunk body.
func (r *ChunkReader) Skip() error {
	skipChunkBody(r)
	return r.r.Err()
}
