package saveload

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// WireKind is the type of a field as recorded in a Table header.
type WireKind uint8

const (
	KindI8 WireKind = iota + 1
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindStringID
	KindString
	KindStruct

	// KindHasLength marks a gamma-counted repetition of the base kind.
	KindHasLength WireKind = 0x10
)

const maxSchemaDepth = 8

var kindNames = [...]string{
	KindI8:       "i8",
	KindU8:       "u8",
	KindI16:      "i16",
	KindU16:      "u16",
	KindI32:      "i32",
	KindU32:      "u32",
	KindI64:      "i64",
	KindU64:      "u64",
	KindStringID: "stringid",
	KindString:   "string",
	KindStruct:   "struct",
}

func (k WireKind) Base() WireKind { return k &^ KindHasLength }

func (k WireKind) IsList() bool { return k&KindHasLength != 0 }

func (k WireKind) Valid() bool {
	if k&^(KindHasLength|0x0F) != 0 {
		return false
	}
	b := k.Base()
	return b >= KindI8 && b <= KindStruct
}

// Size is the fixed byte width of a scalar kind, 0 for variable-size kinds.
func (k WireKind) Size() int {
	switch k.Base() {
	case KindI8, KindU8:
		return 1
	case KindI16, KindU16, KindStringID:
		return 2
	case KindI32, KindU32:
		return 4
	case KindI64, KindU64:
		return 8
	}
	return 0
}

func (k WireKind) isInteger() bool { return k.Size() > 0 }

func (k WireKind) signed() bool {
	switch k.Base() {
	case KindI8, KindI16, KindI32, KindI64:
		return true
	}
	return false
}

func (k WireKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(0x%02x)", uint8(k))
	}
	s := kindNames[k.Base()]
	if k.IsList() {
		s += "[]"
	}
	return s
}

func writeScalar(d *MemoryDumper, k WireKind, x uint64) {
	switch k.Size() {
	case 1:
		d.WriteU8(uint8(x))
	case 2:
		d.WriteU16(uint16(x))
	case 4:
		d.WriteU32(uint32(x))
	case 8:
		d.WriteU64(x)
	}
}

// readScalar reads one integer of kind k, sign-extending signed kinds.
func readScalar(r *ReadBuffer, k WireKind) uint64 {
	switch k.Base() {
	case KindI8:
		return uint64(int64(int8(r.ReadU8())))
	case KindU8:
		return uint64(r.ReadU8())
	case KindI16:
		return uint64(int64(int16(r.ReadU16())))
	case KindU16, KindStringID:
		return uint64(r.ReadU16())
	case KindI32:
		return uint64(int64(int32(r.ReadU32())))
	case KindU32:
		return uint64(r.ReadU32())
	default:
		return r.ReadU64()
	}
}

func readString(r *ReadBuffer, limits Limits) string {
	n := r.ReadGamma()
	if r.Err() != nil {
		return ""
	}
	if int64(n) > int64(limits.maxStringLen()) {
		r.Fail(limitf("string of %d bytes exceeds limit %d", n, limits.maxStringLen()))
		return ""
	}
	return string(r.ReadRaw(int(n)))
}

// ReadString reads a gamma-prefixed string no longer than limits allow. The
// bytes are returned as stored; no charset conversion is applied.
func (r *ReadBuffer) ReadString(limits Limits) string { return readString(r, limits) }

// SchemaField is one entry of a Table header.
type SchemaField struct {
	Name string
	Kind WireKind
	Sub  *Schema
}

// Schema is the field header of a Table chunk or of a nested struct.
type Schema struct {
	Fields []SchemaField
}

// Equal reports whether both headers describe the same shape.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range s.Fields {
		g := o.Fields[i]
		if f.Name != g.Name || f.Kind != g.Kind || !f.Sub.Equal(g.Sub) {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	if s == nil {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%s", f.Name, f.Kind)
		if f.Sub != nil {
			b.WriteString(f.Sub.String())
		}
	}
	b.WriteByte('}')
	return b.String()
}

func writeSchema(d *MemoryDumper, s *Schema) {
	d.WriteLength(len(s.Fields))
	for _, f := range s.Fields {
		d.WriteU8(uint8(f.Kind))
		d.WriteString(f.Name)
		if f.Kind.Base() == KindStruct {
			writeSchema(d, f.Sub)
		}
	}
}

func readSchema(r *ReadBuffer, limits Limits, depth int) *Schema {
	if depth > maxSchemaDepth {
		r.Fail(corruptf("table header nested deeper than %d", maxSchemaDepth))
		return nil
	}
	n := r.ReadGamma()
	if r.Err() != nil {
		return nil
	}
	if int64(n) > int64(limits.maxElements()) {
		r.Fail(limitf("table header declares %d fields", n))
		return nil
	}
	s := &Schema{Fields: make([]SchemaField, 0, min(n, 256))}
	seen := make(map[string]bool, min(n, 256))
	for i := uint32(0); i < n; i++ {
		kind := WireKind(r.ReadU8())
		name := readString(r, limits)
		if r.Err() != nil {
			return nil
		}
		switch {
		case !kind.Valid():
			r.Fail(corruptf("field %q has invalid kind 0x%02x", name, uint8(kind)))
		case name == "" || !utf8.ValidString(name):
			r.Fail(corruptf("table header field %d has an invalid name", i))
		case seen[name]:
			r.Fail(corruptf("field %q declared twice", name))
		}
		if r.Err() != nil {
			return nil
		}
		seen[name] = true
		f := SchemaField{Name: name, Kind: kind}
		if kind.Base() == KindStruct {
			f.Sub = readSchema(r, limits, depth+1)
			if r.Err() != nil {
				return nil
			}
		}
		s.Fields = append(s.Fields, f)
	}
	return s
}

// skipValue advances past one field value the reader does not know.
func skipValue(r *ReadBuffer, limits Limits, kind WireKind, sub *Schema) {
	if kind.IsList() {
		n := r.ReadGamma()
		if r.Err() != nil {
			return
		}
		if int64(n) > int64(limits.maxElements()) {
			r.Fail(limitf("list of %d elements exceeds limit", n))
			return
		}
		if size := kind.Size(); size > 0 {
			r.Skip(int64(n) * int64(size))
			return
		}
		for i := uint32(0); i < n && r.Err() == nil; i++ {
			skipValue(r, limits, kind.Base(), sub)
		}
		return
	}
	switch kind.Base() {
	case KindString:
		r.Skip(int64(r.ReadGamma()))
	case KindStruct:
		skipStruct(r, limits, sub)
	default:
		r.Skip(int64(kind.Size()))
	}
}

func skipStruct(r *ReadBuffer, limits Limits, s *Schema) {
	if s == nil {
		return
	}
	for _, f := range s.Fields {
		if r.Err() != nil {
			return
		}
		skipValue(r, limits, f.Kind, f.Sub)
	}
}
