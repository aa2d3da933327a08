package saveload

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Integer is any in-memory integer type a scalar field can target.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Field describes one persisted field of T: its name, wire kind, accessor and the
// versions and features under which it is present in a stream.
type Field[T any] struct {
	name  string
	kind  WireKind
	since Version
	until Version
	test  FeatureTest
	null  int
	codec codec[T]
}

// codec moves one field between T and the stream. sub is the bound layout of
// nested descriptors, nil for scalar fields.
type codec[T any] interface {
	save(e *encoder, obj *T, sub any)
	load(d *decoder, obj *T, sub any)
	bind(c *Context, table bool, stream *Schema) (any, error)
	schema(sub any) *Schema
}

type encoder struct {
	d     *MemoryDumper
	c     *Context
	table bool
}

type decoder struct {
	r     *ReadBuffer
	c     *Context
	table bool
}

// count reads a gamma count and checks it against the limits. size is the
// minimum encoded size of one element, 0 when unknown.
func (d *decoder) count(size int) (int, bool) {
	n := d.r.ReadGamma()
	if d.r.Err() != nil {
		return 0, false
	}
	if err := d.c.CheckCount(n, "list"); err != nil {
		d.r.Fail(err)
		return 0, false
	}
	if rem := d.r.Remaining(); size > 0 && rem >= 0 && int64(n)*int64(size) > rem {
		d.r.Fail(limitf("list of %d elements exceeds the %d bytes left", n, rem))
		return 0, false
	}
	return int(n), true
}

func (f Field[T]) Name() string { return f.name }

func (f Field[T]) Kind() WireKind { return f.kind }

// Since makes the field present from version v onwards.
func (f Field[T]) Since(v Version) Field[T] {
	f.since = v
	return f
}

// Until makes the field absent after version v.
func (f Field[T]) Until(v Version) Field[T] {
	f.until = v
	return f
}

// When attaches a feature test to the field.
func (f Field[T]) When(test FeatureTest) Field[T] {
	f.test = test
	return f
}

// References lists the features the field's test depends on.
func (f Field[T]) References() []string {
	if f.test == nil {
		return nil
	}
	return f.test.References()
}

// Active reports whether the field is part of streams described by c.
func (f Field[T]) Active(c *Context) bool {
	if c.Version < f.since || c.Version > f.until {
		return false
	}
	return f.test == nil || f.test.Eval(c.Features)
}

func newField[T any](name string, kind WireKind, cd codec[T]) Field[T] {
	return Field[T]{name: name, kind: kind, until: MaxVersion, codec: cd}
}

func mustInteger(name string, file WireKind) {
	if file.IsList() || !file.isInteger() {
		panic(fmt.Sprintf("saveload: field %q: %s is not an integer kind", name, file))
	}
}

// Int stores an integer field with the given file kind. Values are truncated to
// the file width on save and sign or zero extended on load.
func Int[T any, V Integer](name string, file WireKind, get func(*T) *V) Field[T] {
	mustInteger(name, file)
	return newField[T](name, file, intCodec[T, V]{file: file, get: get})
}

// Bool stores a boolean as a u8.
func Bool[T any](name string, get func(*T) *bool) Field[T] {
	return newField[T](name, KindU8, boolCodec[T]{get: get})
}

// Array stores a fixed-length run of integers. RIFF streams carry no count; Table
// streams carry one that must match the in-memory length.
func Array[T any, V Integer](name string, file WireKind, get func(*T) []V) Field[T] {
	mustInteger(name, file)
	return newField[T](name, file|KindHasLength, arrayCodec[T, V]{file: file, get: get})
}

// List stores a variable-length slice of integers behind a gamma count.
func List[T any, V Integer](name string, file WireKind, get func(*T) *[]V) Field[T] {
	mustInteger(name, file)
	return newField[T](name, file|KindHasLength, listCodec[T, V]{file: file, get: get})
}

// String stores a string behind a gamma length.
func String[T any](name string, get func(*T) *string) Field[T] {
	return newField[T](name, KindString, stringCodec[T]{get: get})
}

// Bytes stores an opaque byte payload behind a gamma length.
func Bytes[T any](name string, get func(*T) *[]byte) Field[T] {
	return newField[T](name, KindU8|KindHasLength, bytesCodec[T]{get: get})
}

// Null keeps n bytes of a removed field in RIFF records. It writes zeros and is
// skipped on load. Null fields never appear in Table headers.
func Null[T any](n int) Field[T] {
	return Field[T]{null: n, until: MaxVersion}
}

// Struct stores a nested struct inline.
func Struct[T, E any](name string, sub *Table[E], get func(*T) *E) Field[T] {
	return newField[T](name, KindStruct, structCodec[T, E]{sub: sub, get: get})
}

// StructList stores a gamma-counted list of nested structs. Element order is kept.
func StructList[T, E any](name string, sub *Table[E], get func(*T) *[]E) Field[T] {
	return newField[T](name, KindStruct|KindHasLength, structListCodec[T, E]{sub: sub, get: get})
}

type scalar struct{}

func (scalar) bind(*Context, bool, *Schema) (any, error) { return nil, nil }
func (scalar) schema(any) *Schema                       { return nil }

type intCodec[T any, V Integer] struct {
	scalar
	file WireKind
	get  func(*T) *V
}

func (c intCodec[T, V]) save(e *encoder, obj *T, _ any) {
	writeScalar(e.d, c.file, uint64(*c.get(obj)))
}

func (c intCodec[T, V]) load(d *decoder, obj *T, _ any) {
	*c.get(obj) = V(readScalar(d.r, c.file))
}

type boolCodec[T any] struct {
	scalar
	get func(*T) *bool
}

func (c boolCodec[T]) save(e *encoder, obj *T, _ any) {
	var b uint8
	if *c.get(obj) {
		b = 1
	}
	e.d.WriteU8(b)
}

func (c boolCodec[T]) load(d *decoder, obj *T, _ any) {
	*c.get(obj) = d.r.ReadU8() != 0
}

type arrayCodec[T any, V Integer] struct {
	scalar
	file WireKind
	get  func(*T) []V
}

func (c arrayCodec[T, V]) save(e *encoder, obj *T, _ any) {
	vals := c.get(obj)
	if e.table {
		e.d.WriteLength(len(vals))
	}
	for _, v := range vals {
		writeScalar(e.d, c.file, uint64(v))
	}
}

func (c arrayCodec[T, V]) load(d *decoder, obj *T, _ any) {
	vals := c.get(obj)
	if d.table {
		n := d.r.ReadGamma()
		if d.r.Err() != nil {
			return
		}
		if int64(n) != int64(len(vals)) {
			d.r.Fail(corruptf("fixed array holds %d elements, stream has %d", len(vals), n))
			return
		}
	}
	for i := range vals {
		vals[i] = V(readScalar(d.r, c.file))
	}
}

type listCodec[T any, V Integer] struct {
	scalar
	file WireKind
	get  func(*T) *[]V
}

func (c listCodec[T, V]) save(e *encoder, obj *T, _ any) {
	vals := *c.get(obj)
	e.d.WriteLength(len(vals))
	for _, v := range vals {
		writeScalar(e.d, c.file, uint64(v))
	}
}

func (c listCodec[T, V]) load(d *decoder, obj *T, _ any) {
	n, ok := d.count(c.file.Size())
	if !ok {
		return
	}
	if n == 0 {
		*c.get(obj) = nil
		return
	}
	vals := make([]V, n)
	switch c.file {
	case KindU16:
		i := 0
		d.r.ForEachU16(n, func(x uint16) {
			vals[i] = V(x)
			i++
		})
	default:
		for i := range vals {
			vals[i] = V(readScalar(d.r, c.file))
		}
	}
	*c.get(obj) = vals
}

var legacyCharset = charmap.Windows1252

type stringCodec[T any] struct {
	scalar
	get func(*T) *string
}

func (c stringCodec[T]) save(e *encoder, obj *T, _ any) {
	s := *c.get(obj)
	if e.c.LegacyStrings() {
		enc := encoding.ReplaceUnsupported(legacyCharset.NewEncoder())
		if out, err := enc.String(s); err == nil {
			s = out
		}
	}
	e.d.WriteString(s)
}

func (c stringCodec[T]) load(d *decoder, obj *T, _ any) {
	s := readString(d.r, d.c.Limits)
	if d.r.Err() != nil {
		return
	}
	if d.c.LegacyStrings() {
		out, err := legacyCharset.NewDecoder().String(s)
		if err != nil {
			d.r.Fail(corruptf("legacy string: %v", err))
			return
		}
		s = out
	}
	*c.get(obj) = strings.ToValidUTF8(s, "�")
}

type bytesCodec[T any] struct {
	scalar
	get func(*T) *[]byte
}

func (c bytesCodec[T]) save(e *encoder, obj *T, _ any) {
	b := *c.get(obj)
	e.d.WriteLength(len(b))
	e.d.WriteRaw(b)
}

func (c bytesCodec[T]) load(d *decoder, obj *T, _ any) {
	n := d.r.ReadGamma()
	if d.r.Err() != nil {
		return
	}
	if int64(n) > int64(d.c.Limits.maxStringLen()) {
		d.r.Fail(limitf("payload of %d bytes exceeds limit %d", n, d.c.Limits.maxStringLen()))
		return
	}
	if n == 0 {
		*c.get(obj) = nil
		return
	}
	b := make([]byte, n)
	d.r.CopyInto(b)
	*c.get(obj) = b
}

type structCodec[T, E any] struct {
	sub *Table[E]
	get func(*T) *E
}

func (c structCodec[T, E]) bind(ctx *Context, table bool, stream *Schema) (any, error) {
	return c.sub.build(ctx, table, stream)
}

func (c structCodec[T, E]) schema(sub any) *Schema { return sub.(*Layout[E]).Schema() }

func (c structCodec[T, E]) save(e *encoder, obj *T, sub any) {
	sub.(*Layout[E]).save(e, c.get(obj))
}

func (c structCodec[T, E]) load(d *decoder, obj *T, sub any) {
	sub.(*Layout[E]).load(d, c.get(obj))
}

type structListCodec[T, E any] struct {
	sub *Table[E]
	get func(*T) *[]E
}

func (c structListCodec[T, E]) bind(ctx *Context, table bool, stream *Schema) (any, error) {
	return c.sub.build(ctx, table, stream)
}

func (c structListCodec[T, E]) schema(sub any) *Schema { return sub.(*Layout[E]).Schema() }

func (c structListCodec[T, E]) save(e *encoder, obj *T, sub any) {
	l := sub.(*Layout[E])
	list := *c.get(obj)
	e.d.WriteLength(len(list))
	for i := range list {
		l.save(e, &list[i])
	}
}

func (c structListCodec[T, E]) load(d *decoder, obj *T, sub any) {
	l := sub.(*Layout[E])
	n, ok := d.count(0)
	if !ok {
		return
	}
	if n == 0 {
		*c.get(obj) = nil
		return
	}
	list := make([]E, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		var elem E
		l.load(d, &elem)
		if d.r.Err() != nil {
			return
		}
		list = append(list, elem)
	}
	*c.get(obj) = list
}
