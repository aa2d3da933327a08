package saveload

// Table is the static, ordered descriptor list of a persisted structure.
type Table[T any] struct {
	name   string
	fields []Field[T]
	strict bool
}

// NewTable declares the descriptors of T in stream order.
func NewTable[T any](name string, fields ...Field[T]) *Table[T] {
	return &Table[T]{name: name, fields: fields}
}

// Strict marks a fixed-shape table: a Table header that differs from the filtered
// descriptor list is corruption instead of being reconciled by name.
func (t *Table[T]) Strict() *Table[T] {
	t.strict = true
	return t
}

func (t *Table[T]) Name() string { return t.name }

// Fields returns the static descriptors.
func (t *Table[T]) Fields() []Field[T] { return t.fields }

// Filter returns the RIFF layout for the version and features in c. Null
// placeholders stay in the layout so their bytes are accounted for.
func (t *Table[T]) Filter(c *Context) *Layout[T] {
	l, _ := t.build(c, false, nil)
	return l
}

// TableLayout returns the layout written by a Table chunk for c.
func (t *Table[T]) TableLayout(c *Context) (*Layout[T], error) {
	return t.build(c, true, nil)
}

// Bind intersects the filtered descriptors with a Table header read from a
// stream. Stream fields the reader does not know are skipped; descriptors the
// stream lacks keep their in-memory value.
func (t *Table[T]) Bind(c *Context, stream *Schema) (*Layout[T], error) {
	if stream == nil {
		return nil, corruptf("table %s: missing header", t.name)
	}
	return t.build(c, true, stream)
}

func (t *Table[T]) active(c *Context, table bool) []*Field[T] {
	out := make([]*Field[T], 0, len(t.fields))
	for i := range t.fields {
		f := &t.fields[i]
		if table && f.null > 0 {
			continue
		}
		if f.Active(c) {
			out = append(out, f)
		}
	}
	return out
}

func (t *Table[T]) build(c *Context, table bool, stream *Schema) (*Layout[T], error) {
	active := t.active(c, table)
	l := &Layout[T]{table: table, steps: make([]step[T], 0, len(active))}

	if stream == nil {
		seen := make(map[string]bool, len(active))
		for _, f := range active {
			if f.null > 0 {
				l.steps = append(l.steps, step[T]{null: f.null})
				continue
			}
			if table && seen[f.name] {
				return nil, corruptf("table %s: field %q active twice", t.name, f.name)
			}
			seen[f.name] = true
			sub, err := f.codec.bind(c, table, nil)
			if err != nil {
				return nil, err
			}
			l.steps = append(l.steps, step[T]{field: f, name: f.name, kind: f.kind, sub: sub})
		}
		return l, nil
	}

	byName := make(map[string]*Field[T], len(active))
	for _, f := range active {
		byName[f.name] = f
	}
	if t.strict {
		if len(stream.Fields) != len(active) {
			return nil, corruptf("table %s: header has %d fields, expected %d", t.name, len(stream.Fields), len(active))
		}
		for i, sf := range stream.Fields {
			if f := active[i]; f.name != sf.Name || f.kind != sf.Kind {
				return nil, corruptf("table %s: header field %d is %s:%s, expected %s:%s",
					t.name, i, sf.Name, sf.Kind, f.name, f.kind)
			}
		}
	}
	for _, sf := range stream.Fields {
		f, ok := byName[sf.Name]
		if !ok {
			c.logger().Debug("skipping unknown table field", "table", t.name, "field", sf.Name, "kind", sf.Kind.String())
			l.steps = append(l.steps, step[T]{name: sf.Name, kind: sf.Kind, stream: sf.Sub})
			continue
		}
		if f.kind != sf.Kind {
			return nil, corruptf("table %s: field %q is %s in the stream, expected %s", t.name, sf.Name, sf.Kind, f.kind)
		}
		sub, err := f.codec.bind(c, true, sf.Sub)
		if err != nil {
			return nil, err
		}
		l.steps = append(l.steps, step[T]{field: f, name: f.name, kind: f.kind, sub: sub, stream: sf.Sub})
	}
	return l, nil
}

// Layout is the concrete ordered field list of one structure for one stream.
type Layout[T any] struct {
	table bool
	steps []step[T]
}

type step[T any] struct {
	field  *Field[T]
	name   string
	kind   WireKind
	sub    any
	stream *Schema
	null   int
}

// Names lists the fields the layout reads or writes, in order. Null placeholders
// and stream fields unknown to the reader are left out.
func (l *Layout[T]) Names() []string {
	names := make([]string, 0, len(l.steps))
	for _, s := range l.steps {
		if s.field != nil {
			names = append(names, s.name)
		}
	}
	return names
}

// Len is the number of steps including placeholders and skipped fields.
func (l *Layout[T]) Len() int { return len(l.steps) }

// Schema returns the Table header describing the layout.
func (l *Layout[T]) Schema() *Schema {
	s := &Schema{Fields: make([]SchemaField, 0, len(l.steps))}
	for _, st := range l.steps {
		if st.field == nil {
			continue
		}
		s.Fields = append(s.Fields, SchemaField{
			Name: st.name,
			Kind: st.kind,
			Sub:  st.field.codec.schema(st.sub),
		})
	}
	return s
}

var zeros [64]byte

func (l *Layout[T]) save(e *encoder, obj *T) {
	for i := range l.steps {
		s := &l.steps[i]
		switch {
		case s.null > 0:
			for n := s.null; n > 0; n -= min(n, len(zeros)) {
				e.d.WriteRaw(zeros[:min(n, len(zeros))])
			}
		case s.field != nil:
			s.field.codec.save(e, obj, s.sub)
		}
	}
}

func (l *Layout[T]) load(d *decoder, obj *T) {
	for i := range l.steps {
		if d.r.Err() != nil {
			return
		}
		s := &l.steps[i]
		switch {
		case s.null > 0:
			d.r.Skip(int64(s.null))
		case s.field == nil:
			skipValue(d.r, d.c.Limits, s.kind, s.stream)
		default:
			s.field.codec.load(d, obj, s.sub)
		}
	}
}
