package saveload

import (
	"errors"
	"fmt"
	"math"
)

// Save writes obj with a RIFF layout into the chunk body.
func (l *Layout[T]) Save(w *ChunkWriter, obj *T) error {
	l.save(&encoder{d: w.d, c: w.ctx, table: l.table}, obj)
	return w.d.Err()
}

// Load fills obj from the chunk body using a RIFF layout.
func (l *Layout[T]) Load(r *ChunkReader, obj *T) error {
	l.load(&decoder{r: r.r, c: r.ctx, table: l.table}, obj)
	return r.r.Err()
}

// SaveStruct writes one record of t into a RIFF chunk.
func SaveStruct[T any](w *ChunkWriter, t *Table[T], obj *T) error {
	if w.typ != TypeRIFF {
		return fmt.Errorf("saveload: %s: struct write in %s chunk", w.tag, w.typ)
	}
	return t.Filter(w.ctx).Save(w, obj)
}

// LoadStruct reads one record of t from a RIFF chunk.
func LoadStruct[T any](r *ChunkReader, t *Table[T], obj *T) error {
	if r.typ != TypeRIFF {
		return corruptf("struct read in %s chunk", r.typ)
	}
	return t.Filter(r.ctx).Load(r, obj)
}

// RowWriter emits the rows of an Array or Table chunk.
type RowWriter[T any] struct {
	w    *ChunkWriter
	l    *Layout[T]
	e    encoder
	want int
	done int
}

// BeginRows starts the row section of an Array or Table chunk. Table chunks
// write their header and the row count, which must equal count.
func BeginRows[T any](w *ChunkWriter, t *Table[T], count int) (*RowWriter[T], error) {
	rw := &RowWriter[T]{w: w, want: count}
	switch w.typ {
	case TypeArray:
		rw.l = t.Filter(w.ctx)
	case TypeTable:
		l, err := t.TableLayout(w.ctx)
		if err != nil {
			return nil, err
		}
		rw.l = l
		writeSchema(w.d, l.Schema())
		w.d.WriteLength(count)
	default:
		return nil, fmt.Errorf("saveload: %s: rows in %s chunk", w.tag, w.typ)
	}
	rw.e = encoder{d: w.d, c: w.ctx, table: w.typ == TypeTable}
	return rw, w.d.Err()
}

// Write emits obj as the row at index.
func (rw *RowWriter[T]) Write(index int, obj *T) error {
	if index < 0 || uint64(index) >= math.MaxUint32 {
		return fmt.Errorf("saveload: %s: row index %d out of range", rw.w.tag, index)
	}
	d := rw.w.d
	if rw.w.typ == TypeTable {
		if rw.done == rw.want {
			return fmt.Errorf("saveload: %s: more than %d rows written", rw.w.tag, rw.want)
		}
		d.WriteGamma(uint32(index))
	} else {
		d.WriteGamma(uint32(index) + 1)
	}
	d.BeginAutoLength()
	rw.l.save(&rw.e, obj)
	d.EndAutoLength(PrefixGamma)
	rw.done++
	rw.w.rows++
	return d.Err()
}

// End closes the row section.
func (rw *RowWriter[T]) End() error {
	if rw.w.typ == TypeTable {
		if rw.done != rw.want {
			return fmt.Errorf("saveload: %s: declared %d rows, wrote %d", rw.w.tag, rw.want, rw.done)
		}
	} else {
		rw.w.d.WriteGamma(0)
	}
	return rw.w.d.Err()
}

// RowReader iterates the rows of an Array or Table chunk. Each row is bounded by
// its declared length; a row that is not loaded is skipped.
type RowReader[T any] struct {
	r    *ChunkReader
	l    *Layout[T]
	d    decoder
	left int // rows left in a Table chunk, -1 for Array chunks

	index  int
	prev   int64
	open   bool
	loaded bool
	closed bool
}

// ReadRows starts reading the row section of an Array or Table chunk.
func ReadRows[T any](r *ChunkReader, t *Table[T]) (*RowReader[T], error) {
	rr := &RowReader[T]{r: r, left: -1}
	switch r.typ {
	case TypeArray:
		rr.l = t.Filter(r.ctx)
	case TypeTable:
		s := readSchema(r.r, r.ctx.Limits, 0)
		if err := r.r.Err(); err != nil {
			return nil, err
		}
		l, err := t.Bind(r.ctx, s)
		if err != nil {
			return nil, err
		}
		rr.l = l
		n := r.r.ReadGamma()
		if err := r.r.Err(); err != nil {
			return nil, err
		}
		if err := r.ctx.CheckCount(n, "row"); err != nil {
			return nil, err
		}
		rr.left = int(n)
	default:
		return nil, corruptf("rows in %s chunk", r.typ)
	}
	rr.d = decoder{r: r.r, c: r.ctx, table: r.typ == TypeTable}
	return rr, nil
}

// Layout exposes the layout rows are decoded with.
func (rr *RowReader[T]) Layout() *Layout[T] { return rr.l }

// Next advances to the next row.
func (rr *RowReader[T]) Next() bool {
	rr.finish()
	buf := rr.r.r
	if rr.closed || buf.Err() != nil {
		return false
	}
	if rr.left >= 0 {
		if rr.left == 0 {
			rr.closed = true
			return false
		}
		rr.left--
		rr.index = int(buf.ReadGamma())
	} else {
		idx := buf.ReadGamma()
		if buf.Err() != nil {
			return false
		}
		if idx == 0 {
			rr.closed = true
			return false
		}
		rr.index = int(idx - 1)
	}
	if buf.Err() != nil {
		return false
	}
	if err := rr.r.ctx.CheckCount(uint32(rr.index), "row index"); err != nil {
		buf.Fail(err)
		return false
	}
	length := buf.ReadGamma()
	rr.prev = buf.PushLimit(int64(length))
	rr.open = true
	rr.loaded = false
	rr.r.rows++
	return buf.Err() == nil
}

// Index is the stable index of the current row.
func (rr *RowReader[T]) Index() int { return rr.index }

// Load decodes the current row into obj.
func (rr *RowReader[T]) Load(obj *T) error {
	if !rr.open {
		return errors.New("saveload: Load called without a current row")
	}
	rr.loaded = true
	rr.l.load(&rr.d, obj)
	return rr.r.r.Err()
}

// Err closes the current row and reports the first error seen.
func (rr *RowReader[T]) Err() error {
	rr.finish()
	return rr.r.r.Err()
}

func (rr *RowReader[T]) finish() {
	if !rr.open {
		return
	}
	buf := rr.r.r
	if rem := buf.Remaining(); !rr.loaded && rem > 0 && buf.Err() == nil {
		buf.Skip(rem)
	}
	buf.PopLimit(rr.prev)
	rr.open = false
}

// skipChunkBody discards a chunk body using only its framing.
func skipChunkBody(r *ChunkReader) {
	buf := r.r
	switch r.typ {
	case TypeRIFF:
		if rem := buf.Remaining(); rem > 0 {
			buf.Skip(rem)
		}
	case TypeArray:
		for buf.Err() == nil {
			idx := buf.ReadGamma()
			if idx == 0 || buf.Err() != nil {
				return
			}
			buf.Skip(int64(buf.ReadGamma()))
			r.rows++
		}
	case TypeTable:
		readSchema(buf, r.ctx.Limits, 0)
		n := buf.ReadGamma()
		if buf.Err() != nil {
			return
		}
		if err := r.ctx.CheckCount(n, "row"); err != nil {
			buf.Fail(err)
			return
		}
		for i := uint32(0); i < n && buf.Err() == nil; i++ {
			buf.ReadGamma()
			buf.Skip(int64(buf.ReadGamma()))
			r.rows++
		}
	}
}
