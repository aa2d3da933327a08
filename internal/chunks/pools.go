package chunks

import (
	"fmt"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/world"
)

func saveRows[T any](cw *sl.ChunkWriter, t *sl.Table[T], p *world.Pool[T]) error {
	rw, err := sl.BeginRows(cw, t, p.Len())
	if err != nil {
		return err
	}
	for i, it := range p.All() {
		if err := rw.Write(i, it); err != nil {
			return err
		}
	}
	return rw.End()
}

// loadRows fills p from the rows of cr. Each row lands at its stored index.
func loadRows[T any](cr *sl.ChunkReader, t *sl.Table[T], p *world.Pool[T], setID func(*T, uint16)) error {
	rr, err := sl.ReadRows(cr, t)
	if err != nil {
		return err
	}
	for rr.Next() {
		idx := rr.Index()
		if p.Get(idx) != nil {
			return corruptf("row %d appears twice", idx)
		}
		it, err := p.GetOrCreate(idx)
		if err != nil {
			return fmt.Errorf("%w: %v", sl.ErrAllocationLimit, err)
		}
		if err := rr.Load(it); err != nil {
			return err
		}
		setID(it, uint16(idx))
	}
	return rr.Err()
}

// objectChunk stores map objects. Station links are resolved in the Ptrs pass
// because stations are stored after objects.
type objectChunk struct{ w *world.World }

func (objectChunk) Tag() sl.Tag          { return TagObjects }
func (objectChunk) Flags() sl.ChunkFlags { return sl.ChunkArray }

func (h objectChunk) Save(cw *sl.ChunkWriter) error {
	return saveRows(cw, objectTable, &h.w.Objects)
}

func (h objectChunk) Load(cr *sl.ChunkReader) error {
	return loadRows(cr, objectTable, &h.w.Objects, func(o *world.Object, id uint16) { o.ID = id })
}

func (h objectChunk) Ptrs(*sl.Context) error {
	if err := h.w.LinkObjects(); err != nil {
		return fmt.Errorf("%w: %v", sl.ErrCorruptFormat, err)
	}
	return nil
}

// stationChunk stores stations with their goods and flows.
type stationChunk struct{ w *world.World }

func (stationChunk) Tag() sl.Tag          { return TagStations }
func (stationChunk) Flags() sl.ChunkFlags { return sl.ChunkArray | sl.ChunkTable }

func (stationChunk) ChunkType(c *sl.Context) sl.ChunkType { return framing(c, TagStations) }

func (h stationChunk) Save(cw *sl.ChunkWriter) error {
	return saveRows(cw, stationTable, &h.w.Stations)
}

func (h stationChunk) Load(cr *sl.ChunkReader) error {
	return loadRows(cr, stationTable, &h.w.Stations, func(s *world.Station, id uint16) { s.ID = id })
}

// planChunk stores plans. It only exists in saves recording the plans feature.
type planChunk struct{ w *world.World }

func (planChunk) Tag() sl.Tag          { return TagPlans }
func (planChunk) Flags() sl.ChunkFlags { return sl.ChunkArray | sl.ChunkTable }

func (planChunk) ChunkType(c *sl.Context) sl.ChunkType { return framing(c, TagPlans) }

func (planChunk) Special(c *sl.Context, op sl.SpecialOp) bool {
	return op == sl.OpShouldSave && c.Features.Enabled(FeaturePlans)
}

func (h planChunk) Save(cw *sl.ChunkWriter) error {
	return saveRows(cw, planTable, &h.w.Plans)
}

func (h planChunk) Load(cr *sl.ChunkReader) error {
	if !cr.Context().Features.Enabled(FeaturePlans) {
		return corruptf("plans stored without the %s feature", FeaturePlans)
	}
	return loadRows(cr, planTable, &h.w.Plans, func(p *world.Plan, id uint16) { p.ID = id })
}
