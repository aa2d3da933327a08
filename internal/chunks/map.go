package chunks

import (
	"fmt"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/world"
)

// Summary properties reported by Check.
const (
	PropMapSizeX = "map_size_x"
	PropMapSizeY = "map_size_y"
)

// mapSizeChunk stores the map dimensions. It must precede the tile arrays.
type mapSizeChunk struct{ w *world.World }

func (mapSizeChunk) Tag() sl.Tag                { return TagMapSize }
func (mapSizeChunk) Flags() sl.ChunkFlags       { return sl.ChunkRIFF }
func (mapSizeChunk) RIFFSize(*sl.Context) int64 { return 8 }

func (h mapSizeChunk) Save(cw *sl.ChunkWriter) error {
	d := cw.Dumper()
	d.WriteU32(h.w.Map.SizeX)
	d.WriteU32(h.w.Map.SizeY)
	return d.Err()
}

func readMapSize(cr *sl.ChunkReader) (uint32, uint32, error) {
	buf := cr.Buffer()
	x, y := buf.ReadU32(), buf.ReadU32()
	if err := buf.Err(); err != nil {
		return 0, 0, err
	}
	if !world.ValidMapSize(x) || !world.ValidMapSize(y) {
		return 0, 0, corruptf("map size %dx%d", x, y)
	}
	return x, y, nil
}

func (h mapSizeChunk) Load(cr *sl.ChunkReader) error {
	x, y, err := readMapSize(cr)
	if err != nil {
		return err
	}
	return h.w.Map.Allocate(x, y)
}

func (mapSizeChunk) Check(cr *sl.ChunkReader, s *sl.Summary) error {
	x, y, err := readMapSize(cr)
	if err != nil {
		return err
	}
	s.Set(PropMapSizeX, x)
	s.Set(PropMapSizeY, y)
	return nil
}

// tileBody checks a tile array chunk against the allocated map.
func tileBody(cr *sl.ChunkReader, m *world.Map, width int64) error {
	if m.Tiles() == 0 {
		return corruptf("%s before %s", cr.Tag(), TagMapSize)
	}
	if want := int64(m.Tiles()) * width; cr.Size() != want {
		return corruptf("%s holds %d bytes, map needs %d", cr.Tag(), cr.Size(), want)
	}
	return nil
}

// mapTypeChunk stores one type byte per tile.
type mapTypeChunk struct{ w *world.World }

func (mapTypeChunk) Tag() sl.Tag          { return TagMapType }
func (mapTypeChunk) Flags() sl.ChunkFlags { return sl.ChunkRIFF }

func (h mapTypeChunk) RIFFSize(*sl.Context) int64 { return int64(h.w.Map.Tiles()) }

func (h mapTypeChunk) Save(cw *sl.ChunkWriter) error {
	if len(h.w.Map.Type) != h.w.Map.Tiles() {
		return fmt.Errorf("tile type array has %d entries for %d tiles", len(h.w.Map.Type), h.w.Map.Tiles())
	}
	cw.Dumper().WriteRaw(h.w.Map.Type)
	return cw.Dumper().Err()
}

func (h mapTypeChunk) Load(cr *sl.ChunkReader) error {
	if err := tileBody(cr, &h.w.Map, 1); err != nil {
		return err
	}
	cr.Buffer().CopyInto(h.w.Map.Type)
	return cr.Buffer().Err()
}

// mapHeightChunk stores one u16 height per tile.
type mapHeightChunk struct{ w *world.World }

func (mapHeightChunk) Tag() sl.Tag          { return TagMapHeight }
func (mapHeightChunk) Flags() sl.ChunkFlags { return sl.ChunkRIFF }

func (h mapHeightChunk) RIFFSize(*sl.Context) int64 { return 2 * int64(h.w.Map.Tiles()) }

func (mapHeightChunk) Special(c *sl.Context, op sl.SpecialOp) bool {
	return op == sl.OpShouldSave && c.Version >= VHeightMap
}

func (h mapHeightChunk) Save(cw *sl.ChunkWriter) error {
	if len(h.w.Map.Height) != h.w.Map.Tiles() {
		return fmt.Errorf("height array has %d entries for %d tiles", len(h.w.Map.Height), h.w.Map.Tiles())
	}
	d := cw.Dumper()
	for _, v := range h.w.Map.Height {
		d.WriteU16(v)
	}
	return d.Err()
}

func (h mapHeightChunk) Load(cr *sl.ChunkReader) error {
	if err := tileBody(cr, &h.w.Map, 2); err != nil {
		return err
	}
	heights := h.w.Map.Height
	i := 0
	cr.Buffer().ForEachU16(len(heights), func(v uint16) {
		heights[i] = v
		i++
	})
	return cr.Buffer().Err()
}
