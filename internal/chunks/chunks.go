// Package chunks binds the world state to the save engine: one handler per
// chunk, the version ladder and the extension features.
package chunks

import (
	"context"
	"fmt"
	"io"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/world"
)

var (
	TagMapSize     = sl.MustTag("MAPS")
	TagMapType     = sl.MustTag("MAPT")
	TagMapHeight   = sl.MustTag("MAP2")
	TagObjects     = sl.MustTag("OBJS")
	TagStations    = sl.MustTag("STNN")
	TagPlans       = sl.MustTag("PLAN")
	TagSignals     = sl.MustTag("SPRG")
	TagDebugLog    = sl.MustTag("DBGL")
	TagDebugConfig = sl.MustTag("DBGC")
	TagDate        = sl.MustTag("DATE")
)

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", sl.ErrCorruptFormat, fmt.Sprintf(format, args...))
}

func handlers(w *world.World) []sl.Handler {
	return []sl.Handler{
		mapSizeChunk{w},
		mapTypeChunk{w},
		mapHeightChunk{w},
		objectChunk{w},
		stationChunk{w},
		planChunk{w},
		signalChunk{w},
		debugLogChunk{w},
		dateChunk{w},
		debugConfigChunk{w},
	}
}

// NewRegistry returns the chunk registry bound to w in save order.
func NewRegistry(w *world.World) (*sl.Registry, error) {
	return sl.NewRegistry(Format, Features, handlers(w)...)
}

// Save writes w to out.
func Save(ctx context.Context, out io.Writer, w *world.World, opts sl.SaveOptions) error {
	reg, err := NewRegistry(w)
	if err != nil {
		return err
	}
	return sl.Save(ctx, out, reg, opts)
}

// Load reads a save into a new world.
func Load(ctx context.Context, in io.Reader, opts sl.LoadOptions) (*world.World, *sl.Summary, error) {
	w := world.New()
	reg, err := NewRegistry(w)
	if err != nil {
		return nil, nil, err
	}
	s, err := sl.Load(ctx, in, reg, opts)
	if err != nil {
		return nil, nil, err
	}
	if w.Map.Tiles() == 0 {
		return nil, nil, corruptf("save has no %s chunk", TagMapSize)
	}
	return w, s, nil
}

// Check summarises a save without building a world.
func Check(ctx context.Context, in io.Reader, opts sl.LoadOptions) (*sl.Summary, error) {
	reg, err := NewRegistry(world.New())
	if err != nil {
		return nil, err
	}
	s, err := sl.Check(ctx, in, reg, opts)
	if err != nil {
		return nil, err
	}
	if _, _, ok := MapSize(s); !ok {
		return nil, corruptf("save has no %s chunk", TagMapSize)
	}
	return s, nil
}

// MapSize returns the map dimensions a Check recorded.
func MapSize(s *sl.Summary) (x, y uint32, ok bool) {
	vx, okx := s.Property(PropMapSizeX)
	vy, oky := s.Property(PropMapSizeY)
	if !okx || !oky {
		return 0, 0, false
	}
	x, okx = toUint32(vx)
	y, oky = toUint32(vy)
	return x, y, okx && oky
}

// toUint32 accepts the property as recorded or after a JSON or msgpack round trip.
func toUint32(v any) (uint32, bool) {
	switch n := v.(type) {
	case uint32:
		return n, true
	case uint64:
		return uint32(n), true
	case int64:
		return uint32(n), n >= 0
	case float64:
		return uint32(n), n >= 0
	}
	return 0, false
}

// Convert loads a save and writes it again with opts.
func Convert(ctx context.Context, in io.Reader, out io.Writer, load sl.LoadOptions, opts sl.SaveOptions) (*sl.Summary, error) {
	w, s, err := Load(ctx, in, load)
	if err != nil {
		return nil, err
	}
	// Keep the source's extensions unless the caller picked a set.
	target := opts.Version
	if target == 0 {
		target = Format.Current
	}
	if opts.Features == nil && target >= VFeatureBlock {
		opts.Features = s.Features
	}
	if err := Save(ctx, out, w, opts); err != nil {
		return nil, err
	}
	return s, nil
}
