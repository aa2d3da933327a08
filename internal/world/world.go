// Package world holds the in-memory game state that tilesave persists.
package world

import (
	"errors"
	"fmt"
	"math/bits"
)

const (
	MinMapSize = 16
	MaxMapSize = 16384
)

// NoStation marks an object that belongs to no station.
const NoStation uint16 = 0xFFFF

// ErrMapSize is returned for map dimensions that are not a power of two in
// [MinMapSize, MaxMapSize].
var ErrMapSize = errors.New("invalid map size")

// ValidMapSize reports whether n is an accepted map dimension.
func ValidMapSize(n uint32) bool {
	return n >= MinMapSize && n <= MaxMapSize && bits.OnesCount32(n) == 1
}

// Map is the tile grid. Type and Height are indexed by TileIndex.
type Map struct {
	SizeX  uint32
	SizeY  uint32
	Type   []uint8
	Height []uint16
}

// Allocate sizes the tile arrays for x by y tiles, zeroing them.
func (m *Map) Allocate(x, y uint32) error {
	if !ValidMapSize(x) || !ValidMapSize(y) {
		return fmt.Errorf("%w: %dx%d", ErrMapSize, x, y)
	}
	m.SizeX, m.SizeY = x, y
	m.Type = make([]uint8, m.Tiles())
	m.Height = make([]uint16, m.Tiles())
	return nil
}

// Tiles is the number of tiles on the map.
func (m *Map) Tiles() int { return int(m.SizeX) * int(m.SizeY) }

// TileIndex converts coordinates to a tile index.
func (m *Map) TileIndex(x, y uint32) uint32 { return y*m.SizeX + x }

// Date holds the calendar globals.
type Date struct {
	Calendar    int32
	TickCounter uint64
	TickSkip    uint8
}

type FlowStat struct {
	Via        uint16
	Share      uint32
	Restricted bool
}

type GoodsEntry struct {
	Cargo  uint8
	Status uint8
	Rating uint8
	Flows  []FlowStat
}

type Station struct {
	ID         uint16
	Name       string
	XY         uint32
	Owner      uint8
	Facilities uint8
	BuildDate  int32
	Goods      []GoodsEntry
}

// Object is a map object. Station is derived from StationID after loading.
type Object struct {
	ID        uint16
	Type      uint16
	Location  uint32
	Width     uint8
	Height    uint8
	BuildDate int32
	Colour    uint8
	StationID uint16
	Station   *Station
}

type PlanLine struct {
	Visible bool
	Colour  uint8
	Tiles   []uint32
}

type Plan struct {
	ID      uint16
	Owner   uint8
	Visible bool
	Name    string
	Lines   []PlanLine
}

type Instruction struct {
	Op  uint8
	Arg uint32
}

// SignalProgram is the instruction list attached to one signal.
type SignalProgram struct {
	Tile         uint32
	Track        uint8
	Style        uint8
	Instructions []Instruction
}

// DebugLog carries free-form diagnostics alongside the game.
type DebugLog struct {
	Log    []byte
	Config string
}

// World aggregates every persisted piece of state.
type World struct {
	Map      Map
	Date     Date
	Objects  Pool[Object]
	Stations Pool[Station]
	Plans    Pool[Plan]
	Signals  []SignalProgram
	Debug    DebugLog
}

// New returns an empty world.
func New() *World { return &World{} }

// LinkObjects resolves every object's StationID to its station.
func (w *World) LinkObjects() error {
	for i, o := range w.Objects.All() {
		o.Station = nil
		if o.StationID == NoStation {
			continue
		}
		st := w.Stations.Get(int(o.StationID))
		if st == nil {
			return fmt.Errorf("object %d references missing station %d", i, o.StationID)
		}
		o.Station = st
	}
	return nil
}
