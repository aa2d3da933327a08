package world

import "fmt"

// hash32 is a murmur style finaliser; stable across releases so generated
// worlds are reproducible from their seed.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

func hash2(seed, x, y uint32) uint32 {
	h := seed
	h ^= x * 0x9e3779b1
	h ^= y * 0x85ebca6b
	return hash32(h)
}

// GenerateOptions size the demo content.
type GenerateOptions struct {
	SizeX, SizeY uint32
	Seed         uint32
	Stations     int
	Objects      int
	Plans        int
	Signals      int
}

// DefaultGenerateOptions is a small 64x64 world.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{SizeX: 64, SizeY: 64, Seed: 1, Stations: 8, Objects: 24, Plans: 3, Signals: 4}
}

var stationNames = []string{"Amberley", "Bruton", "Castell Coch", "Dunwich", "Eyam", "Fécamp", "Gorran", "Hythe"}

// Generate builds a deterministic world for demos, benchmarks and tests.
func Generate(opts GenerateOptions) (*World, error) {
	w := New()
	if err := w.Map.Allocate(opts.SizeX, opts.SizeY); err != nil {
		return nil, err
	}
	if opts.Stations > MaxPoolSize || opts.Objects > MaxPoolSize || opts.Plans > MaxPoolSize {
		return nil, fmt.Errorf("%w: pool sizes %d/%d/%d", ErrPoolIndex, opts.Stations, opts.Objects, opts.Plans)
	}
	seed := opts.Seed
	tiles := uint32(w.Map.Tiles())

	for y := uint32(0); y < opts.SizeY; y++ {
		for x := uint32(0); x < opts.SizeX; x++ {
			i := w.Map.TileIndex(x, y)
			h := hash2(seed, x, y)
			w.Map.Type[i] = uint8(h % 10)
			w.Map.Height[i] = uint16(h>>8) % 256
		}
	}

	w.Date = Date{
		Calendar:    730000 + int32(seed%365),
		TickCounter: uint64(hash32(seed)) << 8,
		TickSkip:    uint8(1 + seed%4),
	}

	for i := range opts.Stations {
		st, _ := w.Stations.GetOrCreate(i)
		h := hash2(seed, uint32(i), 1)
		*st = Station{
			ID:         uint16(i),
			Name:       stationNames[i%len(stationNames)],
			XY:         h % tiles,
			Owner:      uint8(h % 8),
			Facilities: uint8(1 + h%15),
			BuildDate:  w.Date.Calendar - int32(h%5000),
		}
		for c := range int(h % 4) {
			g := GoodsEntry{Cargo: uint8(c), Status: uint8((h >> c) & 3), Rating: uint8(h >> (8 + c))}
			for f := range int(hash2(seed, uint32(i), uint32(c)) % 3) {
				g.Flows = append(g.Flows, FlowStat{
					Via:        uint16((i + f + 1) % opts.Stations),
					Share:      hash2(seed, uint32(c), uint32(f)) % 1000,
					Restricted: f%2 == 1,
				})
			}
			st.Goods = append(st.Goods, g)
		}
	}

	for i := range opts.Objects {
		o, _ := w.Objects.GetOrCreate(i)
		h := hash2(seed, uint32(i), 2)
		*o = Object{
			ID:        uint16(i),
			Type:      uint16(h % 40),
			Location:  h % tiles,
			Width:     uint8(1 + h%3),
			Height:    uint8(1 + (h>>4)%3),
			BuildDate: w.Date.Calendar - int32(h%2000),
			Colour:    uint8((h >> 12) % 16),
			StationID: NoStation,
		}
		if opts.Stations > 0 && h%3 != 0 {
			o.StationID = uint16(h % uint32(opts.Stations))
		}
	}
	if err := w.LinkObjects(); err != nil {
		return nil, err
	}

	for i := range opts.Plans {
		p, _ := w.Plans.GetOrCreate(i)
		h := hash2(seed, uint32(i), 3)
		*p = Plan{ID: uint16(i), Owner: uint8(h % 8), Visible: h%2 == 0, Name: fmt.Sprintf("Plan %d", i+1)}
		for l := range int(1 + h%3) {
			line := PlanLine{Visible: l%2 == 0, Colour: uint8(h>>l) % 16}
			for k := range int(2 + hash2(seed, uint32(i), uint32(l))%6) {
				line.Tiles = append(line.Tiles, hash2(seed, uint32(l), uint32(k))%tiles)
			}
			p.Lines = append(p.Lines, line)
		}
	}

	for i := range opts.Signals {
		h := hash2(seed, uint32(i), 4)
		sp := SignalProgram{Tile: h % tiles, Track: uint8(h % 6), Style: uint8(h>>3) % 3}
		for k := range int(h % 5) {
			sp.Instructions = append(sp.Instructions, Instruction{Op: uint8(k + 1), Arg: hash2(seed, uint32(i), uint32(k))})
		}
		w.Signals = append(w.Signals, sp)
	}

	w.Debug.Log = fmt.Appendf(nil, "generated %dx%d seed %d\n", opts.SizeX, opts.SizeY, seed)
	return w, nil
}
