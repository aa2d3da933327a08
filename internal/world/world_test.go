package world

import (
	"errors"
	"reflect"
	"testing"
)

func TestPoolStableIndexes(t *testing.T) {
	t.Parallel()

	var p Pool[Station]
	for _, i := range []int{5, 0, 9} {
		st, err := p.GetOrCreate(i)
		if err != nil {
			t.Fatalf("GetOrCreate(%d): %v", i, err)
		}
		st.ID = uint16(i)
	}
	again, _ := p.GetOrCreate(5)
	if again.ID != 5 || p.Len() != 3 {
		t.Fatalf("pool reallocated slot 5 or miscounted: id %d len %d", again.ID, p.Len())
	}
	if p.Get(3) != nil || p.Get(-1) != nil || p.Get(100) != nil {
		t.Fatal("empty slots must be nil")
	}

	var order []int
	for i := range p.All() {
		order = append(order, i)
	}
	if !reflect.DeepEqual(order, []int{0, 5, 9}) {
		t.Fatalf("iteration order = %v", order)
	}

	p.Delete(9)
	p.Delete(9)
	if p.Len() != 2 || p.Get(9) != nil {
		t.Fatalf("delete: len %d", p.Len())
	}

	if _, err := p.GetOrCreate(MaxPoolSize); !errors.Is(err, ErrPoolIndex) {
		t.Fatalf("expected ErrPoolIndex, got %v", err)
	}
}

func TestValidMapSize(t *testing.T) {
	t.Parallel()
	for n, want := range map[uint32]bool{8: false, 16: true, 48: false, 64: true, 16384: true, 32768: false} {
		if got := ValidMapSize(n); got != want {
			t.Errorf("ValidMapSize(%d) = %t", n, got)
		}
	}
	var m Map
	if err := m.Allocate(64, 24); !errors.Is(err, ErrMapSize) {
		t.Fatalf("expected ErrMapSize, got %v", err)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	opts := DefaultGenerateOptions()
	a, err := Generate(opts)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := Generate(opts)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different worlds")
	}
	opts.Seed++
	c, _ := Generate(opts)
	if reflect.DeepEqual(a.Map.Type, c.Map.Type) {
		t.Fatal("different seeds produced identical maps")
	}

	if a.Map.Tiles() != 64*64 || len(a.Map.Height) != 64*64 {
		t.Fatalf("map arrays sized %d/%d", len(a.Map.Type), len(a.Map.Height))
	}
	if a.Stations.Len() != opts.Stations || a.Objects.Len() != opts.Objects {
		t.Fatalf("pool sizes %d/%d", a.Stations.Len(), a.Objects.Len())
	}
}

func TestLinkObjects(t *testing.T) {
	t.Parallel()

	w := New()
	st, _ := w.Stations.GetOrCreate(4)
	st.Name = "Hythe"
	linked, _ := w.Objects.GetOrCreate(0)
	linked.StationID = 4
	free, _ := w.Objects.GetOrCreate(1)
	free.StationID = NoStation

	if err := w.LinkObjects(); err != nil {
		t.Fatalf("link: %v", err)
	}
	if linked.Station != st || free.Station != nil {
		t.Fatal("objects linked to the wrong stations")
	}

	dangling, _ := w.Objects.GetOrCreate(2)
	dangling.StationID = 7
	if err := w.LinkObjects(); err == nil {
		t.Fatal("expected a dangling station reference to fail")
	}
}
