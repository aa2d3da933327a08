package savestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/world"
)

func openStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	s, err := Open(opts)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func demoWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.Generate(world.DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return w
}

func encodedSave(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := chunks.Save(context.Background(), &buf, demoWorld(t), sl.SaveOptions{Compression: "zlib"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	return buf.Bytes()
}

func noTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"autosave.sav", true},
		{"Fécamp 1950.sav", true},
		{".sav", false},
		{".hidden.sav", false},
		{"game.txt", false},
		{"../escape.sav", false},
		{"dir/game.sav", false},
		{`dir\game.sav`, false},
		{"", false},
		{strings.Repeat("a", 200) + ".sav", false},
	}
	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Fatalf("ValidName(%q) = %t, want %t", tt.name, got, tt.want)
		}
	}
}

func TestSaveListLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t, Options{})
	w := demoWorld(t)

	info, err := s.Save(ctx, "alpha.sav", w, sl.SaveOptions{Compression: "zlib"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !info.OK() || info.MapSizeX != 64 || info.MapSizeY != 64 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Version != uint16(chunks.Format.Current) || info.Compression != "zlib" {
		t.Fatalf("header %d %s", info.Version, info.Compression)
	}
	if _, err := s.Save(ctx, "beta.sav", w, sl.SaveOptions{Version: chunks.VInitial}); err != nil {
		t.Fatalf("save v1: %v", err)
	}
	noTempFiles(t, s.Dir())

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "alpha.sav" || list[1].Name != "beta.sav" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[1].Version != uint16(chunks.VInitial) {
		t.Fatalf("beta version %d", list[1].Version)
	}

	got, sum, err := s.Load(ctx, "alpha.sav")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sum.Version != chunks.Format.Current {
		t.Fatalf("summary version %d", sum.Version)
	}
	if got.Stations.Len() != w.Stations.Len() || got.Objects.Len() != w.Objects.Len() {
		t.Fatalf("loaded %d stations %d objects", got.Stations.Len(), got.Objects.Len())
	}
	if !bytes.Equal(got.Map.Type, w.Map.Type) {
		t.Fatal("tile types differ")
	}
}

func TestMissingSave(t *testing.T) {
	t.Parallel()

	s := openStore(t, Options{})
	if _, err := s.Info(context.Background(), "none.sav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := s.Load(context.Background(), "none.sav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete("none.sav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Open("../x.sav"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}

func TestPutValidatesBeforePublishing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t, Options{})
	good := encodedSave(t)

	if _, err := s.Put(ctx, "upload.sav", bytes.NewReader(good)); err != nil {
		t.Fatalf("put: %v", err)
	}

	bad := bytes.Clone(good)
	bad = bad[:len(bad)-3]
	_, err := s.Put(ctx, "upload.sav", bytes.NewReader(bad))
	if !errors.Is(err, sl.ErrCorruptFormat) {
		t.Fatalf("expected corrupt format, got %v", err)
	}
	noTempFiles(t, s.Dir())

	stored, err := os.ReadFile(filepath.Join(s.Dir(), "upload.sav"))
	if err != nil {
		t.Fatalf("read stored: %v", err)
	}
	if !bytes.Equal(stored, good) {
		t.Fatal("rejected upload replaced the stored save")
	}

	if _, err := s.Put(ctx, "fresh.sav", strings.NewReader("not a save")); err == nil {
		t.Fatal("expected invalid upload to fail")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "fresh.sav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rejected upload was published: %v", err)
	}
}

func TestPutEnforcesMaxUpload(t *testing.T) {
	t.Parallel()

	good := encodedSave(t)
	s := openStore(t, Options{MaxUpload: int64(len(good) - 1)})
	if _, err := s.Put(context.Background(), "big.sav", bytes.NewReader(good)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
	noTempFiles(t, s.Dir())

	s2 := openStore(t, Options{MaxUpload: int64(len(good))})
	if _, err := s2.Put(context.Background(), "fits.sav", bytes.NewReader(good)); err != nil {
		t.Fatalf("put at the limit: %v", err)
	}
}

func TestInfoReportsCorruptSave(t *testing.T) {
	t.Parallel()

	s := openStore(t, Options{})
	good := encodedSave(t)
	if err := os.WriteFile(filepath.Join(s.Dir(), "broken.sav"), good[:20], 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := s.Info(context.Background(), "broken.sav")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.OK() || info.Size != 20 {
		t.Fatalf("expected a failed check, got %+v", info)
	}

	// A rewrite changes size and mtime, so the cached failure is not reused.
	if err := os.WriteFile(filepath.Join(s.Dir(), "broken.sav"), good, 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	info, err = s.Info(context.Background(), "broken.sav")
	if err != nil || !info.OK() {
		t.Fatalf("after rewrite: %+v, %v", info, err)
	}
}

func TestCachePersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want, err := s.Save(ctx, "keep.sav", demoWorld(t), sl.SaveOptions{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, CacheFile)); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	s = openStore(t, Options{Dir: dir})
	if !s.cached("keep.sav") {
		t.Fatal("cache entry not restored")
	}
	got, err := s.Info(ctx, "keep.sav")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if got.MapSizeX != want.MapSizeX || len(got.Chunks) != len(want.Chunks) || !got.ModTime.Equal(want.ModTime) {
		t.Fatalf("cached info %+v, want %+v", got, want)
	}
}

func TestCorruptCacheIsDiscarded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, CacheFile), []byte{0xc1, 0xff, 0x00}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := openStore(t, Options{Dir: dir})
	list, err := s.List(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestDeleteDropsCacheEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t, Options{})
	if _, err := s.Save(ctx, "gone.sav", demoWorld(t), sl.SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete("gone.sav"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.cached("gone.sav") {
		t.Fatal("cache entry kept after delete")
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestWatcherInvalidatesExternalChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openStore(t, Options{Watch: true})
	if _, err := s.Save(ctx, "watched.sav", demoWorld(t), sl.SaveOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Info(ctx, "watched.sav"); err != nil {
		t.Fatalf("info: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !s.cached("watched.sav") {
		if time.Now().After(deadline) {
			t.Fatal("entry never cached")
		}
		// The rename event of the save itself may still be in flight.
		if _, err := s.Info(ctx, "watched.sav"); err != nil {
			t.Fatalf("info: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := os.Remove(filepath.Join(s.Dir(), "watched.sav")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for s.cached("watched.sav") {
		if time.Now().After(deadline) {
			t.Fatal("external removal did not invalidate the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := encodedSave(t)
	p := filepath.Join(dir, "m.sav")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := OpenFile(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.Size() != int64(len(data)) || !bytes.Equal(f.Data, data) {
		t.Fatal("mapped content differs")
	}
	if _, err := chunks.Check(context.Background(), f.Reader(), sl.LoadOptions{}); err != nil {
		t.Fatalf("check mapped: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	empty := filepath.Join(dir, "empty.sav")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err = OpenFile(empty)
	if err != nil || f.Size() != 0 {
		t.Fatalf("empty file: %v", err)
	}
	_ = f.Close()
}

func TestSaveAfterClose(t *testing.T) {
	t.Parallel()

	s, err := Open(Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Save(context.Background(), "late.sav", demoWorld(t), sl.SaveOptions{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
}

func TestCacheCodecRoundTrip(t *testing.T) {
	t.Parallel()

	mtime := time.Unix(1700000000, 123456789)
	in := map[string]Info{
		"a.sav": {
			Name:        "a.sav",
			Size:        4096,
			ModTime:     mtime,
			ModNanos:    mtime.UnixNano(),
			Version:     9,
			Compression: "zlib",
			Features:    map[string]uint16{"plans": 2, "day_length": 1},
			MapSizeX:    64,
			MapSizeY:    32,
			Chunks:      []ChunkStat{{Tag: "MAPS", Type: "riff", Bytes: 8}, {Tag: "STNN", Type: "table", Bytes: 120, Rows: 3}},
		},
		"bad.sav": {Name: "bad.sav", Size: 3, ModNanos: 1, Err: "corrupt savegame"},
	}
	var buf bytes.Buffer
	if err := encodeCache(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decodeCache(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out["a.sav"].ModTime.Equal(mtime) {
		t.Fatalf("mod time %v, want %v", out["a.sav"].ModTime, mtime)
	}
	for name, info := range out {
		info.ModTime = time.Time{}
		out[name] = info
		want := in[name]
		want.ModTime = time.Time{}
		if !reflect.DeepEqual(info, want) {
			t.Fatalf("%s: decoded %+v, want %+v", name, info, want)
		}
	}
}

func TestWriteFileAtomicKeepsOldContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "game.sav")
	if err := os.WriteFile(p, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	boom := errors.New("boom")

	err := WriteFileAtomic(p, func(f *os.File) error {
		_, _ = f.WriteString("partial")
		return boom
	}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("fill error: got %v", err)
	}
	err = WriteFileAtomic(p, func(f *os.File) error {
		_, err := f.WriteString("new")
		return err
	}, func(string) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("validate error: got %v", err)
	}
	if got, _ := os.ReadFile(p); string(got) != "old" {
		t.Fatalf("content after failed writes = %q", got)
	}

	if err := WriteFileAtomic(p, func(f *os.File) error {
		_, err := f.WriteString("new")
		return err
	}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, _ := os.ReadFile(p); string(got) != "new" {
		t.Fatalf("content = %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %d entries", len(entries))
	}
}
