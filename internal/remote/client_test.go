package remote

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v5"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/api"
	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/savestore"
	"github.com/samcharles93/tilesave/internal/world"
)

func newService(t *testing.T) (*Client, *savestore.Store) {
	t.Helper()
	store, err := savestore.Open(savestore.Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	e := echo.New()
	api.NewServer(api.Config{Store: store}).Register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return New(srv.URL, Options{Timeout: 10 * time.Second}), store
}

func saveBytes(t *testing.T, v sl.Version) []byte {
	t.Helper()
	w, err := world.Generate(world.DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var buf bytes.Buffer
	if err := chunks.Save(context.Background(), &buf, w, sl.SaveOptions{Version: v}); err != nil {
		t.Fatalf("save: %v", err)
	}
	return buf.Bytes()
}

func TestPushPullRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newService(t)
	data := saveBytes(t, chunks.VUTF8Strings)

	info, err := c.Push(ctx, "shared game.sav", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if info.Name != "shared game.sav" || info.Version != uint16(chunks.VUTF8Strings) || !info.OK() {
		t.Fatalf("unexpected info %+v", info)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].MapSizeX != 64 {
		t.Fatalf("unexpected list %+v", list)
	}

	var out bytes.Buffer
	n, err := c.Pull(ctx, "shared game.sav", &out)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if n != int64(len(data)) || !bytes.Equal(out.Bytes(), data) {
		t.Fatal("pulled bytes differ")
	}

	got, err := c.Info(ctx, "shared game.sav")
	if err != nil || got.Size != int64(len(data)) {
		t.Fatalf("info = %+v, %v", got, err)
	}

	if err := c.Delete(ctx, "shared game.sav"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Info(ctx, "shared game.sav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPushRejectedSave(t *testing.T) {
	t.Parallel()

	c, _ := newService(t)
	data := saveBytes(t, 0)
	_, err := c.Push(context.Background(), "cut.sav", bytes.NewReader(data[:len(data)-1]))
	if !errors.Is(err, sl.ErrCorruptFormat) {
		t.Fatalf("expected corrupt format, got %v", err)
	}
	var re *Error
	if !errors.As(err, &re) || re.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestPullMissing(t *testing.T) {
	t.Parallel()

	c, _ := newService(t)
	var out bytes.Buffer
	if _, err := c.Pull(context.Background(), "none.sav", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatal("error body written to the destination")
	}
	if _, err := c.Push(context.Background(), "notes.txt", bytes.NewReader(nil)); !errors.Is(err, savestore.ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}

func TestRetriesServerErrorsOnReads(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"name":"a.sav","size":3}]}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, Options{Retries: 2})
	list, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "a.sav" || calls.Load() != 2 {
		t.Fatalf("list %+v after %d calls", list, calls.Load())
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	c, _ := newService(t)
	info, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if info.Version == "" {
		t.Fatal("empty version")
	}
}
