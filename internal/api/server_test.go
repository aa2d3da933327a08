package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/savestore"
	"github.com/samcharles93/tilesave/internal/world"
)

type testServer struct {
	e       *echo.Echo
	store   *savestore.Store
	metrics *Metrics
}

func newTestServer(t *testing.T, rate int) testServer {
	t.Helper()
	store, err := savestore.Open(savestore.Options{Dir: t.TempDir(), MaxUpload: 1 << 20})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	m := NewMetrics(nil)
	e := echo.New()
	NewServer(Config{Store: store, DownloadRate: rate, Metrics: m}).Register(e)
	return testServer{e: e, store: store, metrics: m}
}

func (ts testServer) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func saveBytes(t *testing.T) []byte {
	t.Helper()
	w, err := world.Generate(world.DefaultGenerateOptions())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var buf bytes.Buffer
	if err := chunks.Save(context.Background(), &buf, w, sl.SaveOptions{Compression: "zlib"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	return buf.Bytes()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestUploadListDownloadDelete(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, 0)
	data := saveBytes(t)

	rec := ts.do(t, http.MethodPut, "/v1/saves/game.sav", bytes.NewReader(data))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status: got %d body=%s", rec.Code, rec.Body.String())
	}
	info := decode[savestore.Info](t, rec)
	if info.Name != "game.sav" || info.MapSizeX != 64 || info.Compression != "zlib" {
		t.Fatalf("unexpected info %+v", info)
	}

	rec = ts.do(t, http.MethodGet, "/v1/saves", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d", rec.Code)
	}
	list := decode[ListResponse](t, rec)
	if list.Object != "list" || len(list.Data) != 1 || list.Data[0].Name != "game.sav" {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = ts.do(t, http.MethodGet, "/v1/saves/game.sav", nil)
	if rec.Code != http.StatusOK || decode[savestore.Info](t, rec).Size != int64(len(data)) {
		t.Fatalf("info: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/v1/saves/game.sav/download", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status: got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Fatal("downloaded bytes differ")
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != echo.MIMEOctetStream {
		t.Fatalf("content type %q", got)
	}

	rec = ts.do(t, http.MethodDelete, "/v1/saves/game.sav", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/v1/saves/game.sav", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("info after delete: got %d", rec.Code)
	}

	if got := testutil.ToFloat64(ts.metrics.TransferBytes.WithLabelValues("download")); got != float64(len(data)) {
		t.Fatalf("download bytes metric %v", got)
	}
	if got := testutil.ToFloat64(ts.metrics.Requests.WithLabelValues("upload", "201")); got != 1 {
		t.Fatalf("upload request metric %v", got)
	}
}

func TestUploadRejectsCorruptSave(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, 0)
	data := saveBytes(t)
	rec := ts.do(t, http.MethodPut, "/v1/saves/bad.sav", bytes.NewReader(data[:len(data)/2]))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode[ErrorResponse](t, rec)
	if body.Error.Type != TypeInvalidSave {
		t.Fatalf("error type %q", body.Error.Type)
	}
	if got := testutil.ToFloat64(ts.metrics.RejectedUploads.WithLabelValues("corrupt")); got != 1 {
		t.Fatalf("rejected metric %v", got)
	}

	rec = ts.do(t, http.MethodGet, "/v1/saves", nil)
	if list := decode[ListResponse](t, rec); len(list.Data) != 0 {
		t.Fatalf("rejected upload listed: %+v", list.Data)
	}
}

func TestErrorStatuses(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, 0)
	tests := []struct {
		method string
		path   string
		body   io.Reader
		want   int
	}{
		{http.MethodGet, "/v1/saves/missing.sav", nil, http.StatusNotFound},
		{http.MethodGet, "/v1/saves/missing.sav/download", nil, http.StatusNotFound},
		{http.MethodGet, "/v1/saves/notes.txt", nil, http.StatusBadRequest},
		{http.MethodDelete, "/v1/saves/missing.sav", nil, http.StatusNotFound},
		{http.MethodPut, "/v1/saves/.hidden.sav", strings.NewReader("x"), http.StatusBadRequest},
		{http.MethodPut, "/v1/saves/huge.sav", bytes.NewReader(make([]byte, 2<<20)), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		rec := ts.do(t, tt.method, tt.path, tt.body)
		if rec.Code != tt.want {
			t.Fatalf("%s %s: got %d want %d body=%s", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestEscapedNames(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, 0)
	rec := ts.do(t, http.MethodPut, "/v1/saves/my%20game.sav", bytes.NewReader(saveBytes(t)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if info := decode[savestore.Info](t, rec); info.Name != "my game.sav" {
		t.Fatalf("stored as %q", info.Name)
	}
}

func TestThrottledDownload(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, 0)
	data := saveBytes(t)
	if _, err := ts.store.Put(context.Background(), "slow.sav", bytes.NewReader(data)); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Half the save per second with a burst of the same size: at least one wait.
	rate := len(data) / 2
	throttled := newTestServerOn(t, ts.store, rate)
	start := time.Now()
	rec := httptest.NewRecorder()
	throttled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/saves/slow.sav/download", nil))
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), data) {
		t.Fatalf("download: %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Fatalf("download not throttled: %v", elapsed)
	}
}

func newTestServerOn(t *testing.T, store *savestore.Store, rate int) *echo.Echo {
	t.Helper()
	e := echo.New()
	NewServer(Config{Store: store, DownloadRate: rate}).Register(e)
	return e
}

func TestThrottledWriterHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	w := newThrottledWriter(ctx, &out, 16)
	if n, err := w.Write(make([]byte, 16)); err != nil || n != 16 {
		t.Fatalf("first write: %d, %v", n, err)
	}
	cancel()
	if _, err := w.Write(make([]byte, 16)); err == nil {
		t.Fatal("expected cancelled write to fail")
	}
	if newThrottledWriter(ctx, &out, 0) != io.Writer(&out) {
		t.Fatal("zero rate must not wrap the writer")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, 0)
	ts.do(t, http.MethodGet, "/v1/saves", nil)
	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `tilesave_http_requests_total{code="200",route="list"} 1`) {
		t.Fatalf("metrics body missing request counter:\n%s", rec.Body.String())
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, 0)
	rec := ts.do(t, http.MethodGet, "/v1/version", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"version"`) {
		t.Fatalf("version: %d %s", rec.Code, rec.Body.String())
	}
}
