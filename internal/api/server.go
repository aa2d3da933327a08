// Package api serves a save store over HTTP: listing, summaries, throttled
// downloads and validated uploads.
package api

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/savestore"
	"github.com/samcharles93/tilesave/internal/version"
)

// Config configures a Server.
type Config struct {
	Store *savestore.Store
	// DownloadRate caps each download in bytes per second; zero is unlimited.
	DownloadRate int
	Metrics      *Metrics
	Log          logger.Logger
}

type Server struct {
	store   *savestore.Store
	rate    int
	metrics *Metrics
	log     logger.Logger
}

func NewServer(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	return &Server{
		store:   cfg.Store,
		rate:    cfg.DownloadRate,
		metrics: cfg.Metrics,
		log:     cfg.Log.With("component", "api"),
	}
}

func (s *Server) Register(e *echo.Echo) {
	m := s.metrics
	e.GET("/v1/saves", m.instrument("list", s.handleList))
	e.GET("/v1/saves/:name", m.instrument("info", s.handleInfo))
	e.GET("/v1/saves/:name/download", m.instrument("download", s.handleDownload))
	e.PUT("/v1/saves/:name", m.instrument("upload", s.handleUpload))
	e.DELETE("/v1/saves/:name", m.instrument("delete", s.handleDelete))
	e.GET("/v1/version", m.instrument("version", s.handleVersion))
	e.GET("/metrics", func(c *echo.Context) error {
		m.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})
}

func writeJSON(c *echo.Context, status int, v any) error {
	c.Set(statusKey, status)
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	return json.NewEncoder(res).Encode(v)
}

// saveName is the unescaped :name parameter. A malformed escape is left as is
// and fails name validation in the store.
func saveName(c *echo.Context) string {
	raw := c.Param("name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func (s *Server) writeError(c *echo.Context, err error) error {
	status, typ := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}
	return writeJSON(c, status, ErrorResponse{Error: ErrorBody{Message: err.Error(), Type: typ}})
}

func (s *Server) handleList(c *echo.Context) error {
	list, err := s.store.List(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	if list == nil {
		list = []savestore.Info{}
	}
	return writeJSON(c, http.StatusOK, ListResponse{Object: "list", Data: list})
}

func (s *Server) handleInfo(c *echo.Context) error {
	info, err := s.store.Info(c.Request().Context(), saveName(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return writeJSON(c, http.StatusOK, info)
}

func (s *Server) handleDownload(c *echo.Context) error {
	name := saveName(c)
	f, err := s.store.Open(name)
	if err != nil {
		return s.writeError(c, err)
	}
	defer func() { _ = f.Close() }()

	c.Set(statusKey, http.StatusOK)
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
	res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(f.Size(), 10))
	res.Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	res.WriteHeader(http.StatusOK)

	w := newThrottledWriter(c.Request().Context(), res, s.rate)
	n, err := io.Copy(w, f.Reader())
	s.metrics.TransferBytes.WithLabelValues("download").Add(float64(n))
	if err != nil {
		// Headers are gone; the client sees a short body.
		s.log.Warn("download interrupted", "name", name, "sent", n, "error", err)
	}
	return nil
}

func (s *Server) handleUpload(c *echo.Context) error {
	name := saveName(c)
	body := &countingReader{r: c.Request().Body}
	info, err := s.store.Put(c.Request().Context(), name, body)
	s.metrics.TransferBytes.WithLabelValues("upload").Add(float64(body.n))
	if err != nil {
		s.metrics.RejectedUploads.WithLabelValues(rejectReason(err)).Inc()
		s.log.Info("upload rejected", "name", name, "error", err)
		return s.writeError(c, err)
	}
	return writeJSON(c, http.StatusCreated, info)
}

func (s *Server) handleDelete(c *echo.Context) error {
	if err := s.store.Delete(saveName(c)); err != nil {
		return s.writeError(c, err)
	}
	c.Set(statusKey, http.StatusNoContent)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleVersion(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, version.Resolve())
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
