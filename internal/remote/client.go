// Package remote is the client of the save transfer service.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/api"
	"github.com/samcharles93/tilesave/internal/savestore"
	"github.com/samcharles93/tilesave/internal/version"
)

var ErrNotFound = errors.New("remote: save not found")

// Error is a failed request as the service reported it.
type Error struct {
	Status  int
	Type    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("remote: %d %s: %s", e.Status, e.Type, e.Message)
}

// Unwrap maps the error type back to the sentinel the service started from.
func (e *Error) Unwrap() error {
	switch e.Type {
	case api.TypeNotFound:
		return ErrNotFound
	case api.TypeInvalidSave:
		return sl.ErrCorruptFormat
	case api.TypeTooLarge:
		return savestore.ErrTooLarge
	case api.TypeInvalidRequest:
		return savestore.ErrInvalidName
	}
	return nil
}

// Options configure a Client.
type Options struct {
	Timeout time.Duration
	// Retries is the number of extra attempts for idempotent requests.
	Retries int
	// HTTPClient replaces the default transport, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	r *resty.Client
}

// New returns a client of the service at baseURL.
func New(baseURL string, opts Options) *Client {
	var r *resty.Client
	if opts.HTTPClient != nil {
		r = resty.NewWithClient(opts.HTTPClient)
	} else {
		r = resty.New()
	}
	if opts.Timeout > 0 {
		r.SetTimeout(opts.Timeout)
	}
	r.JSONMarshal = json.Marshal
	r.JSONUnmarshal = json.Unmarshal
	r.SetBaseURL(baseURL).
		SetHeader("User-Agent", "tilesave/"+version.Resolve().Version).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// Upload bodies are streamed once.
			if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{r: r}
}

func savePath(name string, suffix string) string {
	return "/v1/saves/" + url.PathEscape(name) + suffix
}

func apiError(resp *resty.Response) error {
	e := &Error{Status: resp.StatusCode()}
	var body api.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		e.Type, e.Message = body.Error.Type, body.Error.Message
	}
	return e
}

// List returns the saves on the service.
func (c *Client) List(ctx context.Context) ([]savestore.Info, error) {
	var out api.ListResponse
	resp, err := c.r.R().SetContext(ctx).SetResult(&out).Get("/v1/saves")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return out.Data, nil
}

// Info returns the summary of one save. Check on the service side is what
// produced it; Info.Err is set for saves that failed.
func (c *Client) Info(ctx context.Context, name string) (savestore.Info, error) {
	var out savestore.Info
	resp, err := c.r.R().SetContext(ctx).SetResult(&out).Get(savePath(name, ""))
	if err != nil {
		return savestore.Info{}, err
	}
	if resp.IsError() {
		return savestore.Info{}, apiError(resp)
	}
	return out, nil
}

// Pull streams the save called name into w.
func (c *Client) Pull(ctx context.Context, name string, w io.Writer) (int64, error) {
	resp, err := c.r.R().SetContext(ctx).SetDoNotParseResponse(true).Get(savePath(name, "/download"))
	if err != nil {
		return 0, err
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()
	if resp.StatusCode() >= http.StatusBadRequest {
		e := &Error{Status: resp.StatusCode()}
		var eb api.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&eb); err == nil {
			e.Type, e.Message = eb.Error.Type, eb.Error.Message
		}
		return 0, e
	}
	return io.Copy(w, body)
}

// Push uploads the save read from r under name. The service checks it before
// publishing.
func (c *Client) Push(ctx context.Context, name string, r io.Reader) (savestore.Info, error) {
	var out savestore.Info
	resp, err := c.r.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(r).
		SetResult(&out).
		Put(savePath(name, ""))
	if err != nil {
		return savestore.Info{}, err
	}
	if resp.IsError() {
		return savestore.Info{}, apiError(resp)
	}
	return out, nil
}

// Delete removes a save from the service.
func (c *Client) Delete(ctx context.Context, name string) error {
	resp, err := c.r.R().SetContext(ctx).Delete(savePath(name, ""))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

// Version returns the build of the service.
func (c *Client) Version(ctx context.Context) (version.Info, error) {
	var out version.Info
	resp, err := c.r.R().SetContext(ctx).SetResult(&out).Get("/v1/version")
	if err != nil {
		return version.Info{}, err
	}
	if resp.IsError() {
		return version.Info{}, apiError(resp)
	}
	return out, nil
}
