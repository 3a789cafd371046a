// Package httpapi implements library.API over the server's JSON REST API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/library"
)

const maxErrorBody = 64 << 10

// Config for a Client. Only BaseURL is required.
type Config struct {
	BaseURL string // e.g. "http://localhost:10801/api"
	Token   string // bearer token; empty => no Authorization header
	Timeout time.Duration

	// RatePerSec > 0 paces requests; Burst defaults to 1.
	RatePerSec float64
	Burst      int

	HTTPClient *http.Client // nil => &http.Client{Timeout: Timeout}
	Logger     querycache.Logger
}

// Client is the HTTP wrapper for the library server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        querycache.Logger
}

var _ library.API = (*Client)(nil)

// TransportError means no usable response was obtained.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewClient creates a new client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("httpapi: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("httpapi: invalid base url: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: cfg.HTTPClient,
		log:        cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if c.log == nil {
		c.log = querycache.NopLogger{}
	}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return c, nil
}

// apiError is the server's error body.
type apiError struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

// do sends one request. A response with any status yields a nil error; the
// body is decoded into T only for 2xx statuses.
func do[T any](ctx context.Context, c *Client, op, method, path string, in any) (library.Envelope[T], error) {
	var env library.Envelope[T]
	u := c.baseURL + path

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return env, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return env, &TransportError{Op: op, Method: method, URL: u, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return env, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return env, &TransportError{Op: op, Method: method, URL: u, Err: err}
	}
	defer resp.Body.Close()
	env.Status = resp.StatusCode
	c.log.Debug("api call", querycache.Fields{
		"op":      op,
		"method":  method,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		env.Message = errorMessage(raw)
		return env, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, &TransportError{Op: op, Method: method, URL: u, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, &env.Data); err != nil {
		return env, &TransportError{Op: op, Method: method, URL: u, Err: fmt.Errorf("decode response: %w", err)}
	}
	return env, nil
}

func errorMessage(raw []byte) string {
	var ae apiError
	if err := json.Unmarshal(raw, &ae); err == nil && (ae.Details != "" || ae.Code != "") {
		if ae.Details == "" {
			return ae.Code
		}
		return ae.Details
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) Libraries(ctx context.Context) (library.Envelope[library.Page[[]library.Library]], error) {
	return do[library.Page[[]library.Library]](ctx, c, "getLibraries", http.MethodGet, "/libraries?unpaged=true", nil)
}

func (c *Client) Library(ctx context.Context, id string) (library.Envelope[library.Library], error) {
	return do[library.Library](ctx, c, "getLibraryById", http.MethodGet, "/libraries/"+url.PathEscape(id), nil)
}

func (c *Client) LibrarySeries(ctx context.Context, id string, page int) (library.Envelope[library.Page[[]library.Series]], error) {
	path := "/libraries/" + url.PathEscape(id) + "/series?page=" + strconv.Itoa(page)
	return do[library.Page[[]library.Series]](ctx, c, "getLibrarySeries", http.MethodGet, path, nil)
}

func (c *Client) LibrariesStats(ctx context.Context) (library.Envelope[library.LibrariesStats], error) {
	return do[library.LibrariesStats](ctx, c, "getLibrariesStats", http.MethodGet, "/libraries/stats", nil)
}

func (c *Client) ScanLibrary(ctx context.Context, id string) (library.Envelope[struct{}], error) {
	return do[struct{}](ctx, c, "scanLibrary", http.MethodGet, "/libraries/"+url.PathEscape(id)+"/scan", nil)
}

func (c *Client) DeleteLibrary(ctx context.Context, id string) (library.Envelope[struct{}], error) {
	return do[struct{}](ctx, c, "deleteLibrary", http.MethodDelete, "/libraries/"+url.PathEscape(id), nil)
}

func (c *Client) CreateLibrary(ctx context.Context, args library.CreateLibraryArgs) (library.Envelope[library.Library], error) {
	return do[library.Library](ctx, c, "createLibrary", http.MethodPost, "/libraries", args)
}

func (c *Client) UpdateLibrary(ctx context.Context, args library.UpdateLibraryArgs) (library.Envelope[library.Library], error) {
	return do[library.Library](ctx, c, "updateLibrary", http.MethodPut, "/libraries/"+url.PathEscape(args.ID), args)
}

func (c *Client) AllTags(ctx context.Context) (library.Envelope[[]library.Tag], error) {
	return do[[]library.Tag](ctx, c, "getAllTags", http.MethodGet, "/tags", nil)
}

// CreateTags creates every name in one request.
func (c *Client) CreateTags(ctx context.Context, names []string) (library.Envelope[[]library.Tag], error) {
	return do[[]library.Tag](ctx, c, "createTags", http.MethodPost, "/tags", struct {
		Tags []string `json:"tags"`
	}{Tags: names})
}

func (c *Client) JobReports(ctx context.Context) (library.Envelope[[]library.JobReport], error) {
	return do[[]library.JobReport](ctx, c, "getJobReports", http.MethodGet, "/jobs", nil)
}

func (c *Client) LogFileMeta(ctx context.Context) (library.Envelope[library.LogFileMeta], error) {
	return do[library.LogFileMeta](ctx, c, "getLogFileMeta", http.MethodGet, "/log", nil)
}

func (c *Client) ClearLogs(ctx context.Context) (library.Envelope[struct{}], error) {
	return do[struct{}](ctx, c, "clearLogs", http.MethodDelete, "/log", nil)
}
