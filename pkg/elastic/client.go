// Package elastic implements the scroll protocol of Elasticsearch-compatible
// search backends over HTTP.
package elastic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/leapstack-labs/datatect/pkg/scroll"
)

// Defaults for Client.
const (
	DefaultKeepAlive = "1m"
	DefaultTimeout   = 30 * time.Second
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 4 << 10

// Config holds connection settings for a Client.
type Config struct {
	// KeepAlive is how long the backend keeps the cursor alive between pages.
	KeepAlive string
	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
	// Username and Password enable HTTP basic authentication.
	Username string
	Password string
	// APIKey is sent as "Authorization: ApiKey <key>" and wins over basic auth.
	APIKey string
	// HTTPClient overrides the underlying client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the backend's scroll endpoints. It is safe for concurrent
// use; each scroll.Iterator keeps its own cursor.
type Client struct {
	http      *http.Client
	keepAlive string
	username  string
	password  string
	apiKey    string
	logger    *slog.Logger
}

var (
	_ scroll.Client  = (*Client)(nil)
	_ scroll.Clearer = (*Client)(nil)
)

// New creates a Client from cfg.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	keepAlive := cfg.KeepAlive
	if keepAlive == "" {
		keepAlive = DefaultKeepAlive
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:      hc,
		keepAlive: keepAlive,
		username:  cfg.Username,
		password:  cfg.Password,
		apiKey:    cfg.APIKey,
		logger:    logger,
	}
}

type openRequest struct {
	Size int `json:"size"`
}

type advanceRequest struct {
	Scroll   string `json:"scroll"`
	ScrollID string `json:"scroll_id"`
}

type clearRequest struct {
	ScrollID []string `json:"scroll_id"`
}

// searchResponse uses pointers so absent fields can be told apart from
// empty ones.
type searchResponse struct {
	ScrollID *string `json:"_scroll_id"`
	Hits     *struct {
		Hits *[]scroll.Hit `json:"hits"`
	} `json:"hits"`
}

// Open implements scroll.Client.
func (c *Client) Open(ctx context.Context, host, index string, size int) (scroll.Page, error) {
	if size <= 0 {
		size = scroll.DefaultPageSize
	}
	endpoint := joinURL(host, url.PathEscape(index), "_search") + "?scroll=" + url.QueryEscape(c.keepAlive)
	return c.search(ctx, "open", endpoint, openRequest{Size: size})
}

// Advance implements scroll.Client.
func (c *Client) Advance(ctx context.Context, host, cursor string) (scroll.Page, error) {
	endpoint := joinURL(host, "_search", "scroll")
	return c.search(ctx, "advance", endpoint, advanceRequest{Scroll: c.keepAlive, ScrollID: cursor})
}

// Clear implements scroll.Clearer. A cursor the backend no longer knows is
// not an error.
func (c *Client) Clear(ctx context.Context, host, cursor string) error {
	endpoint := joinURL(host, "_search", "scroll")
	resp, err := c.do(ctx, "clear", http.MethodDelete, endpoint, clearRequest{ScrollID: []string{cursor}})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode/100 != 2 {
		return &scroll.NetworkError{Op: "clear", StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	return nil
}

func (c *Client) search(ctx context.Context, op, endpoint string, body any) (scroll.Page, error) {
	start := time.Now()

	resp, err := c.do(ctx, op, http.MethodPost, endpoint, body)
	if err != nil {
		return scroll.Page{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return scroll.Page{}, &scroll.NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(msg))),
		}
	}

	var sr searchResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&sr); err != nil {
		return scroll.Page{}, &scroll.ProtocolError{Op: op, Reason: "undecodable response body", Err: err}
	}
	if sr.ScrollID == nil {
		return scroll.Page{}, &scroll.ProtocolError{Op: op, Reason: "response has no _scroll_id"}
	}
	if sr.Hits == nil || sr.Hits.Hits == nil {
		return scroll.Page{}, &scroll.ProtocolError{Op: op, Reason: "response has no hits.hits"}
	}

	c.logger.Debug("scroll request complete",
		slog.String("op", op),
		slog.Int("hits", len(*sr.Hits.Hits)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return scroll.Page{Cursor: *sr.ScrollID, Hits: *sr.Hits.Hits}, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("scroll %s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &scroll.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	switch {
	case c.apiKey != "":
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	case c.username != "":
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &scroll.NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

// joinURL appends path segments to host, tolerating a trailing slash on host.
func joinURL(host string, segments ...string) string {
	return strings.TrimRight(host, "/") + "/" + strings.Join(segments, "/")
}
