// Package client is a typed HTTP client for the leaderboard API.
package client

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

	"github.com/okian/clockery/internal/domain/types"
)

const (
	defaultTimeout = 3 * time.Second
	maxErrorBody   = 4 << 10
)

// Errors reported by the client.
var (
	ErrBackpressure = errors.New("leaderboard is busy")
	ErrNotFound     = errors.New("entry not found")
	ErrRejected     = errors.New("request rejected")
	ErrStatus       = errors.New("unexpected status")
)

// Client talks to a leaderboard service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit posts a finished game. A duplicate submission is not an error; check
// the returned status.
func (c *Client) Submit(ctx context.Context, req types.SubmitRequest) (types.SubmitResponse, error) {
	var out types.SubmitResponse
	resp, err := c.do(ctx, http.MethodPost, "/leaderboard", req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		return out, decode(resp, &out)
	case http.StatusTooManyRequests:
		return out, ErrBackpressure
	default:
		return out, statusError(resp)
	}
}

// Top returns the first limit entries. A non-positive limit uses the server default.
func (c *Client) Top(ctx context.Context, limit int) ([]types.Entry, error) {
	path := "/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var out []types.Entry
	return out, decode(resp, &out)
}

// Rank returns the ranked entry for a submission id.
func (c *Client) Rank(ctx context.Context, id string) (types.Entry, error) {
	var out types.Entry
	resp, err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(id), nil)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return out, decode(resp, &out)
	case http.StatusNotFound:
		return out, ErrNotFound
	default:
		return out, statusError(resp)
	}
}

// Stats returns the service counters.
func (c *Client) Stats(ctx context.Context) (types.Stats, error) {
	var out types.Stats
	resp, err := c.do(ctx, http.MethodGet, "/stats", nil)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, statusError(resp)
	}
	return out, decode(resp, &out)
}

// Health reports whether the service answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decode(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps an error envelope to ErrRejected for 4xx and ErrStatus otherwise.
func statusError(resp *http.Response) error {
	var body types.ErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &body)

	kind := ErrStatus
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		kind = ErrRejected
	}
	if body.Code != "" {
		return fmt.Errorf("%w: %d %s: %s", kind, resp.StatusCode, body.Code, body.Message)
	}
	return fmt.Errorf("%w: %d", kind, resp.StatusCode)
}
