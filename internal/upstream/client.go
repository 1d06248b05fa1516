// Package upstream talks to the workflow-automation webhook service.
// Each call is a single attempt; there is no retry and no timeout beyond the
// caller's context.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/utils"
)

// Response is a raw upstream reply.
type Response struct {
	Path   string
	Status int
	Header http.Header
	Body   []byte
}

// Client issues webhook calls relative to BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

// New returns a client for baseURL.
func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Logger:  utils.OrNop(logger),
	}
}

// MaxBodyBytes caps how much of an upstream reply is read.
const MaxBodyBytes = 8 << 20

// ErrBodyTooLarge is wrapped in a FetchDecode error when a reply exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("upstream body too large")

// Do performs one request and returns the reply whatever its status.
// Only transport and body read failures are errors.
func (c *Client) Do(ctx context.Context, method, path string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, &utils.FetchError{Kind: utils.FetchTransport, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http().Do(req)
	if err != nil {
		c.log().Warn("upstream request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &utils.FetchError{Kind: utils.FetchTransport, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err == nil && len(data) > MaxBodyBytes {
		err = ErrBodyTooLarge
	}
	if err != nil {
		return nil, &utils.FetchError{Kind: utils.FetchDecode, Path: path, Status: resp.StatusCode, Err: err}
	}
	c.log().Debug("upstream response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{Path: path, Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Fetch GETs path and returns the body of a 2xx reply.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	return c.expectOK(c.Do(ctx, http.MethodGet, path, nil))
}

// Post sends payload as JSON and returns the body of a 2xx reply.
func (c *Client) Post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.expectOK(c.Do(ctx, http.MethodPost, path, payload))
}

// PostJSON is Post followed by decoding the reply into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	data, err := c.Post(ctx, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &utils.FetchError{Kind: utils.FetchDecode, Path: path, Err: err}
	}
	return nil
}

func (c *Client) expectOK(resp *Response, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, &utils.FetchError{Kind: utils.FetchStatus, Status: resp.Status, Path: resp.Path}
	}
	return resp.Body, nil
}

func (c *Client) http() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) log() *zap.Logger {
	return utils.OrNop(c.Logger)
}
