package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/harrylevesque/taskboard/internal/normalize"
	"github.com/harrylevesque/taskboard/internal/utils"
)

// ErrUnauthorized is returned when the server rejects the session cookie.
var ErrUnauthorized = errors.New("not logged in")

// maxReplyBytes caps how much of a server reply is read.
const maxReplyBytes = 8 << 20

// degradedHeader mirrors the server's fallback marker.
const degradedHeader = "X-Upstream-Degraded"

// APIError is a 4xx/5xx reply from the taskboard server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Source is the server as the controller sees it.
type Source interface {
	Fetch(ctx context.Context, kind normalize.Kind) ([]byte, normalize.Health, error)
	Post(ctx context.Context, path string, payload, out any) error
}

// HTTPSource talks to a taskboard server with a saved session cookie.
type HTTPSource struct {
	BaseURL string
	Cookie  string
	HTTP    *http.Client
	Logger  *zap.Logger
}

// NewHTTPSource returns a source for baseURL authenticated by cookie.
func NewHTTPSource(baseURL, cookie string, logger *zap.Logger) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Cookie:  cookie,
		HTTP:    &http.Client{},
		Logger:  utils.OrNop(logger),
	}
}

func (s *HTTPSource) do(ctx context.Context, method, path string, payload any) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Cookie != "" {
		req.Header.Set("Cookie", s.Cookie)
	}
	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, &utils.FetchError{Kind: utils.FetchTransport, Path: path, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes+1))
	if err == nil && len(data) > maxReplyBytes {
		err = errors.New("reply too large")
	}
	if err != nil {
		return nil, nil, &utils.FetchError{Kind: utils.FetchDecode, Path: path, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return resp, data, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &msg) != nil || msg.Error == "" {
			msg.Error = strings.TrimSpace(string(data))
		}
		return resp, data, &APIError{Status: resp.StatusCode, Message: msg.Error}
	}
	return resp, data, nil
}

// Fetch GETs /webhook/{kind}. Server-side fallbacks are reported as degraded health.
func (s *HTTPSource) Fetch(ctx context.Context, kind normalize.Kind) ([]byte, normalize.Health, error) {
	resp, data, err := s.do(ctx, http.MethodGet, "/webhook/"+string(kind), nil)
	if err != nil {
		return nil, normalize.Health{}, err
	}
	if reason := resp.Header.Get(degradedHeader); reason != "" {
		return data, normalize.Degraded(reason), nil
	}
	return data, normalize.OK, nil
}

// Post sends payload and decodes the reply into out when out is non-nil.
func (s *HTTPSource) Post(ctx context.Context, path string, payload, out any) error {
	_, data, err := s.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &utils.FetchError{Kind: utils.FetchDecode, Path: path, Err: err}
	}
	return nil
}

// Login signs in and returns the session cookie as a Cookie header value.
func Login(ctx context.Context, client *http.Client, baseURL, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	var parts []string
	for _, c := range resp.Cookies() {
		parts = append(parts, c.Name+"="+c.Value)
	}
	if len(parts) == 0 {
		return "", errors.New("server did not set a session cookie")
	}
	return strings.Join(parts, "; "), nil
}
