package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/taskboard/internal/utils"
)

func TestFetchOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/webhook/tasks", r.URL.Path)
		w.Write([]byte(`{"tasks":[]}`))
	}))
	defer srv.Close()

	body, err := New(srv.URL+"/", nil).Fetch(context.Background(), "/webhook/tasks")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[]}`, string(body))
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Fetch(context.Background(), "/webhook/goals")
	require.Error(t, err)

	var fe *utils.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, utils.FetchStatus, fe.Kind)
	assert.Equal(t, http.StatusBadGateway, fe.Status)
	assert.Equal(t, "/webhook/goals", fe.Path)
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Fetch(context.Background(), "/webhook/tasks")
	assert.Equal(t, utils.FetchTransport, utils.FetchErrorKind(err))
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		var in map[string]any
		require.NoError(t, json.Unmarshal(data, &in))
		assert.Equal(t, "hello", in["feedback"])
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := New(srv.URL, nil).PostJSON(context.Background(), "/webhook/feedback", map[string]string{"feedback": "hello"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestPostJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL, nil).PostJSON(context.Background(), "/x", map[string]string{}, &out)
	assert.Equal(t, utils.FetchDecode, utils.FetchErrorKind(err))
}

func TestDoReturnsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "1")
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	resp, err := New(srv.URL, nil).Do(context.Background(), http.MethodGet, "/webhook/profile", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, "1", resp.Header.Get("X-Test"))
	assert.Equal(t, "/webhook/profile", resp.Path)
}

func TestFetchBodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("[", MaxBodyBytes+1)))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Fetch(context.Background(), "/webhook/tasks")
	assert.Equal(t, utils.FetchDecode, utils.FetchErrorKind(err))
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}
