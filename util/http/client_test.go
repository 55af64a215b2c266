package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loadBody struct {
	Model  string `json:"model"`
	Device string `json:"device"`
}

type loadResult struct {
	Loaded bool   `json:"loaded"`
	Device string `json:"device"`
}

func TestNewHTTPClient(t *testing.T) {
	client, ok := NewHTTPClient().(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, defaultTimeout, client.client.GetClient().Timeout)
}

func TestDoHTTPRequest_NilParam(t *testing.T) {
	err := NewHTTPClient().DoHTTPRequest(context.Background(), nil)
	assert.EqualError(t, err, "request param is nil")
}

func TestDoHTTPRequest_JSONRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/load", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var body loadBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, loadBody{Model: "small", Device: "cuda"}, body)

		// 不带 Content-Type，客户端仍按 JSON 解析
		_, _ = w.Write([]byte(`{"loaded": true, "device": "cuda"}`))
	}))
	defer server.Close()

	var result loadResult
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL + "/api/load",
		Method:     http.MethodPost,
		Body:       &loadBody{Model: "small", Device: "cuda"},
		Response:   &result,
	})
	require.NoError(t, err)
	assert.Equal(t, loadResult{Loaded: true, Device: "cuda"}, result)
}

func TestDoHTTPRequest_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("CUDA out of memory"))
	}))
	defer server.Close()

	var result loadResult
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL,
		Method:     http.MethodPost,
		Body:       &loadBody{Model: "large"},
		Response:   &result,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "CUDA out of memory")
}

func TestDoHTTPRequest_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"loaded": tru`))
	}))
	defer server.Close()

	var result loadResult
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL,
		Method:     http.MethodGet,
		Response:   &result,
	})
	assert.Error(t, err)
}

func TestDoHTTPRequest_EmptyBodyWithoutResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Empty(t, data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL + "/api/unload",
		Method:     http.MethodPost,
	})
	assert.NoError(t, err)
}

func TestDoHTTPRequest_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL + "/api/device",
		Method:     http.MethodGet,
		Timeout:    50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDoHTTPRequest_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("X-Request-Id"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, "raw body", string(data))
	}))
	defer server.Close()

	err := NewHTTPClient().DoHTTPRequest(context.Background(), &RequestParam{
		RequestURI: server.URL,
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": "text/plain", "X-Request-Id": "abc"},
		Body:       []byte("raw body"),
	})
	assert.NoError(t, err)
}
