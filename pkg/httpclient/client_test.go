package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "payment.settled", r.Header.Get("X-Event"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "completed", body["status"])
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := New(srv.Client()).Post(srv.URL).
		Header("X-Event", "payment.settled").
		Body(map[string]string{"status": "completed"}).
		Send(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct{ OK bool }
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.OK)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := New(srv.Client()).Get(srv.URL).Retry(3, time.Millisecond).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	resp, err := New(srv.Client()).Post(srv.URL).Retry(3, time.Millisecond).Send(context.Background())
	require.NoError(t, err)
	assert.Error(t, resp.Throw())
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransportErrorExhaustsAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(nil).Get(url).Retry(2, time.Millisecond).Send(context.Background())
	assert.ErrorContains(t, err, "after 2 attempts")
}
