package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo returns a fixed order for POST and echoes the id for GET.
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.Header.Get("Authorization") == "Bearer tok":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":42,"status":"pending","items":[{"quantity":2}]}}`))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/orders/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]string{"id": strings.TrimPrefix(r.URL.Path, "/orders/")}})
	default:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Access token required"}`))
	}
})

func TestRunFileCapturesAcrossSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
	  {"name":"unauthenticated","method":"POST","url":"/orders","expectedCode":401,
	   "expectedBody":{"message":"Access token required"}},
	  {"name":"create","as":"customer","method":"POST","url":"/orders","body":{"x":1},
	   "expectedCode":201,"expectedBody":{"data":{"status":"pending","items":[{"quantity":2}]}},
	   "capture":{"orderId":"data.id"}},
	  {"name":"fetch","url":"/orders/{{orderId}}","expectedCode":200,
	   "expectedBody":{"data":{"id":"{{orderId}}"}}}
	]`), 0o644))

	RunFile(t, echo, path, Options{Tokens: map[string]string{"customer": "tok"}})
}

func TestSubsetReportsDifferences(t *testing.T) {
	var exp, act any
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":{"c":[1,2]}}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"a":2,"b":{"c":[1]},"extra":true}`), &act))

	diffs := Subset("", exp, act)
	assert.Len(t, diffs, 2)
}

func TestLoadFileValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"x","url":"/"}]`), 0o644))
	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "expectedCode")
}

func TestMockTransport(t *testing.T) {
	mt := NewMockTransport(HTTPMock{MatchURL: "https://hooks.example.com/", StatusCode: 202, Body: json.RawMessage(`{}`)})
	c := &http.Client{Transport: mt}

	resp, err := c.Post("https://hooks.example.com/payments", "application/json", strings.NewReader(`{"id":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 202, resp.StatusCode)
	assert.Empty(t, mt.Unused())
	require.Len(t, mt.Calls(), 1)
	assert.JSONEq(t, `{"id":1}`, string(mt.Calls()[0].Body))

	_, err = c.Get("https://elsewhere.example.com/")
	assert.Error(t, err)
}
