package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// HTTPMock answers an outgoing request whose URL starts with MatchURL
// (empty matches anything).
type HTTPMock struct {
	Method     string          `json:"method,omitempty"`
	MatchURL   string          `json:"matchUrl"`
	StatusCode int             `json:"statusCode,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// Call is a request seen by MockTransport.
type Call struct {
	Method string
	URL    string
	Body   []byte
}

type mockEntry struct {
	mock  HTTPMock
	calls int
}

// MockTransport is an http.RoundTripper serving canned responses. Requests
// without a matching mock fail, so no test reaches the network.
type MockTransport struct {
	mu      sync.Mutex
	entries []*mockEntry
	calls   []Call
}

func NewMockTransport(mocks ...HTTPMock) *MockTransport {
	mt := &MockTransport{}
	mt.Load(mocks)
	return mt
}

// Load replaces the active mocks and clears recorded calls.
func (mt *MockTransport) Load(mocks []HTTPMock) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.entries = mt.entries[:0]
	for _, m := range mocks {
		mt.entries = append(mt.entries, &mockEntry{mock: m})
	}
	mt.calls = nil
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.calls = append(mt.calls, Call{Method: req.Method, URL: req.URL.String(), Body: body})

	for _, e := range mt.entries {
		if e.mock.Method != "" && !strings.EqualFold(e.mock.Method, req.Method) {
			continue
		}
		if !strings.HasPrefix(req.URL.String(), e.mock.MatchURL) {
			continue
		}
		e.calls++
		code := e.mock.StatusCode
		if code == 0 {
			code = http.StatusOK
		}
		h := make(http.Header)
		h.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: code,
			Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
			Header:     h,
			Body:       io.NopCloser(bytes.NewReader(e.mock.Body)),
			Request:    req,
		}, nil
	}
	return nil, fmt.Errorf("testkit: unexpected outgoing %s %s", req.Method, req.URL)
}

// Calls returns every request seen since the last Load.
func (mt *MockTransport) Calls() []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]Call(nil), mt.calls...)
}

// Unused reports mocks that were never hit.
func (mt *MockTransport) Unused() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var errs []error
	for _, e := range mt.entries {
		if e.calls == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock %q was never called", e.mock.MatchURL))
		}
	}
	return errs
}
