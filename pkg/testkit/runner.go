package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Options carries per-run context into scenarios.
type Options struct {
	// Tokens maps a scenario's "as" value to a bearer token.
	Tokens map[string]string
	// Transport receives the scenario's HTTPMocks before each request; the
	// application under test must send outgoing calls through it.
	Transport *MockTransport
	// Vars seeds the capture variables.
	Vars map[string]string
}

// RunFile runs every scenario in path, in order, as subtests of t.
func RunFile(t *testing.T, handler http.Handler, path string, opts Options) {
	t.Helper()
	scenarios, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	vars := map[string]string{}
	for k, v := range opts.Vars {
		vars[k] = v
	}
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			Run(t, handler, s, opts, vars)
		})
	}
}

// RunDir runs every *.json file in dir via RunFile.
func RunDir(t *testing.T, handler http.Handler, dir string, opts Options) {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		t.Fatalf("testkit: no scenario files in %q", dir)
	}
	for _, f := range files {
		f := f
		t.Run(strings.TrimSuffix(filepath.Base(f), ".json"), func(t *testing.T) {
			RunFile(t, handler, f, opts)
		})
	}
}

// Run executes one scenario, expanding {{var}} references from vars and
// storing captures back into it.
func Run(t *testing.T, handler http.Handler, s *Scenario, opts Options, vars map[string]string) {
	t.Helper()

	if opts.Transport != nil {
		opts.Transport.Load(s.HTTPMocks)
	}

	var body io.Reader
	if len(s.Body) > 0 {
		body = strings.NewReader(expand(string(s.Body), vars))
	}
	req := httptest.NewRequest(strings.ToUpper(s.Method), expand(s.URL, vars), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.As != "" {
		token, ok := opts.Tokens[s.As]
		if !ok {
			t.Fatalf("testkit: no token for %q", s.As)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, expand(v, vars))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatus(t, s, rec.Code, rec.Body.Bytes())
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, s, []byte(expand(string(s.ExpectedBody), vars)), rec.Body.Bytes())
	}
	if len(s.Capture) > 0 {
		capture(t, s, rec.Body.Bytes(), vars)
	}
	if opts.Transport != nil {
		for _, err := range opts.Transport.Unused() {
			t.Errorf("[%s] %v", s.Name, err)
		}
	}
}

func expand(in string, vars map[string]string) string {
	for k, v := range vars {
		in = strings.ReplaceAll(in, "{{"+k+"}}", v)
	}
	return in
}

func capture(t *testing.T, s *Scenario, raw []byte, vars map[string]string) {
	t.Helper()
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		t.Fatalf("[%s] capture: response is not JSON: %v", s.Name, err)
	}
	for name, path := range s.Capture {
		v, err := lookup(doc, path)
		if err != nil {
			t.Fatalf("[%s] capture %s: %v", s.Name, name, err)
		}
		vars[name] = fmt.Sprint(v)
	}
}

// lookup walks a dotted path through decoded JSON.
func lookup(doc any, path string) (any, error) {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("key %q not found", part)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range", part)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, part)
		}
	}
	return cur, nil
}
