// Package testkit drives HTTP handler tests from JSON scenario files.
//
// A file holds an ordered array of scenarios sharing one set of captured
// variables, so later steps can reuse ids returned by earlier ones:
//
//	[
//	  {"name": "place order", "as": "customer", "method": "POST", "url": "/api/store/orders",
//	   "body": {"items": [{"productId": 1, "quantity": 2}], "shippingAddress": "1 Main St"},
//	   "expectedCode": 201, "expectedBody": {"success": true, "data": {"status": "pending"}},
//	   "capture": {"orderId": "data.id"}},
//	  {"name": "read it back", "as": "customer", "url": "/api/store/orders/{{orderId}}", "expectedCode": 200}
//	]
//
// expectedBody is a subset match: only the keys it names are compared.
package testkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Scenario is one request and its expectations.
type Scenario struct {
	Name    string            `json:"name"`
	As      string            `json:"as,omitempty"` // key into Options.Tokens
	Method  string            `json:"method,omitempty"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`

	ExpectedCode int             `json:"expectedCode"`
	ExpectedBody json.RawMessage `json:"expectedBody,omitempty"`

	// Capture stores values from the JSON response (dotted path, array
	// indexes allowed: "data.items.0.id") under a variable name.
	Capture map[string]string `json:"capture,omitempty"`

	// HTTPMocks answer outgoing calls made while this scenario runs.
	HTTPMocks []HTTPMock `json:"httpMocks,omitempty"`
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("%s: url is required", s.Name)
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("%s: expectedCode is required", s.Name)
	}
	if s.Method == "" {
		s.Method = http.MethodGet
	}
	return nil
}

// LoadFile reads a scenario array.
func LoadFile(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", path, err)
	}
	var out []*Scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", path, err)
	}
	for _, s := range out {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: %s: %w", filepath.Base(path), err)
		}
	}
	return out, nil
}
