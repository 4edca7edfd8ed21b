package testkit

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatus compares the response code, printing the body on mismatch.
func AssertStatus(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] status mismatch; body: %s", s.Name, body)
}

// AssertJSONSubset checks that every key in expected is present in actual
// with an equal value. Arrays must match in length and element-wise.
func AssertJSONSubset(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	var exp, act any
	require.NoError(t, json.Unmarshal(expected, &exp), "[%s] expectedBody is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &act), "[%s] response is not JSON: %s", s.Name, actual) {
		return
	}
	for _, d := range Subset("", exp, act) {
		t.Errorf("[%s] %s", s.Name, d)
	}
}

// Subset returns human-readable differences where actual does not contain
// expected.
func Subset(path string, expected, actual any) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", at(path), actual)}
		}
		for k, ev := range exp {
			av, ok := act[k]
			if !ok {
				diffs = append(diffs, fmt.Sprintf("%s.%s: missing", at(path), k))
				continue
			}
			diffs = append(diffs, Subset(path+"."+k, ev, av)...)
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", at(path), actual)}
		}
		if len(exp) != len(act) {
			return []string{fmt.Sprintf("%s: expected %d elements, got %d", at(path), len(exp), len(act))}
		}
		for i := range exp {
			diffs = append(diffs, Subset(fmt.Sprintf("%s.%d", path, i), exp[i], act[i])...)
		}
	default:
		if !assert.ObjectsAreEqual(expected, actual) {
			diffs = append(diffs, fmt.Sprintf("%s: expected %v, got %v", at(path), expected, actual))
		}
	}
	return diffs
}

func at(path string) string {
	if path == "" {
		return "$"
	}
	return "$" + path
}
