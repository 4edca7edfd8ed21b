// Package validate provides struct-tag validation for request inputs.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty (nil pointer counts as empty)
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	url                 valid URL (http/https)
//	min=N               string: min char length | number: min value | slice: min items
//	max=N               string: max char length | number: max value | slice: max items
//	gt=N                number > N
//	gte=N               number >= N
//	in=a,b,c            value must be one of the listed items
//	dive                validate every element of a slice of structs
//
// Numbers include decimal types exposing InexactFloat64 (shopspring/decimal).
//
//	type LineItem struct {
//	    ProductID uint `json:"productId" validate:"required"`
//	    Quantity  int  `json:"quantity"  validate:"required,gt=0"`
//	}
//	type PlaceOrder struct {
//	    Items []LineItem `json:"items" validate:"required,min=1,dive"`
//	}
//
// Errors from dived elements are keyed by path, e.g. "items.1.quantity".
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	validateStruct(rv, "", errs)
	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func validateStruct(rv reflect.Value, prefix string, errs map[string]string) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := prefix + jsonFieldName(field)
		value := rv.Field(i)
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		failed := false
		for _, rule := range rules {
			if rule == "nullable" || rule == "dive" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				failed = true
				break // first failing rule per field
			}
		}

		if !failed && hasRule(rules, "dive") && value.Kind() == reflect.Slice {
			for j := 0; j < value.Len(); j++ {
				elem := value.Index(j)
				if elem.Kind() == reflect.Ptr {
					elem = elem.Elem()
				}
				if elem.Kind() == reflect.Struct {
					validateStruct(elem, fmt.Sprintf("%s.%d.", name, j), errs)
				}
			}
		}
	}
}

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")

	if key == "required" {
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
		return ""
	}

	// Remaining rules look through pointers; an absent optional value passes.
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	raw := fmt.Sprintf("%v", v.Interface())

	switch key {
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "url":
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}

	case "min":
		n := mustParseFloat(param)
		switch {
		case isNumeric(v):
			if toFloat(v) < n {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		case v.Kind() == reflect.Slice:
			if float64(v.Len()) < n {
				return fmt.Sprintf("The %s must have at least %s items.", field, param)
			}
		default:
			if float64(len([]rune(raw))) < n {
				return fmt.Sprintf("The %s must be at least %s characters.", field, param)
			}
		}
	case "max":
		n := mustParseFloat(param)
		switch {
		case isNumeric(v):
			if toFloat(v) > n {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		case v.Kind() == reflect.Slice:
			if float64(v.Len()) > n {
				return fmt.Sprintf("The %s must not have more than %s items.", field, param)
			}
		default:
			if float64(len([]rune(raw))) > n {
				return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
			}
		}
	case "gt":
		if toFloat(v) <= mustParseFloat(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if toFloat(v) < mustParseFloat(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}

	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}

	return ""
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// floater is satisfied by decimal.Decimal.
type floater interface{ InexactFloat64() float64 }

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false // false is a valid boolean value, not empty
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	_, ok := v.Interface().(floater)
	return ok
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	if f, ok := v.Interface().(floater); ok {
		return f.InexactFloat64()
	}
	f, _ := strconv.ParseFloat(fmt.Sprintf("%v", v.Interface()), 64)
	return f
}

func mustParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

// splitRules splits the tag on commas, keeping the values of in= together.
// e.g. "required,in=paypal,cash,max=10" → ["required","in=paypal,cash","max=10"]
func splitRules(tag string) []string {
	var rules []string
	var current strings.Builder
	inList := false

	for _, part := range strings.Split(tag, ",") {
		if inList && !looksLikeNewRule(part) {
			current.WriteByte(',')
			current.WriteString(part)
			continue
		}
		if current.Len() > 0 {
			rules = append(rules, current.String())
			current.Reset()
		}
		current.WriteString(part)
		inList = strings.HasPrefix(part, "in=")
	}
	if current.Len() > 0 {
		rules = append(rules, current.String())
	}
	return rules
}

func looksLikeNewRule(s string) bool {
	for _, k := range []string{"required", "nullable", "email", "url", "dive", "min=", "max=", "gt=", "gte=", "in="} {
		if strings.HasPrefix(s, k) {
			return true
		}
	}
	return false
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
