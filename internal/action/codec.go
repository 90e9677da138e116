// Package action implements the agent action-group contract: decoding the
// function-call envelope, deciding which messaging resource to provision,
// and building the function response the agent runtime expects.
package action

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParamType is the declared type of a function parameter.
type ParamType string

const (
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamString  ParamType = "string"
)

// ErrMalformedParameter is matched by every parameter coercion failure.
var ErrMalformedParameter = errors.New("malformed parameter")

// Parameter is one (name, type, value) triple from the agent envelope.
type Parameter struct {
	Name  string    `json:"name"`
	Type  ParamType `json:"type"`
	Value string    `json:"value"`
}

// ParameterError reports a parameter whose value does not fit its type.
type ParameterError struct {
	Name  string
	Type  ParamType
	Value string
	Err   error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter %q: cannot use %q as %s: %v", e.Name, e.Value, e.Type, e.Err)
}

func (e *ParameterError) Unwrap() []error {
	return []error{ErrMalformedParameter, e.Err}
}

// ParameterMap holds decoded parameter values keyed by name.
// Values are int64, bool or string.
type ParameterMap map[string]any

// Has reports whether the parameter was supplied.
func (m ParameterMap) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// String returns the parameter rendered as a string, or fallback when absent.
func (m ParameterMap) String(name, fallback string) string {
	v, ok := m[name]
	if !ok {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Decode coerces each parameter according to its declared type.
// Unknown types pass through as strings. Later duplicates overwrite earlier ones.
func Decode(params []Parameter) (ParameterMap, error) {
	m := make(ParameterMap, len(params))
	for _, p := range params {
		v, err := coerce(p)
		if err != nil {
			return nil, err
		}
		m[p.Name] = v
	}
	return m, nil
}

func coerce(p Parameter) (any, error) {
	switch p.Type {
	case ParamInteger:
		n, err := parseInteger(p.Value)
		if err != nil {
			return nil, &ParameterError{Name: p.Name, Type: p.Type, Value: p.Value, Err: err}
		}
		return n, nil
	case ParamBoolean:
		// Any non-empty value is true, "false" included.
		return p.Value != "", nil
	default:
		return p.Value, nil
	}
}

// digitGroups matches a signed decimal whose digits may be separated by
// single underscores, e.g. "1_000".
var digitGroups = regexp.MustCompile(`^[+-]?[0-9]+(_[0-9]+)*$`)

// parseInteger reads a base-10 integer, ignoring surrounding whitespace and
// allowing underscore digit separators. Values outside int64 are rejected.
func parseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "_") {
		if !digitGroups.MatchString(s) {
			return 0, &strconv.NumError{Func: "ParseInt", Num: s, Err: strconv.ErrSyntax}
		}
		s = strings.ReplaceAll(s, "_", "")
	}
	return strconv.ParseInt(s, 10, 64)
}
