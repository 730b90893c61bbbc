// Package expect evaluates a declared response expectation against an HTTP
// response. Contract mismatches are collected softly across clauses and are
// kept strictly apart from infrastructure failures (non-JSON bodies,
// transport errors), which the caller surfaces as scenario aborts.
package expect

import (
	"encoding/json"
	"fmt"
)

// ContractStatuses is the closed set of status codes with contract meaning.
// Any other code from the backend is an infrastructure failure, not a
// contract outcome.
var ContractStatuses = map[int]bool{
	200: true, 201: true, 204: true, 400: true,
	401: true, 403: true, 404: true, 422: true,
}

// Expectation declares the expected outcome for a single response.
type Expectation struct {
	// Status is the exact expected status code.
	Status int `yaml:"status"`

	// Fields are scalar equality checks on field paths.
	Fields []FieldCheck `yaml:"fields,omitempty"`

	// Contains are superset membership checks over projected array fields.
	Contains []MembershipCheck `yaml:"contains,omitempty"`

	// Filtered are filter-then-project membership checks over array fields.
	Filtered []FilteredCheck `yaml:"filtered,omitempty"`

	// NoBody asserts the response body is empty (e.g. 204 deletes).
	NoBody bool `yaml:"no_body,omitempty"`
}

// FieldCheck asserts that the value at Path equals Equals.
// Numeric comparison tolerates integer-vs-decimal representation, so 100
// and 100.0 are equal for price assertions.
type FieldCheck struct {
	Path   string `yaml:"path"`
	Equals any    `yaml:"equals"`
}

// MembershipCheck asserts that the collection at Path contains every item
// in Items. Ordering and extra elements are not part of the contract.
type MembershipCheck struct {
	Path  string `yaml:"path"`
	Items []any  `yaml:"items"`
}

// FilteredCheck filters the array at Path by a numeric predicate on Field,
// projects Project from the surviving elements, and asserts the projection
// contains every item in Items.
type FilteredCheck struct {
	Path        string   `yaml:"path"`
	Field       string   `yaml:"field"`
	GreaterThan *float64 `yaml:"greater_than,omitempty"`
	LessThan    *float64 `yaml:"less_than,omitempty"`
	Project     string   `yaml:"project"`
	Items       []any    `yaml:"items"`
}

// Mismatch is one failed contract clause.
type Mismatch struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Path, m.Expected, m.Actual)
}

// Validate checks the expectation itself for scenario-authoring errors.
func (e Expectation) Validate() error {
	if e.Status == 0 {
		return fmt.Errorf("status is required")
	}
	if !ContractStatuses[e.Status] {
		return fmt.Errorf("status %d is not a contract status code", e.Status)
	}
	for i, f := range e.Fields {
		if f.Path == "" {
			return fmt.Errorf("fields[%d]: path is required", i)
		}
	}
	for i, c := range e.Contains {
		if c.Path == "" {
			return fmt.Errorf("contains[%d]: path is required", i)
		}
		if len(c.Items) == 0 {
			return fmt.Errorf("contains[%d]: items must be non-empty", i)
		}
	}
	for i, f := range e.Filtered {
		if f.Path == "" || f.Field == "" || f.Project == "" {
			return fmt.Errorf("filtered[%d]: path, field and project are required", i)
		}
		if f.GreaterThan == nil && f.LessThan == nil {
			return fmt.Errorf("filtered[%d]: greater_than or less_than is required", i)
		}
		if len(f.Items) == 0 {
			return fmt.Errorf("filtered[%d]: items must be non-empty", i)
		}
	}
	return nil
}

// Check evaluates the expectation against a status code and raw body.
//
// All clauses are evaluated; the returned mismatches cover every failed
// clause, not just the first. The error return is reserved for
// infrastructure failures: a body that cannot be parsed as JSON when body
// clauses are declared.
func Check(status int, body []byte, exp Expectation) ([]Mismatch, error) {
	var mismatches []Mismatch

	if status != exp.Status {
		mismatches = append(mismatches, Mismatch{
			Path:     "status",
			Expected: fmt.Sprintf("%d", exp.Status),
			Actual:   fmt.Sprintf("%d", status),
		})
	}

	if exp.NoBody {
		if len(body) > 0 {
			mismatches = append(mismatches, Mismatch{
				Path:     "body",
				Expected: "empty body",
				Actual:   fmt.Sprintf("%d bytes", len(body)),
			})
		}
		return mismatches, nil
	}

	if len(exp.Fields) == 0 && len(exp.Contains) == 0 && len(exp.Filtered) == 0 {
		return mismatches, nil
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return mismatches, fmt.Errorf("response body is not valid JSON: %w", err)
	}

	for _, f := range exp.Fields {
		mismatches = append(mismatches, checkField(doc, f)...)
	}
	for _, c := range exp.Contains {
		mismatches = append(mismatches, checkMembership(doc, c)...)
	}
	for _, f := range exp.Filtered {
		mismatches = append(mismatches, checkFiltered(doc, f)...)
	}

	return mismatches, nil
}

func checkField(doc any, f FieldCheck) []Mismatch {
	actual, found, err := resolve(doc, f.Path)
	if err != nil || !found {
		return []Mismatch{{
			Path:     f.Path,
			Expected: formatValue(f.Equals),
			Actual:   "<path not found>",
		}}
	}
	if !valuesEqual(actual, f.Equals) {
		return []Mismatch{{
			Path:     f.Path,
			Expected: formatValue(f.Equals),
			Actual:   formatValue(actual),
		}}
	}
	return nil
}

func checkMembership(doc any, c MembershipCheck) []Mismatch {
	actual, found, err := resolve(doc, c.Path)
	if err != nil || !found {
		return []Mismatch{{
			Path:     c.Path,
			Expected: fmt.Sprintf("collection containing %s", formatValue(c.Items)),
			Actual:   "<path not found>",
		}}
	}
	list, ok := actual.([]any)
	if !ok {
		return []Mismatch{{
			Path:     c.Path,
			Expected: "a collection",
			Actual:   formatValue(actual),
		}}
	}

	var out []Mismatch
	for _, want := range c.Items {
		if !containsValue(list, want) {
			out = append(out, Mismatch{
				Path:     c.Path,
				Expected: fmt.Sprintf("collection containing %s", formatValue(want)),
				Actual:   formatValue(list),
			})
		}
	}
	return out
}

func checkFiltered(doc any, f FilteredCheck) []Mismatch {
	actual, found, err := resolve(doc, f.Path)
	if err != nil || !found {
		return []Mismatch{{
			Path:     f.Path,
			Expected: "an array field",
			Actual:   "<path not found>",
		}}
	}
	list, ok := actual.([]any)
	if !ok {
		return []Mismatch{{
			Path:     f.Path,
			Expected: "an array field",
			Actual:   formatValue(actual),
		}}
	}

	var projected []any
	for _, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		v, ok := asNumber(obj[f.Field])
		if !ok {
			continue
		}
		if f.GreaterThan != nil && !(v > *f.GreaterThan) {
			continue
		}
		if f.LessThan != nil && !(v < *f.LessThan) {
			continue
		}
		if p, ok := obj[f.Project]; ok {
			projected = append(projected, p)
		}
	}

	var out []Mismatch
	clause := fmt.Sprintf("%s[%s]%s", f.Path, f.Field, predicateDesc(f))
	for _, want := range f.Items {
		if !containsValue(projected, want) {
			out = append(out, Mismatch{
				Path:     clause + "." + f.Project,
				Expected: fmt.Sprintf("projection containing %s", formatValue(want)),
				Actual:   formatValue(projected),
			})
		}
	}
	return out
}

func predicateDesc(f FilteredCheck) string {
	switch {
	case f.GreaterThan != nil:
		return fmt.Sprintf(">%v", *f.GreaterThan)
	case f.LessThan != nil:
		return fmt.Sprintf("<%v", *f.LessThan)
	}
	return ""
}

func formatValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
