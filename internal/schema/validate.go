// Package schema validates scenario documents against a CUE schema before
// the harness attempts to run them, so typos in a scenario file surface as
// positioned validation errors rather than mid-run failures.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.cue
var scenarioCUE string

// Error is a single schema violation.
type Error struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e Error) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateScenario checks raw YAML scenario bytes against the schema.
// A nil slice with a nil error means the document is valid; a non-nil
// error means the document could not be checked at all.
func ValidateScenario(data []byte) ([]Error, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	if doc == nil {
		return []Error{{Message: "scenario document is empty"}}, nil
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioCUE)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("look up scenario definition: %w", err)
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("encode scenario document: %w", err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return collectErrors(err), nil
	}
	return nil, nil
}

// collectErrors flattens a CUE error list into schema violations.
func collectErrors(err error) []Error {
	var out []Error
	for _, e := range cueerrors.Errors(err) {
		out = append(out, Error{
			Path:    strings.Join(e.Path(), "."),
			Message: e.Error(),
		})
	}
	if len(out) == 0 {
		out = append(out, Error{Message: err.Error()})
	}
	return out
}
