// Package harness loads scenario files and drives them against a live
// backend, collecting a trace of contract verdicts per call.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avillar/storecheck/internal/contract"
	"github.com/avillar/storecheck/internal/expect"
	"github.com/avillar/storecheck/internal/request"
)

// Scenario is an ordered list of calls with declared outcomes.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one call within a scenario.
type Step struct {
	// Call names a registry operation, e.g. "products.insert".
	Call string `yaml:"call"`

	// Identity is the role the call runs under.
	Identity string `yaml:"identity"`

	// CorruptToken corrupts the resolved token before use, turning an
	// authenticated identity into an unverifiable one for this step only.
	CorruptToken bool `yaml:"corrupt_token,omitempty"`

	// Params fill path placeholders positionally.
	Params []any `yaml:"params,omitempty"`

	// Query carries URL query parameters.
	Query map[string]string `yaml:"query,omitempty"`

	// Body is the JSON request body. A key with a null value serializes as
	// null; a missing key is absent from the wire entirely.
	Body any `yaml:"body,omitempty"`

	// Expect declares the contract outcome for this call.
	Expect expect.Expectation `yaml:"expect"`
}

// LoadScenario reads and parses one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes scenario bytes. Unknown keys are rejected so a
// typo in a scenario file fails loudly instead of silently skipping a
// check.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks the scenario for authoring errors against a registry.
func (s *Scenario) Validate(reg request.Registry) error {
	if s.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %s: at least one step is required", s.Name)
	}

	for i, step := range s.Steps {
		if _, err := reg.Lookup(step.Call); err != nil {
			return fmt.Errorf("scenario %s: step %d: %w", s.Name, i+1, err)
		}
		id, err := contract.ParseIdentity(step.Identity)
		if err != nil {
			return fmt.Errorf("scenario %s: step %d: %w", s.Name, i+1, err)
		}
		if step.CorruptToken && !id.Authenticated() {
			return fmt.Errorf("scenario %s: step %d: corrupt_token requires an authenticated identity",
				s.Name, i+1)
		}
		if err := step.Expect.Validate(); err != nil {
			return fmt.Errorf("scenario %s: step %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}
