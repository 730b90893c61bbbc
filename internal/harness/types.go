package harness

import "fmt"

// InfraError marks a failure of the run machinery itself: the transport,
// the token endpoint, or a backend response outside the contract. It is
// never a contract verdict; callers abort the scenario on it.
type InfraError struct {
	Scenario string
	Step     int
	Call     string
	Err      error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("scenario %s: step %d (%s): %v", e.Scenario, e.Step, e.Call, e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

// TraceEvent records the contract verdict of one dispatched call.
type TraceEvent struct {
	Seq            int64    `json:"seq"`
	Operation      string   `json:"operation"`
	Identity       string   `json:"identity"`
	Status         int      `json:"status"`
	ExpectedStatus int      `json:"expected_status"`
	Pass           bool     `json:"pass"`
	Mismatches     []string `json:"mismatches,omitempty"`
}

// Result is the outcome of one scenario run.
//
// A Result exists only when every call completed and produced a contract
// status. Infrastructure failures (transport errors, non-contract status
// codes, unreadable bodies) abort the run and surface as errors instead.
type Result struct {
	RunID    string       `json:"run_id"`
	Scenario string       `json:"scenario"`
	Pass     bool         `json:"pass"`
	Events   []TraceEvent `json:"events"`
}

// FailedEvents returns the events that carried at least one mismatch.
func (r *Result) FailedEvents() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Events {
		if !e.Pass {
			out = append(out, e)
		}
	}
	return out
}
