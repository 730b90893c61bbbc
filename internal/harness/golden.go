package harness

import (
	"github.com/avillar/storecheck/internal/report"
)

// Snapshot renders a result as canonical JSON for golden-file comparison.
//
// The run id is excluded: it differs on every run, while everything else
// in a passing trace is deterministic.
func Snapshot(res *Result) ([]byte, error) {
	events := make([]any, len(res.Events))
	for i, e := range res.Events {
		var mismatches []any
		for _, m := range e.Mismatches {
			mismatches = append(mismatches, m)
		}
		events[i] = map[string]any{
			"seq":             e.Seq,
			"operation":       e.Operation,
			"identity":        e.Identity,
			"status":          e.Status,
			"expected_status": e.ExpectedStatus,
			"pass":            e.Pass,
			"mismatches":      mismatches,
		}
	}

	return report.Marshal(map[string]any{
		"scenario": res.Scenario,
		"pass":     res.Pass,
		"events":   events,
	})
}
