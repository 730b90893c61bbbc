package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avillar/storecheck/internal/store"
)

// RunSummary is one run row in trace output.
type RunSummary struct {
	ID        string `json:"id"`
	Scenario  string `json:"scenario"`
	StartedAt string `json:"started_at"`
	Pass      bool   `json:"pass"`
}

// RunDetail is a full run with its calls.
type RunDetail struct {
	RunSummary
	Calls []CallDetail `json:"calls"`
}

// CallDetail is one recorded call in trace output.
type CallDetail struct {
	Seq            int      `json:"seq"`
	Operation      string   `json:"operation"`
	Identity       string   `json:"identity"`
	Status         int      `json:"status"`
	ExpectedStatus int      `json:"expected_status"`
	Pass           bool     `json:"pass"`
	Mismatches     []string `json:"mismatches,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "trace <db-path>",
		Short: "Inspect recorded runs",
		Long: `List runs recorded by "check --record", or show the full call trace
of one run with --run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, cmd, args[0], runID)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "show the calls of this run id")

	return cmd
}

func runTrace(opts *RootOptions, cmd *cobra.Command, dbPath, runID string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	records, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open record store", err)
	}
	defer records.Close()

	if runID != "" {
		return traceRun(formatter, records, cmd, runID)
	}
	return traceRuns(formatter, records, cmd)
}

func traceRuns(formatter *OutputFormatter, records *store.Store, cmd *cobra.Command) error {
	runs, err := records.Runs(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, RunSummary{
			ID:        r.ID,
			Scenario:  r.Scenario,
			StartedAt: r.StartedAt.Format(time.RFC3339),
			Pass:      r.Pass,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "no recorded runs")
		return nil
	}
	for _, s := range summaries {
		verdict := "pass"
		if !s.Pass {
			verdict = "FAIL"
		}
		fmt.Fprintf(formatter.Writer, "%s  %s  %-4s  %s\n", s.ID, s.StartedAt, verdict, s.Scenario)
	}
	return nil
}

func traceRun(formatter *OutputFormatter, records *store.Store, cmd *cobra.Command, runID string) error {
	runs, err := records.Runs(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	var detail *RunDetail
	for _, r := range runs {
		if r.ID == runID {
			detail = &RunDetail{RunSummary: RunSummary{
				ID:        r.ID,
				Scenario:  r.Scenario,
				StartedAt: r.StartedAt.Format(time.RFC3339),
				Pass:      r.Pass,
			}}
			break
		}
	}
	if detail == nil {
		err := fmt.Errorf("run %s not found", runID)
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "trace run", err)
	}

	calls, err := records.Calls(cmd.Context(), runID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list calls", err)
	}
	for _, c := range calls {
		detail.Calls = append(detail.Calls, CallDetail{
			Seq:            c.Seq,
			Operation:      c.Operation,
			Identity:       c.Identity,
			Status:         c.Status,
			ExpectedStatus: c.ExpectedStatus,
			Pass:           c.Pass,
			Mismatches:     c.Mismatches,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}

	fmt.Fprintf(formatter.Writer, "%s (%s)\n", detail.Scenario, detail.ID)
	for _, c := range detail.Calls {
		mark := "✓"
		if !c.Pass {
			mark = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s %2d %-16s %-13s %d (want %d)\n",
			mark, c.Seq, c.Operation, c.Identity, c.Status, c.ExpectedStatus)
		if len(c.Mismatches) > 0 {
			fmt.Fprintf(formatter.Writer, "     %s\n", strings.Join(c.Mismatches, "; "))
		}
	}
	return nil
}
