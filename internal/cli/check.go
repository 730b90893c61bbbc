package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/avillar/storecheck/internal/harness"
	"github.com/avillar/storecheck/internal/schema"
	"github.com/avillar/storecheck/internal/store"
)

// CheckResult summarizes one check invocation.
type CheckResult struct {
	Total     int              `json:"total"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioReport `json:"scenarios"`
}

// ScenarioReport is the verdict of one scenario.
type ScenarioReport struct {
	Name   string               `json:"name"`
	RunID  string               `json:"run_id"`
	Pass   bool                 `json:"pass"`
	Events []harness.TraceEvent `json:"events"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		configPath string
		filter     string
		recordPath string
	)

	cmd := &cobra.Command{
		Use:   "check <scenarios-dir>",
		Short: "Run contract scenarios against the backend",
		Long: `Run every scenario in a directory against the configured backend.

Each scenario's calls are dispatched in order and their responses checked
against the declared contract outcomes. Mismatches are collected per call;
infrastructure failures abort the run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd, args[0], configPath, filter, recordPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "storecheck.yaml", "harness config file")
	cmd.Flags().StringVar(&filter, "filter", "", "only run scenarios whose name matches this glob")
	cmd.Flags().StringVar(&recordPath, "record", "", "record runs to this SQLite database")

	return cmd
}

func runCheck(opts *RootOptions, cmd *cobra.Command, scenariosDir, configPath, filter, recordPath string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := harness.LoadConfig(configPath)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load config", err)
	}

	scenarios, err := loadScenarios(scenariosDir, filter)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load scenarios", err)
	}
	formatter.VerboseLog("loaded %d scenario(s) from %s", len(scenarios), scenariosDir)

	hopts := harness.Options{Logger: buildLogger(opts, cmd.ErrOrStderr())}
	if recordPath != "" {
		records, err := store.Open(recordPath)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open record store", err)
		}
		defer records.Close()
		hopts.Records = records
	}

	h := harness.New(cfg, hopts)

	result := CheckResult{}
	for _, sc := range scenarios {
		res, err := h.RunScenario(cmd.Context(), sc)
		if err != nil {
			_ = formatter.Error(ErrCodeRun, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run scenario", err)
		}

		result.Total++
		if !res.Pass {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, ScenarioReport{
			Name:   res.Scenario,
			RunID:  res.RunID,
			Pass:   res.Pass,
			Events: res.Events,
		})

		if opts.Format == "text" {
			printScenarioVerdict(formatter.Writer, res)
		}
	}

	return outputCheckResult(formatter, result)
}

func printScenarioVerdict(w io.Writer, res *harness.Result) {
	if res.Pass {
		fmt.Fprintf(w, "✓ %s\n", res.Scenario)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", res.Scenario)
	for _, e := range res.FailedEvents() {
		for _, m := range e.Mismatches {
			fmt.Fprintf(w, "    step %d %s (%s): %s\n", e.Seq, e.Operation, e.Identity, m)
		}
	}
}

func outputCheckResult(formatter *OutputFormatter, result CheckResult) error {
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total)
		if formatter.Format == "json" {
			_ = formatter.Failure(result, ErrCodeRun, msg)
		} else {
			fmt.Fprintf(formatter.Writer, "\n%s\n", msg)
		}
		return NewExitError(ExitFailure, msg)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "\n%d scenario(s) passed\n", result.Total)
	return nil
}

// loadScenarios reads, schema-checks and parses every scenario file in dir,
// keeping only those whose name matches filter (empty matches all).
func loadScenarios(dir, filter string) ([]*harness.Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	var scenarios []*harness.Scenario
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		schemaErrs, err := schema.ValidateScenario(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(schemaErrs) > 0 {
			return nil, fmt.Errorf("%s: %s", path, schemaErrs[0].String())
		}

		sc, err := harness.ParseScenario(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if filter != "" {
			matched, err := filepath.Match(filter, sc.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !matched {
				continue
			}
		}
		scenarios = append(scenarios, sc)
	}

	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios match filter %q", filter)
	}
	return scenarios, nil
}

func buildLogger(opts *RootOptions, errWriter io.Writer) *slog.Logger {
	if !opts.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(errWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
