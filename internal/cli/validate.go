package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/avillar/storecheck/internal/harness"
	"github.com/avillar/storecheck/internal/request"
	"github.com/avillar/storecheck/internal/schema"
)

// ValidationResult holds per-file validation findings.
type ValidationResult struct {
	Valid bool            `json:"valid"`
	Files []FileValidation `json:"files"`
}

// FileValidation is the findings for one scenario file.
type FileValidation struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Check every scenario file in a directory against the scenario schema
and the operation registry. No calls are made to any backend.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command, dir string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read scenarios directory", err)
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
		err := fmt.Errorf("no scenario files in %s", dir)
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "validate", err)
	}

	registry := request.DefaultRegistry()
	result := ValidationResult{Valid: true}

	for _, path := range files {
		formatter.VerboseLog("validating %s", path)
		fv := FileValidation{Path: path, Valid: true}

		data, err := os.ReadFile(path)
		if err != nil {
			_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read scenario", err)
		}

		schemaErrs, err := schema.ValidateScenario(data)
		if err != nil {
			fv.Errors = append(fv.Errors, err.Error())
		}
		for _, se := range schemaErrs {
			fv.Errors = append(fv.Errors, se.String())
		}

		// Registry and expectation checks only make sense on a document
		// that decodes cleanly.
		if len(fv.Errors) == 0 {
			if sc, err := harness.ParseScenario(data); err != nil {
				fv.Errors = append(fv.Errors, err.Error())
			} else if err := sc.Validate(registry); err != nil {
				fv.Errors = append(fv.Errors, err.Error())
			}
		}

		if len(fv.Errors) > 0 {
			fv.Valid = false
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	return outputValidationResult(formatter, result)
}

func outputValidationResult(formatter *OutputFormatter, result ValidationResult) error {
	if result.Valid {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ %d scenario file(s) valid\n", len(result.Files))
		return nil
	}

	invalid := 0
	for _, fv := range result.Files {
		if !fv.Valid {
			invalid++
		}
	}
	msg := fmt.Sprintf("%d of %d scenario file(s) invalid", invalid, len(result.Files))

	if formatter.Format == "json" {
		_ = formatter.Failure(result, ErrCodeScenario, msg)
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		for _, fv := range result.Files {
			if fv.Valid {
				continue
			}
			fmt.Fprintf(formatter.Writer, "\n%s\n", fv.Path)
			for _, e := range fv.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", e)
			}
		}
	}
	return NewExitError(ExitFailure, msg)
}
