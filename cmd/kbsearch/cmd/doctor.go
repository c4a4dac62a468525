package cmd

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/logging"
	"github.com/Aman-CERP/kbsearch/internal/preflight"
)

func newDoctorCmd(g *globalOptions) *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and diagnose issues",
		Long: `Run diagnostics to ensure kbsearch can search your repositories.

Checks:
  - Configuration file and exclude patterns
  - ripgrep availability (the built-in scanner is used without it)
  - Every configured repository path
  - Log directory write access
  - File descriptor limits (1024 minimum)

Only invalid exclude patterns and a low descriptor limit are failures;
everything else is reported as a warning.`,
		Example: `  # Run diagnostics
  kbsearch doctor

  # JSON output for scripting
  kbsearch doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, g, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDoctor(cmd *cobra.Command, g *globalOptions, verbose, jsonOutput bool) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	logDir := logging.DefaultLogDir()
	if cfg.Logging.File != "" {
		logDir = filepath.Dir(cfg.Logging.File)
	}

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
		preflight.WithLogDir(logDir),
	)

	results := checker.RunAll(ctx, cfg)

	if jsonOutput {
		if err := outputDoctorJSON(cmd, results); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return kberrors.New(kberrors.ErrCodeConfigInvalid, "system check failed", nil).
			WithSuggestion("fix the failed checks above and run 'kbsearch doctor' again")
	}
	return nil
}

func outputDoctorJSON(cmd *cobra.Command, results []preflight.CheckResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(preflight.Summarize(results))
}
