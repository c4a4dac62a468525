// Package cmd provides the CLI commands for kbsearch.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/logging"
	"github.com/Aman-CERP/kbsearch/internal/profiling"
	"github.com/Aman-CERP/kbsearch/pkg/version"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	debug      bool
	profile    profiling.Options

	loggingCleanup func()
	profiler       *profiling.Session
}

// NewRootCmd creates the root command for the kbsearch CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalOptions{})
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kbsearch",
		Short: "Search text across your knowledge-base repositories",
		Long: `kbsearch finds a literal term, case-insensitively, in every configured
repository at once. It uses ripgrep when available and falls back to a
built-in scanner otherwise. Files whose names contain the term are
reported too.

Repositories are configured in ~/.config/kbsearch/config.yaml, or with
'kbsearch repo add'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("kbsearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ~/.config/kbsearch/config.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.kbsearch/logs/")

	cmd.PersistentFlags().StringVar(&opts.profile.CPUProfile, "cpuprofile", "", "Write a CPU profile to this file")
	cmd.PersistentFlags().StringVar(&opts.profile.MemProfile, "memprofile", "", "Write a heap profile to this file on exit")
	cmd.PersistentFlags().StringVar(&opts.profile.Trace, "trace", "", "Write an execution trace to this file")
	for _, name := range []string{"cpuprofile", "memprofile", "trace"} {
		_ = cmd.PersistentFlags().MarkHidden(name)
	}

	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return opts.startProfiling()
	}
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		opts.stopLogging()
		return opts.stopProfiling()
	}

	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newTUICmd(opts))
	cmd.AddCommand(newLsCmd(opts))
	cmd.AddCommand(newNewFileCmd(opts))
	cmd.AddCommand(newMkdirCmd(opts))
	cmd.AddCommand(newMvCmd(opts))
	cmd.AddCommand(newRmCmd(opts))
	cmd.AddCommand(newRepoCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command, printing errors the way users expect.
func Execute() error {
	opts := &globalOptions{}
	cmd := newRootCmd(opts)
	err := cmd.Execute()
	// A failed command skips PersistentPostRunE.
	opts.stopLogging()
	if stopErr := opts.stopProfiling(); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, kberrors.FormatForCLI(err))
	}
	return err
}

// configFilePath returns the file named by --config, or the user config path.
func (o *globalOptions) configFilePath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.GetUserConfigPath()
}

// loadConfig loads the configuration named by --config.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}

// startLogging installs the file logger for interactive commands. Output
// goes to the log file only, so JSON lines never mix with results; --debug
// raises the level and, when mirror is set, copies lines to stderr.
func (o *globalOptions) startLogging(cfg *config.Config, mirror bool) {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if cfg != nil {
		logCfg.Level = cfg.Logging.Level
		if cfg.Logging.File != "" {
			logCfg.FilePath = cfg.Logging.File
		}
	}
	if o.debug {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = mirror
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		// Logging is best effort for the CLI.
		slog.SetDefault(logging.NewStderrLogger("error"))
		return
	}
	o.loggingCleanup = cleanup
	slog.Debug("logging initialized", slog.String("log_file", logCfg.FilePath))
}

// startStdioLogging installs a file-only logger for commands whose stdout
// carries a protocol.
func (o *globalOptions) startStdioLogging(cfg *config.Config) error {
	level := cfg.Logging.Level
	if o.debug {
		level = "debug"
	}
	cleanup, err := logging.SetupStdioMode(level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.loggingCleanup = cleanup
	return nil
}

func (o *globalOptions) startProfiling() error {
	if !o.profile.Enabled() {
		return nil
	}
	session, err := profiling.Start(o.profile)
	if err != nil {
		return err
	}
	o.profiler = session
	return nil
}

func (o *globalOptions) stopProfiling() error {
	err := o.profiler.Stop()
	o.profiler = nil
	return err
}

func (o *globalOptions) stopLogging() {
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
}
