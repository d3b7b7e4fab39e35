package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/codetrend/internal/config"
	"github.com/rohankatakam/codetrend/internal/errors"
	"github.com/rohankatakam/codetrend/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logFile string
	logJSON bool

	logger  *logrus.Logger
	cfg     *config.Config
	closeLg func()
)

// Exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitNoCommits = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	err := rootCmd.Execute()
	if closeLg != nil {
		closeLg()
	}
	if err == nil {
		return exitOK
	}
	if stderrors.Is(err, errors.ErrNoCommits) {
		fmt.Fprintln(os.Stderr, "No commits to analyze: the selected range is empty.")
		return exitNoCommits
	}
	fmt.Fprint(os.Stderr, describeError(err, verbose))
	return exitFailure
}

// describeError renders err for the terminal. detailed adds severity,
// context and the stack trace of structured errors.
func describeError(err error, detailed bool) string {
	var label string
	switch errors.GetType(err) {
	case errors.ErrorTypeConfig:
		label = "Configuration error"
	case errors.ErrorTypeValidation:
		label = "Invalid input"
	case errors.ErrorTypeRepository:
		label = "Repository error"
	case errors.ErrorTypeStorage:
		label = "Storage error"
	default:
		label = "Error"
	}
	msg := fmt.Sprintf("%s: %v\n", label, err)

	var e *errors.Error
	switch {
	case detailed && stderrors.As(err, &e):
		msg += e.DetailedString()
	case errors.IsFatal(err):
		msg += "Run with --verbose for details.\n"
	}
	return msg
}

var rootCmd = &cobra.Command{
	Use:   "ctrend",
	Short: "CodeTrend - per-commit code, test and documentation trends",
	Long: `CodeTrend walks a Git repository's history and measures every commit:
non-test lines of code, test cases, documentation lines and commit message
length. The series is written as CSV, JSON or a self-contained HTML chart.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return errors.ConfigError(err, "failed to load configuration")
		}

		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}
		if cmd.Flags().Changed("log-json") {
			cfg.Log.JSON = logJSON
		}
		if verbose {
			cfg.Log.Level = "debug"
		}

		lg, err := logging.NewLogger(logging.Config{
			Level:      cfg.Log.Level,
			OutputFile: cfg.Log.File,
			JSONFormat: cfg.Log.JSON,
		})
		if err != nil {
			return errors.ConfigError(err, "failed to initialize logging")
		}
		logger = lg.Logger
		closeLg = func() { lg.Close() }

		if src := cfg.Source(); src != "" {
			logger.WithField("path", src).Debug("Loaded configuration file")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .codetrend/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")

	// Set custom version template
	rootCmd.SetVersionTemplate(`CodeTrend {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)
}
