package main

import (
	stderrors "errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/codetrend/internal/errors"
	"github.com/rohankatakam/codetrend/internal/models"
	"github.com/rohankatakam/codetrend/internal/output"
	"github.com/rohankatakam/codetrend/internal/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored runs",
	Long:  `List, show and re-export runs saved with "ctrend analyze --save".`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored run as CSV or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a stored run to files",
	Long: `Write a stored run to files.

Examples:
  ctrend runs export 3f2a... --html trend.html
  ctrend runs export 3f2a... --csv trend.csv --json trend.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsExport,
}

var (
	runsLimit      int
	runsShowFormat string
	runsExportCSV  string
	runsExportJSON string
	runsExportHTML string
	runsExportName string
)

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs")
	runsShowCmd.Flags().StringVar(&runsShowFormat, "format", "csv", "csv or json")
	runsExportCmd.Flags().StringVar(&runsExportCSV, "csv", "", "CSV output file")
	runsExportCmd.Flags().StringVar(&runsExportJSON, "json", "", "JSON output file")
	runsExportCmd.Flags().StringVar(&runsExportHTML, "html", "", "HTML chart output file")
	runsExportCmd.Flags().StringVar(&runsExportName, "title", "", "chart title")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)
}

// openStore opens the configured store; runs commands need one.
func openStore() (storage.Store, error) {
	if cfg.Storage.Type == "none" {
		cfg.Storage.Type = "sqlite"
	}
	store, err := storage.NewStore(cfg.Storage, logger)
	if err != nil {
		return nil, errors.StorageError(err, "failed to open run store")
	}
	return store, nil
}

func loadRun(cmd *cobra.Command, id string) (*models.Run, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.ValidationErrorf("no stored run with id %s", id)
	}
	if err != nil {
		return nil, errors.StorageError(err, "failed to load run")
	}
	return run, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return errors.StorageError(err, "failed to list runs")
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tCOMMITS\tDURATION\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Format(time.RFC3339),
			r.CommitCount,
			r.Duration.Round(time.Millisecond),
			r.Source,
		)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(runsShowFormat)
	if err != nil || format == output.FormatHTML {
		return errors.ValidationErrorf("--format must be csv or json, got %q", runsShowFormat)
	}
	run, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	f, err := output.NewFormatter(format, output.Options{})
	if err != nil {
		return err
	}
	return f.Format(run, cmd.OutOrStdout())
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	if runsExportCSV == "" && runsExportJSON == "" && runsExportHTML == "" {
		return errors.ValidationError("nothing to export: pass --csv, --json or --html")
	}
	run, err := loadRun(cmd, args[0])
	if err != nil {
		return err
	}
	_, err = writeOutputs(run, configOutput(runsExportCSV, runsExportJSON, runsExportHTML, runsExportName))
	return err
}
