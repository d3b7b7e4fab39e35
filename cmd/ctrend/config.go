package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/codetrend/internal/config"
	"github.com/rohankatakam/codetrend/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CodeTrend configuration",
	Long:  `View, validate and create CodeTrend configuration files.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, config file and environment
variables have been applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a configuration file with default values",
	Long: `Write a configuration file with default values. The format follows the
extension: .toml writes TOML, anything else YAML.

Examples:
  ctrend config init .codetrend/config.yaml
  ctrend config init ~/.codetrend/config.toml`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configFormat    string
	configInitForce bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "yaml or toml")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := cfg.Render(configFormat)
	if err != nil {
		return errors.ValidationErrorf("%v", err)
	}
	if src := cfg.Source(); src != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", src)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return errors.ValidationErrorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Default().Save(path); err != nil {
		return errors.FileSystemError(err, "failed to write config file")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	result := cfg.Validate()
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
	return nil
}

// configOutput builds an output section from command flags.
func configOutput(csv, json, html, title string) config.OutputConfig {
	return config.OutputConfig{CSV: csv, JSON: json, HTML: html, Title: title}
}
