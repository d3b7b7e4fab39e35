package config

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/codetrend/internal/errors"
	"github.com/rohankatakam/codetrend/internal/logging"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Err converts a failed result into a validation error, or nil.
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ValidationError(strings.TrimRight(vr.Error(), "\n"))
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	c.validateGit(result)
	c.validateMetrics(result)
	c.validateStorage(result)

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result.AddError("log.level: %v", err)
	}
	if c.Output.CSV == "" && c.Output.JSON == "" && c.Output.HTML == "" && c.Storage.Type == "none" {
		result.AddWarning("no output file configured; CSV is written to stdout")
	}
	if c.Output.Open && c.Output.HTML == "" {
		result.AddWarning("output.open has no effect without output.html")
	}
	return result
}

func (c *Config) validateGit(result *ValidationResult) {
	switch c.Git.Backend {
	case "gogit", "cli":
	default:
		result.AddError("git.backend must be gogit or cli, got %q", c.Git.Backend)
	}
	if c.Git.MaxCommits < 0 {
		result.AddError("git.max_commits must be >= 0, got %d", c.Git.MaxCommits)
	}

	since, errSince := ParseSince(c.Git.Since)
	if errSince != nil {
		result.AddError("git.since: %v", errSince)
	}
	until, errUntil := ParseUntil(c.Git.Until)
	if errUntil != nil {
		result.AddError("git.until: %v", errUntil)
	}
	if errSince == nil && errUntil == nil && !since.IsZero() && !until.IsZero() && since.After(until) {
		result.AddError("git.since (%s) is after git.until (%s)", c.Git.Since, c.Git.Until)
	}
}

func (c *Config) validateMetrics(result *ValidationResult) {
	if c.Metrics.Window < 1 {
		result.AddError("metrics.window must be >= 1, got %d", c.Metrics.Window)
	}
	if c.Metrics.MaxBlobBytes <= 0 {
		result.AddError("metrics.max_blob_bytes must be > 0, got %d", c.Metrics.MaxBlobBytes)
	}
	if c.Metrics.Workers < 1 {
		result.AddError("metrics.workers must be >= 1, got %d", c.Metrics.Workers)
	}
}

func (c *Config) validateStorage(result *ValidationResult) {
	switch c.Storage.Type {
	case "none":
	case "sqlite":
		if c.Storage.LocalPath == "" {
			result.AddError("storage.local_path is required for sqlite storage")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			result.AddError("storage.postgres_dsn is required for postgres storage")
		} else if !strings.HasPrefix(c.Storage.PostgresDSN, "postgres://") &&
			!strings.HasPrefix(c.Storage.PostgresDSN, "postgresql://") &&
			!strings.Contains(c.Storage.PostgresDSN, "=") {
			result.AddWarning("storage.postgres_dsn does not look like a URL or key=value DSN")
		}
	default:
		result.AddError("storage.type must be none, sqlite or postgres, got %q", c.Storage.Type)
	}
}
