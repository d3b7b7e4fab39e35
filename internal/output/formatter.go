package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohankatakam/codetrend/internal/models"
)

// Formatter renders a run
type Formatter interface {
	Format(run *models.Run, w io.Writer) error
}

// Format names an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Options carries presentation settings that only some formats use.
type Options struct {
	Title string // HTML page title; defaults to the run source
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv, json or html)", s)
	}
}

// NewFormatter creates the formatter for format.
func NewFormatter(format Format, opts Options) (Formatter, error) {
	switch format {
	case FormatCSV:
		return &CSVFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}, nil
	case FormatHTML:
		return &HTMLFormatter{Title: opts.Title}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// WriteFile renders run into path. The content is written to a temporary
// file in the same directory and renamed into place, so readers never see a
// partial file.
func WriteFile(path string, f Formatter, run *models.Run) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := f.Format(run, tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
