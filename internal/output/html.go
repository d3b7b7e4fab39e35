package output

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/rohankatakam/codetrend/internal/models"
)

//go:embed templates/chart.html.tmpl
var chartTemplate string

var chartTmpl = template.Must(template.New("chart").Parse(chartTemplate))

// Series drawn by the chart, in legend order.
var chartSeries = []chartSeriesDef{
	{Key: "non_test_loc", Label: "Non-test LOC", Color: "#1f77b4"},
	{Key: "total_tests", Label: "Test cases", Color: "#2ca02c"},
	{Key: "doc_loc", Label: "Doc lines", Color: "#ff7f0e"},
	{Key: "commit_msg_len", Label: "Message length", Color: "#9467bd", Hidden: true},
	{Key: "commit_msg_len_avg", Label: "Message length (avg)", Color: "#d62728"},
}

type chartSeriesDef struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Color  string `json:"color"`
	Hidden bool   `json:"hidden"`
}

type chartPage struct {
	Title     string
	Source    string
	Ref       string
	RunID     string
	Window    int
	Generated string
	Series    []chartSeriesDef
	Rows      []models.CommitRow
}

// HTMLFormatter renders a self-contained page with an interactive line
// chart. The page loads no external assets.
type HTMLFormatter struct {
	Title string
	now   func() time.Time
}

func (f *HTMLFormatter) Format(run *models.Run, w io.Writer) error {
	title := f.Title
	if title == "" {
		title = "Code trends: " + run.Source
	}
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	rows := run.Rows
	if rows == nil {
		rows = []models.CommitRow{}
	}

	page := chartPage{
		Title:     title,
		Source:    run.Source,
		Ref:       run.Ref,
		RunID:     run.ID,
		Window:    run.Window,
		Generated: now().UTC().Format(time.RFC3339),
		Series:    chartSeries,
		Rows:      rows,
	}
	if err := chartTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
