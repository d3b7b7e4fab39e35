package ingestion

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/codetrend/internal/models"
)

// Progress receives per-commit updates from the orchestrator.
type Progress interface {
	Start(total int)
	Advance(done int, row models.CommitRow)
	Finish()
}

// NopProgress discards updates.
type NopProgress struct{}

func (NopProgress) Start(int)                     {}
func (NopProgress) Advance(int, models.CommitRow) {}
func (NopProgress) Finish()                       {}

// TerminalProgress redraws a single status line when attached to a terminal
// and otherwise logs periodic progress entries.
type TerminalProgress struct {
	out         io.Writer
	interactive bool
	logger      *logrus.Logger
	every       *rate.Sometimes
	total       int
	drawn       bool
}

// NewProgress picks the rendering mode from whether f is a terminal.
func NewProgress(f *os.File, logger *logrus.Logger) *TerminalProgress {
	interactive := f != nil && term.IsTerminal(int(f.Fd()))
	interval := 5 * time.Second
	if interactive {
		interval = 100 * time.Millisecond
	}
	return &TerminalProgress{
		out:         f,
		interactive: interactive,
		logger:      logger,
		every:       &rate.Sometimes{First: 1, Interval: interval},
	}
}

func (p *TerminalProgress) Start(total int) {
	p.total = total
}

func (p *TerminalProgress) Advance(done int, row models.CommitRow) {
	last := done == p.total
	draw := func() {
		if p.interactive {
			fmt.Fprintf(p.out, "\r\033[K[%d/%d] %s %s", done, p.total, row.ShortID, row.Timestamp.Format("2006-01-02"))
			p.drawn = true
			return
		}
		p.logger.WithFields(logrus.Fields{
			"done":   done,
			"total":  p.total,
			"commit": row.ShortID,
		}).Info("Processing history")
	}
	if last {
		draw()
		return
	}
	p.every.Do(draw)
}

func (p *TerminalProgress) Finish() {
	if p.interactive && p.drawn {
		fmt.Fprintln(p.out)
	}
}
