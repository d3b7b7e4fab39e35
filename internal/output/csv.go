package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rohankatakam/codetrend/internal/models"
)

// CSVHeader is the first record of every CSV file.
var CSVHeader = []string{
	"timestamp",
	"commit",
	"non_test_loc",
	"total_tests",
	"doc_loc",
	"commit_msg_len",
	"commit_msg_len_avg",
}

// CSVFormatter writes one record per commit, oldest first.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(run *models.Run, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range run.Rows {
		record := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.ShortID,
			strconv.Itoa(r.NonTestLOC),
			strconv.Itoa(r.TotalTests),
			strconv.Itoa(r.DocLOC),
			strconv.Itoa(r.MsgLen),
			strconv.FormatFloat(r.MsgLenAvg, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", r.Seq, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
