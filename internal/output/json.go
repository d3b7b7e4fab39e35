package output

import (
	"encoding/json"
	"io"

	"github.com/rohankatakam/codetrend/internal/models"
)

// JSONFormatter writes the whole run as one JSON document.
type JSONFormatter struct {
	Indent string
}

func (f *JSONFormatter) Format(run *models.Run, w io.Writer) error {
	enc := json.NewEncoder(w)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(run)
}
