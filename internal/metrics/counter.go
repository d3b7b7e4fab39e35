package metrics

import (
	"bytes"
	"strings"

	"github.com/rohankatakam/codetrend/internal/classify"
	"github.com/rohankatakam/codetrend/internal/models"
)

// CountCodeLines counts lines that are non-blank after trimming and do not
// start with one of ext's single-line comment prefixes. Trailing comments and
// block comments are not recognised; such lines still count.
func CountCodeLines(text, ext string) int {
	if text == "" {
		return 0
	}
	prefixes := CommentPrefixes[ext]

	n := 0
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || hasAnyPrefix(trimmed, prefixes) {
			continue
		}
		n++
	}
	return n
}

// CountDocLines counts non-blank lines.
func CountDocLines(text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// CountTestCases sums the non-overlapping matches of every test pattern
// registered for ext. Matches inside comments or strings count too.
func CountTestCases(text, ext string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, re := range TestPatterns[ext] {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// SeemsBinary reports whether b contains a NUL byte.
func SeemsBinary(b []byte) bool {
	return bytes.IndexByte(b, 0) >= 0
}

// ComputeBlobMetrics counts one blob's content for the given category.
// Nil, empty, binary or uncategorised content yields zero metrics.
func ComputeBlobMetrics(content []byte, ext string, cat classify.Category) models.BlobMetrics {
	if len(content) == 0 || SeemsBinary(content) {
		return models.BlobMetrics{}
	}
	text := string(content)

	switch cat {
	case classify.Doc:
		return models.BlobMetrics{DocLines: CountDocLines(text)}
	case classify.Code:
		return models.BlobMetrics{
			CodeLines: CountCodeLines(text, ext),
			TestCases: CountTestCases(text, ext),
		}
	default:
		return models.BlobMetrics{}
	}
}

// splitLines splits on "\n" and drops a trailing "\r" from each line. A
// final newline does not produce an extra empty line.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
