package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohankatakam/codetrend/internal/classify"
	"github.com/rohankatakam/codetrend/internal/models"
)

func TestCountCodeLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		ext  string
		want int
	}{
		{"empty", "", "py", 0},
		{"only blanks", "\n  \n\t\n", "py", 0},
		{"python comment and code", "# comment\nx = 1\ny = 2\n", "py", 2},
		{"go comments", "// Package x\npackage x\n\n// f does\nfunc f() {}\n", "go", 2},
		{"indented comment", "func f() {\n\t// note\n\treturn\n}\n", "go", 3},
		{"trailing comment still counts", "x := 1 // one\n", "go", 1},
		{"block comment lines count", "/*\n * doc\n */\nint x;\n", "c", 4},
		{"php hash and slashes", "<?php\n# a\n// b\necho 1;\n", "php", 2},
		{"sql dashes", "-- drop\nSELECT 1;\n", "sql", 1},
		{"unknown extension keeps comments", "# not a comment here\n", "txt", 1},
		{"crlf", "a = 1\r\n\r\n# c\r\n", "py", 1},
		{"no final newline", "a\nb", "py", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountCodeLines(tt.text, tt.ext))
		})
	}
}

func TestCountCodeLines_NeverExceedsLineCount(t *testing.T) {
	inputs := []string{
		"a\nb\nc\n",
		"\n\n\n",
		"x\n# y\n\nz",
		strings.Repeat("line\n", 100),
	}
	for _, in := range inputs {
		lines := strings.Count(in, "\n") + 1
		assert.LessOrEqual(t, CountCodeLines(in, "py"), lines)
		assert.LessOrEqual(t, CountDocLines(in), lines)
	}
}

func TestCountDocLines(t *testing.T) {
	assert.Equal(t, 0, CountDocLines(""))
	assert.Equal(t, 0, CountDocLines("\n \n"))
	assert.Equal(t, 2, CountDocLines("# Title\n\nSome text.\n"))
	assert.Equal(t, 3, CountDocLines("<!-- c -->\n# h\n- item\n"))
}

func TestCountTestCases(t *testing.T) {
	tests := []struct {
		name string
		text string
		ext  string
		want int
	}{
		{"python functions", "def test_a():\n    pass\n\ndef helper():\n    pass\n\nasync def test_b():\n    pass\n", "py", 2},
		{"python method", "class T:\n    def test_x(self):\n        pass\n", "py", 1},
		{"go", "func TestA(t *testing.T) {}\nfunc helper() {}\nfunc TestB(t *testing.T) {}\n", "go", 2},
		{"go benchmark not counted", "func BenchmarkA(b *testing.B) {}\n", "go", 0},
		{"jest", "describe('x', () => {\n  it('a', () => {})\n  test.only('b', () => {})\n})\n", "ts", 2},
		{"junit", "@Test\nvoid a() {}\n@Test\nvoid b() {}\n", "java", 2},
		{"rust", "#[test]\nfn a() {}\n#[tokio::test]\nasync fn b() {}\n", "rs", 2},
		{"gtest", "TEST(A, B) {}\nTEST_F(Fix, C) {}\n", "cpp", 2},
		{"commented out definition", "# def test_old():\n", "py", 0},
		{"matches inside strings count", "s = \"it(\"\n", "js", 1},
		{"no patterns for extension", "def test_a():\n", "txt", 0},
		{"empty", "", "py", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountTestCases(tt.text, tt.ext))
		})
	}
}

func TestComputeBlobMetrics(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
		cat     classify.Category
		want    models.BlobMetrics
	}{
		{"nil", nil, "py", classify.Code, models.BlobMetrics{}},
		{"code", []byte("def test_a():\n    x = 1\n"), "py", classify.Code, models.BlobMetrics{CodeLines: 2, TestCases: 1}},
		{"doc", []byte("# T\n\nbody\n"), "md", classify.Doc, models.BlobMetrics{DocLines: 2}},
		{"binary", []byte("x = 1\n\x00\x01"), "py", classify.Code, models.BlobMetrics{}},
		{"uncategorised", []byte("a\n"), "png", classify.None, models.BlobMetrics{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeBlobMetrics(tt.content, tt.ext, tt.cat))
		})
	}
}
