package classify

// CodeExtensions lists extensions counted as source code.
var CodeExtensions = set(
	"go",
	"py", "pyw",
	"js", "jsx", "mjs", "cjs",
	"ts", "tsx", "mts", "cts",
	"java", "kt", "kts", "scala", "groovy",
	"c", "h", "cpp", "cc", "cxx", "hpp", "hh", "hxx",
	"cs", "fs",
	"m", "mm", "swift",
	"rs", "zig", "nim",
	"rb", "php", "pl", "pm", "lua", "r", "jl",
	"sh", "bash", "zsh", "ps1",
	"dart",
	"ex", "exs", "erl",
	"hs", "ml", "clj", "cljs",
	"vue", "svelte",
	"sql",
)

// DocExtensions lists Markdown variants. Nothing else counts as documentation.
var DocExtensions = set("md", "markdown", "mdown", "mkd", "mdx")

// IgnoredDirs holds build output, dependency and VCS directory names. Matched
// case-insensitively against whole path segments.
var IgnoredDirs = set(
	".git", ".hg", ".svn",
	"node_modules", "bower_components", "vendor", "third_party",
	"dist", "build", "out", "target", "bin", "obj",
	"__pycache__", ".venv", "venv", ".tox", ".mypy_cache", ".pytest_cache", "site-packages",
	".next", ".nuxt", ".gradle", ".cache", "coverage",
	".idea", ".vscode",
)

var testDirHints = []string{"test", "tests", "__tests__", "spec", "specs", "e2e"}

var testPrefixes = []string{"test_", "test-", "test."}

var testSuffixes = []string{"_test", "-test", ".test", "_tests", "_spec", "-spec", ".spec"}

// JVM and .NET naming: FooTest.java, FooTests.cs, FooSpec.scala.
var testCamelSuffixes = []string{"Test", "Tests", "Spec"}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}
