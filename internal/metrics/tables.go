package metrics

import "regexp"

// HeuristicsVersion changes whenever the tables below change in a way that
// alters counts. Persistent caches key their entries on it.
const HeuristicsVersion = "1"

var (
	hash        = []string{"#"}
	slashes     = []string{"//"}
	dashes      = []string{"--"}
	slashOrHash = []string{"//", "#"}
)

// CommentPrefixes maps an extension to its single-line comment markers.
// Extensions missing here only get blank-line filtering.
var CommentPrefixes = map[string][]string{
	"py": hash, "pyw": hash, "rb": hash, "pl": hash, "pm": hash, "r": hash,
	"jl": hash, "nim": hash, "ex": hash, "exs": hash, "ps1": hash,
	"sh": hash, "bash": hash, "zsh": hash,

	"go": slashes, "js": slashes, "jsx": slashes, "mjs": slashes, "cjs": slashes,
	"ts": slashes, "tsx": slashes, "mts": slashes, "cts": slashes,
	"java": slashes, "kt": slashes, "kts": slashes, "scala": slashes, "groovy": slashes,
	"c": slashes, "h": slashes, "cpp": slashes, "cc": slashes, "cxx": slashes,
	"hpp": slashes, "hh": slashes, "hxx": slashes,
	"cs": slashes, "fs": slashes, "m": slashes, "mm": slashes, "swift": slashes,
	"rs": slashes, "zig": slashes, "dart": slashes,
	"vue": slashes, "svelte": slashes,

	"php": slashOrHash,

	"lua": dashes, "sql": dashes, "hs": dashes,

	"clj": {";"}, "cljs": {";"},
	"erl": {"%"},
	"ml":  {"(*"},
}

// TestPatterns maps an extension to the regular expressions whose matches
// are counted as test cases.
var TestPatterns = map[string][]*regexp.Regexp{}

func init() {
	py := compile(`(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+test\w*[ \t]*\(`)
	goTest := compile(`(?m)^func[ \t]+Test\w*[ \t]*\(`)
	jsTest := compile(`\b(?:it|test)(?:\.only|\.skip)?[ \t]*\(`)
	junit := compile(`@Test\b`)
	cFamily := compile(`\bTEST(?:_F|_P)?[ \t]*\(`)

	register(py, "py", "pyw")
	register(goTest, "go")
	register(jsTest, "js", "jsx", "mjs", "cjs", "ts", "tsx", "mts", "cts", "vue", "svelte")
	register(junit, "java", "kt", "kts", "groovy")
	register(compile(`\btest[ \t]*\([ \t]*"`), "scala")
	register(compile(`\[(?:Test|Fact|Theory|TestMethod|TestCase)\b`), "cs", "fs")
	register(compile(`#\[(?:tokio::)?test\]`), "rs")
	register(compile(`(?m)^[ \t]*(?:it|test|specify)[ \t]+['"]`), "rb")
	register(compile(`(?m)^[ \t]*def[ \t]+test_\w+`), "rb")
	register(compile(`\bfunction[ \t]+test\w*[ \t]*\(`), "php")
	register(compile(`(?m)^[ \t]*(?:override[ \t]+)?func[ \t]+test\w*[ \t]*\(`), "swift")
	register(cFamily, "c", "h", "cpp", "cc", "cxx", "hpp", "hh", "hxx")
	register(compile(`\btest[ \t]*\([ \t]*['"]`), "dart")
	register(compile(`(?m)^[ \t]*test[ \t]+"`), "ex", "exs")
}

func compile(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}

func register(re *regexp.Regexp, exts ...string) {
	for _, ext := range exts {
		TestPatterns[ext] = append(TestPatterns[ext], re)
	}
}
