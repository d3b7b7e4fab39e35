// Package classify decides from a path alone whether a file is code,
// documentation or neither, whether it lives somewhere generated or vendored,
// and whether it is a test file.
package classify

import (
	"strings"
)

// Category is the content category of a path.
type Category int

const (
	None Category = iota
	Code
	Doc
)

// String returns the lower-case category name
func (c Category) String() string {
	switch c {
	case Code:
		return "code"
	case Doc:
		return "doc"
	default:
		return "none"
	}
}

// Extension returns the lower-cased extension of path without the dot, taken
// from the last path segment. Dotfiles such as ".bashrc" have extension
// "bashrc"; names without a dot have none.
func Extension(path string) string {
	name := baseName(path)
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Classify maps path to Code, Doc or None from its extension. The two
// extension sets are disjoint so a path never falls in both.
func Classify(path string) Category {
	ext := Extension(path)
	if ext == "" {
		return None
	}
	if _, ok := CodeExtensions[ext]; ok {
		return Code
	}
	if _, ok := DocExtensions[ext]; ok {
		return Doc
	}
	return None
}

// ShouldSkipPath reports whether any segment of path names an ignored
// directory. Only code files are subject to this; documentation is counted
// wherever it lives.
func ShouldSkipPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if _, ok := IgnoredDirs[strings.ToLower(seg)]; ok {
			return true
		}
	}
	return false
}

// IsTestPath reports whether path looks like a test file, either because a
// directory segment hints at tests or because the file name carries a test
// prefix or suffix.
func IsTestPath(path string) bool {
	segs := strings.Split(path, "/")
	for _, dir := range segs[:len(segs)-1] {
		d := strings.ToLower(dir)
		for _, hint := range testDirHints {
			if d == hint || strings.Contains(d, hint) {
				return true
			}
		}
	}

	stem := segs[len(segs)-1]
	if i := strings.LastIndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}
	lower := strings.ToLower(stem)

	for _, p := range testPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, s := range testSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	for _, s := range testCamelSuffixes {
		if len(stem) > len(s) && strings.HasSuffix(stem, s) {
			return true
		}
	}
	return false
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
