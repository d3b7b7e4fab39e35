package git

import (
	"regexp"
	"strings"
)

var (
	schemeURL = regexp.MustCompile(`^(?:https?|git|ssh|file)://`)
	scpURL    = regexp.MustCompile(`^[\w.-]+@[^:/]+:[^/].*`)
)

// IsRemoteURL reports whether source names a repository to clone rather than
// a local path. Recognised forms:
//   - https://host/owner/repo(.git), http://, git://, ssh://, file://
//   - scp-like user@host:owner/repo(.git)
func IsRemoteURL(source string) bool {
	source = strings.TrimSpace(source)
	return schemeURL.MatchString(source) || scpURL.MatchString(source)
}

// RepoName returns the last path element of a URL or path, without ".git".
// It names the clone directory and labels stored runs.
func RepoName(source string) string {
	s := strings.TrimRight(strings.TrimSpace(source), "/")
	s = strings.TrimSuffix(s, ".git")
	if i := strings.LastIndexAny(s, "/:\\"); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "repo"
	}
	return s
}
