package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRemoteURL(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"https://github.com/owner/repo.git", true},
		{"http://example.com/owner/repo", true},
		{"git://github.com/owner/repo.git", true},
		{"ssh://git@github.com/owner/repo.git", true},
		{"file:///srv/git/repo.git", true},
		{"git@github.com:owner/repo.git", true},
		{".", false},
		{"/home/me/src/repo", false},
		{"../repo", false},
		{`C:\src\repo`, false},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRemoteURL(tt.source))
		})
	}
}

func TestRepoName(t *testing.T) {
	tests := map[string]string{
		"https://github.com/owner/repo.git": "repo",
		"git@github.com:owner/tool.git":     "tool",
		"/home/me/src/project/":             "project",
		"":                                  "repo",
	}
	for in, want := range tests {
		assert.Equal(t, want, RepoName(in), in)
	}
}
