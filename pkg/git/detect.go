// Package git provides utilities for detecting git repository information.
package git

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// githubRemote matches the owner/name part of https and ssh GitHub remote
// URLs, with or without a trailing .git.
var githubRemote = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?$`)

// RepoSlug returns the owner/name slug of the current repository's origin
// remote when it points at GitHub. Returns "" when not inside a git repo,
// origin is unset, or the remote is not a GitHub URL.
func RepoSlug() string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "remote", "get-url", "origin").Output()
	if err != nil {
		return ""
	}

	return SlugFromRemote(strings.TrimSpace(string(out)))
}

// SlugFromRemote extracts the owner/name slug from a GitHub remote URL.
// Returns "" when the URL does not point at GitHub.
func SlugFromRemote(url string) string {
	m := githubRemote.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1] + "/" + m[2]
}
