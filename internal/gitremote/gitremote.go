// Package gitremote finds the GitHub repository a working directory belongs to.
package gitremote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ErrNotGitHub is returned when the remote does not point at github.com.
var ErrNotGitHub = errors.New("remote is not a GitHub repository")

// Detect opens the repository containing dir and returns owner and name of
// the given remote (usually "origin").
func Detect(dir, remote string) (owner, name string, err error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", fmt.Errorf("failed to open repository: %w", err)
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return "", "", fmt.Errorf("remote %s: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf("remote %s has no URL", remote)
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner and repository name from a GitHub remote in
// https, ssh or scp-like form.
func ParseRemoteURL(raw string) (owner, name string, err error) {
	raw = strings.TrimSpace(raw)
	var host, path string

	if strings.Contains(raw, "://") {
		u, perr := url.Parse(raw)
		if perr != nil {
			return "", "", fmt.Errorf("parse remote %q: %w", raw, perr)
		}
		host, path = u.Hostname(), u.Path
	} else if at := strings.Index(raw, "@"); at >= 0 && strings.Contains(raw[at:], ":") {
		// git@github.com:owner/repo.git
		rest := raw[at+1:]
		host, path, _ = strings.Cut(rest, ":")
	} else {
		return "", "", fmt.Errorf("unrecognised remote %q", raw)
	}

	if !strings.EqualFold(host, "github.com") && !strings.HasSuffix(strings.ToLower(host), ".github.com") {
		return "", "", fmt.Errorf("%s: %w", host, ErrNotGitHub)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	owner, name, ok := strings.Cut(path, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("unrecognised repository path %q", path)
	}
	return owner, name, nil
}
