// Package router maps URL-style paths to screens and gates the dashboard
// behind authentication.
package router

import (
	"net/url"
	"strings"
)

// Route identifies a screen.
type Route int

const (
	RouteNotFound Route = iota
	RouteLogin
	RouteDashboard
	RouteRepositories
	RouteRepoDetails
	RouteSummaries
	RouteTests
	RouteCallback
)

// Paths of the fixed routes.
const (
	PathLogin        = "/"
	PathDashboard    = "/dashboard"
	PathRepositories = "/dashboard/repositories"
	PathSummaries    = "/dashboard/generate-summaries"
	PathTests        = "/dashboard/generate-tests"
	PathCallback     = "/callback"
)

func (r Route) String() string {
	switch r {
	case RouteLogin:
		return "login"
	case RouteDashboard:
		return "dashboard"
	case RouteRepositories:
		return "repositories"
	case RouteRepoDetails:
		return "repo-details"
	case RouteSummaries:
		return "generate-summaries"
	case RouteTests:
		return "generate-tests"
	case RouteCallback:
		return "callback"
	default:
		return "not-found"
	}
}

// Protected reports whether the route requires an authenticated session.
func (r Route) Protected() bool {
	switch r {
	case RouteDashboard, RouteRepositories, RouteRepoDetails, RouteSummaries, RouteTests:
		return true
	}
	return false
}

// InRepository reports whether the route belongs to an open repository:
// its file browser or one of its generation screens.
func (r Route) InRepository() bool {
	switch r {
	case RouteRepoDetails, RouteSummaries, RouteTests:
		return true
	}
	return false
}

// Match is a resolved path.
type Match struct {
	Route Route
	Path  string
	// Owner and Repo are set for RouteRepoDetails.
	Owner string
	Repo  string
	// Query carries the query string, e.g. the OAuth code on /callback.
	Query url.Values
}

// MatchPath resolves path against the route table without considering
// authentication. Trailing slashes are ignored.
func MatchPath(path string) Match {
	raw, query, _ := strings.Cut(path, "?")
	values, _ := url.ParseQuery(query)

	clean := "/" + strings.Trim(raw, "/")
	m := Match{Path: clean, Query: values}

	switch clean {
	case PathLogin:
		m.Route = RouteLogin
	case PathDashboard:
		m.Route = RouteDashboard
	case PathRepositories:
		m.Route = RouteRepositories
	case PathSummaries:
		m.Route = RouteSummaries
	case PathTests:
		m.Route = RouteTests
	case PathCallback:
		m.Route = RouteCallback
	default:
		m.Route = RouteNotFound
		rest, ok := strings.CutPrefix(clean, PathRepositories+"/")
		if !ok {
			break
		}
		owner, repo, ok := strings.Cut(rest, "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			break
		}
		m.Route = RouteRepoDetails
		m.Owner, _ = url.PathUnescape(owner)
		m.Repo, _ = url.PathUnescape(repo)
	}
	return m
}

// Resolve matches path and sends unauthenticated users on protected routes
// to the login screen.
func Resolve(path string, authenticated bool) Match {
	m := MatchPath(path)
	if m.Route.Protected() && !authenticated {
		return Match{Route: RouteLogin, Path: PathLogin, Query: url.Values{}}
	}
	return m
}

// RepoPath returns the path of a repository screen.
func RepoPath(owner, repo string) string {
	return PathRepositories + "/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}
