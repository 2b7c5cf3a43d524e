package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Table(t *testing.T) {
	tests := []struct {
		path  string
		auth  bool
		route Route
	}{
		{"/", false, RouteLogin},
		{"/", true, RouteLogin},
		{"/dashboard", true, RouteDashboard},
		{"/dashboard/", true, RouteDashboard},
		{"/dashboard/repositories", true, RouteRepositories},
		{"/dashboard/repositories/octocat/hello", true, RouteRepoDetails},
		{"/dashboard/generate-summaries", true, RouteSummaries},
		{"/dashboard/generate-tests", true, RouteTests},
		{"/callback?code=abc", false, RouteCallback},
		{"/nope", true, RouteNotFound},
		{"/dashboard/repositories/octocat", true, RouteNotFound},
		{"/dashboard/repositories/a/b/c", true, RouteNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.route, Resolve(tt.path, tt.auth).Route)
		})
	}
}

func TestResolve_GatesDashboard(t *testing.T) {
	for _, p := range []string{
		"/dashboard",
		"/dashboard/repositories",
		"/dashboard/repositories/o/r",
		"/dashboard/generate-summaries",
		"/dashboard/generate-tests",
	} {
		m := Resolve(p, false)
		assert.Equal(t, RouteLogin, m.Route, p)
		assert.Equal(t, PathLogin, m.Path, p)
	}
	// Unknown paths are not gated.
	assert.Equal(t, RouteNotFound, Resolve("/elsewhere", false).Route)
}

func TestMatchPath_RepoParams(t *testing.T) {
	m := MatchPath(RepoPath("octocat", "hello-world"))
	assert.Equal(t, RouteRepoDetails, m.Route)
	assert.Equal(t, "octocat", m.Owner)
	assert.Equal(t, "hello-world", m.Repo)
}

func TestMatchPath_CallbackQuery(t *testing.T) {
	m := MatchPath("/callback?code=xyz&state=1")
	assert.Equal(t, "xyz", m.Query.Get("code"))
}

func TestRouteProtected(t *testing.T) {
	assert.False(t, RouteLogin.Protected())
	assert.False(t, RouteCallback.Protected())
	assert.False(t, RouteNotFound.Protected())
	assert.True(t, RouteTests.Protected())
	assert.Equal(t, "repo-details", RouteRepoDetails.String())
}

func TestRouteInRepository(t *testing.T) {
	for _, r := range []Route{RouteRepoDetails, RouteSummaries, RouteTests} {
		assert.True(t, r.InRepository(), r.String())
	}
	for _, r := range []Route{RouteLogin, RouteDashboard, RouteRepositories, RouteCallback, RouteNotFound} {
		assert.False(t, r.InRepository(), r.String())
	}
}
