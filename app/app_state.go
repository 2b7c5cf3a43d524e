package app

import (
	"fmt"
	"strings"

	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/repobrowser"
	"github.com/kastheco/testsmith/router"
	"github.com/kastheco/testsmith/session"
	"github.com/kastheco/testsmith/ui"
	"github.com/kastheco/testsmith/wizard"

	tea "github.com/charmbracelet/bubbletea"
)

// navigate resolves path against the route table and switches to its
// screen, returning whatever loading the screen needs. Screens whose data
// does not exist yet fall back to the nearest screen that can produce it.
func (m *home) navigate(path string) tea.Cmd {
	match := router.Resolve(path, m.store.Authenticated())
	if !match.Route.InRepository() {
		m.closeRepo()
	}

	var cmd tea.Cmd
	switch match.Route {
	case router.RouteLogin:
		if m.store.Authenticated() {
			return m.navigate(router.PathRepositories)
		}
	case router.RouteDashboard:
		return m.navigate(router.PathRepositories)
	case router.RouteRepositories:
		if !m.reposLoaded && !m.reposLoading {
			cmd = m.loadReposCmd()
		}
	case router.RouteRepoDetails:
		cmd = m.openRepo(match.Owner, match.Repo)
	case router.RouteSummaries:
		if m.wizard == nil || m.wizard.Stage() != wizard.StageSummariesReady {
			return m.navigate(m.repoPath())
		}
		m.refreshSummaries()
	case router.RouteTests:
		if m.wizard == nil || m.wizard.Stage() != wizard.StageCodeReady {
			return m.navigate(router.PathSummaries)
		}
		m.codeView.SetStatus(m.wizard.PRStatus().String())
	case router.RouteCallback:
		code := match.Query.Get("code")
		if code == "" {
			m.errs.Report(apperr.New(apperr.Unauthenticated, session.MsgMissingCode))
			return m.navigate(router.PathLogin)
		}
		cmd = m.completeLoginCmd(code)
	}

	m.route = match
	m.syncChrome()
	return cmd
}

// repoPath is the path of the open repository, or the repository list.
func (m *home) repoPath() string {
	if m.browser == nil {
		return router.PathRepositories
	}
	owner, name, _ := strings.Cut(m.browser.FullName(), "/")
	return router.RepoPath(owner, name)
}

// openRepo makes owner/name the open repository. Returning to the same
// repository from its summaries or tests keeps its directory, selection and
// wizard state.
func (m *home) openRepo(owner, name string) tea.Cmd {
	full := owner + "/" + name
	if m.browser == nil || m.browser.FullName() != full {
		m.browser = repobrowser.New(m.client, m.store, m.errs, owner, name,
			repobrowser.WithConcurrency(m.appConfig.FetchConcurrency))
		m.wizard = wizard.New(m.client, m.store, m.errs,
			wizard.WithOpener(m.open),
			wizard.WithClipboard(m.copy),
			wizard.WithAuditLogger(m.audit),
			wizard.WithRepo(full),
			wizard.WithDefaultFramework(m.appConfig.DefaultFramework),
		)
		m.summarizing = false
		m.fileList.Reset()
		m.summaryList.Reset()
	}
	m.fileList.SetTitle(full)
	m.refreshFiles()
	if _, loaded := m.browser.Entries(); !loaded {
		return m.loadDirCmd()
	}
	return nil
}

// closeRepo discards the open repository with its directory, selection and
// wizard. Results still in flight for it are dropped on arrival.
func (m *home) closeRepo() {
	if m.browser == nil {
		return
	}
	m.browser = nil
	m.wizard = nil
	m.summarizing = false
	m.fileList.SetItems(nil)
	m.fileList.Reset()
	m.summaryList.Reset()
}

// afterSessionChange moves off the login screen once the session has a user.
func (m *home) afterSessionChange() tea.Cmd {
	if !m.store.Authenticated() {
		return m.navigate(router.PathLogin)
	}
	m.setSentryUser()
	if m.initialRepo != "" {
		owner, name, ok := strings.Cut(m.initialRepo, "/")
		m.initialRepo = ""
		if ok && owner != "" && name != "" {
			return m.navigate(router.RepoPath(owner, name))
		}
	}
	switch m.route.Route {
	case router.RouteLogin, router.RouteCallback:
		return m.navigate(router.PathRepositories)
	}
	m.syncChrome()
	return nil
}

// logout forgets the session and everything loaded with it.
func (m *home) logout() tea.Cmd {
	if err := m.store.Logout(); err != nil {
		m.handleError(err)
	}
	m.repos = nil
	m.reposLoaded = false
	m.closeRepo()
	m.repoList.SetFilter("")
	m.repoList.SetItems(nil)
	m.repoList.Reset()
	return m.navigate(router.PathLogin)
}

// loginPending reports whether the login screen should show the waiting
// message instead of the prompt.
func (m *home) loginPending() bool {
	return m.loggingIn || m.store.Status() == session.StatusLoading
}

func (m *home) loginURL() string {
	if !m.loggingIn {
		return ""
	}
	return m.store.AuthorizationURL()
}

// refreshFiles rebuilds the file list from the browser.
func (m *home) refreshFiles() {
	if m.browser == nil {
		return
	}
	entries, loaded := m.browser.Entries()
	if loaded {
		m.fileList.SetEmptyText("This directory is empty.")
	} else {
		m.fileList.SetEmptyText(m.spinner.View() + " Loading...")
	}
	m.fileList.SetItems(ui.EntryItems(entries, m.browser.IsSelected))
	m.fileList.SetSubtitle("/ " + strings.Join(m.browser.Breadcrumb(), " / "))

	n := len(m.browser.Selected())
	switch {
	case m.summarizing:
		m.fileList.SetFooter(fmt.Sprintf("%s Summarizing %d files...", m.spinner.View(), n))
	case n == 1:
		m.fileList.SetFooter("1 file selected")
	case n > 1:
		m.fileList.SetFooter(fmt.Sprintf("%d files selected", n))
	default:
		m.fileList.SetFooter("")
	}
}

// refreshSummaries rebuilds the summary list from the wizard.
func (m *home) refreshSummaries() {
	if m.wizard == nil {
		return
	}
	generated := make(map[string]bool)
	for _, f := range m.wizard.Generated() {
		generated[f.Filename] = true
	}
	m.summaryList.SetItems(ui.SummaryItems(m.wizard.Summaries(),
		m.wizard.Generating,
		func(title string) bool { return generated[title] },
		m.spinner.View(),
	))
	if files := m.wizard.Files(); len(files) > 0 {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.Filename
		}
		m.summaryList.SetSubtitle(strings.Join(names, ", "))
	}
}

func (m *home) selectedSummary() (backend.Summary, bool) {
	sel, ok := m.summaryList.Selected()
	if !ok || m.wizard == nil {
		return backend.Summary{}, false
	}
	for _, s := range m.wizard.Summaries() {
		if s.Title == sel.Key {
			return s, true
		}
	}
	return backend.Summary{}, false
}

// busyLabel names the in-flight work shown in the status bar.
func (m *home) busyLabel() string {
	switch {
	case m.reposLoading:
		return m.spinner.View() + " loading"
	case m.summarizing:
		return m.spinner.View() + " summarizing"
	case m.wizard != nil && m.wizard.PRStatus() == wizard.PRPending:
		return m.spinner.View() + " creating pr"
	case m.wizard != nil && m.anyGenerating():
		return m.spinner.View() + " generating"
	}
	return ""
}

func (m *home) anyGenerating() bool {
	for _, s := range m.wizard.Summaries() {
		if m.wizard.Generating(s.Title) {
			return true
		}
	}
	return false
}

// syncChrome updates the status bar and menu for the current route and state.
func (m *home) syncChrome() {
	data := ui.StatusBarData{
		Screen: m.route.Route.String(),
		Busy:   m.busyLabel(),
	}
	if u := m.store.User(); u != nil {
		data.Login = u.Login
	}
	switch m.route.Route {
	case router.RouteRepoDetails, router.RouteSummaries, router.RouteTests:
		if m.browser != nil {
			data.Repo = m.browser.FullName()
			if m.route.Route == router.RouteRepoDetails {
				data.Path = m.browser.Path()
			}
		}
	}
	m.statusBar.SetData(data)

	m.menu.SetEnterLabel("")
	switch {
	case m.state == stateFilter || m.state == stateGoto:
		m.menu.SetState(ui.StateFilter)
	case m.state == stateHistory:
		m.menu.SetState(ui.StateHistory)
	default:
		switch m.route.Route {
		case router.RouteLogin, router.RouteCallback:
			if m.loginPending() {
				m.menu.SetState(ui.StateLoggingIn)
			} else {
				m.menu.SetState(ui.StateLogin)
			}
		case router.RouteRepositories, router.RouteDashboard:
			m.menu.SetState(ui.StateRepositories)
		case router.RouteRepoDetails:
			m.menu.SetState(ui.StateBrowse)
		case router.RouteSummaries:
			m.menu.SetState(ui.StateSummaries)
			m.menu.SetEnterLabel("generate tests")
		case router.RouteTests:
			m.menu.SetState(ui.StateCode)
		default:
			m.menu.SetState(ui.StateNotFound)
		}
	}
}
