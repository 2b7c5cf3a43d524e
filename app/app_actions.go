package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/repobrowser"
	"github.com/kastheco/testsmith/router"
	"github.com/kastheco/testsmith/wizard"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	msgLoginStartFailed = "Could not start GitHub login. Please try again."
	historyLimit        = 200
)

// reportedLoginFailure reports whether the session store already surfaced
// err. Failures before a code arrives (listener, browser) are not.
func reportedLoginFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch apperr.KindOf(err) {
	case apperr.Unauthenticated, apperr.EmptyInput:
		return true
	}
	return false
}

func (m *home) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		return restoreDoneMsg{err: m.store.Restore(m.ctx)}
	}
}

// startLogin runs the loopback login flow: open the authorize URL, wait for
// the redirect, exchange the code.
func (m *home) startLogin() tea.Cmd {
	if m.loggingIn {
		return nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.loggingIn = true
	m.loginCancel = cancel
	m.syncChrome()
	addr := m.appConfig.RedirectAddr
	return func() tea.Msg {
		user, err := m.store.LoginFlow(ctx, addr)
		return loginDoneMsg{user: user, err: err}
	}
}

func (m *home) completeLoginCmd(code string) tea.Cmd {
	return func() tea.Msg {
		user, err := m.store.CompleteLogin(m.ctx, code)
		return loginDoneMsg{user: user, err: err}
	}
}

func (m *home) loadReposCmd() tea.Cmd {
	m.reposLoading = true
	return func() tea.Msg {
		repos, err := repobrowser.ListRepositories(m.ctx, m.client, m.store, m.errs)
		return reposLoadedMsg{repos: repos, err: err}
	}
}

// loadDirCmd fetches the browser's current directory. The result is tagged
// with the path so a listing that arrives after the user moved on is dropped.
func (m *home) loadDirCmd() tea.Cmd {
	b := m.browser
	if b == nil {
		return nil
	}
	path := b.Path()
	repo := b.FullName()
	return func() tea.Msg {
		entries, err := b.FetchDirectory(m.ctx, path)
		return dirLoadedMsg{repo: repo, path: path, entries: entries, err: err}
	}
}

// summarizeCmd fetches the selected files and requests their summaries.
func (m *home) summarizeCmd() tea.Cmd {
	b, w := m.browser, m.wizard
	if b == nil || w == nil || m.summarizing {
		return nil
	}
	if w.Stage() != wizard.StageBrowsing {
		// Summaries from an earlier request are still on hand.
		return m.navigate(router.PathSummaries)
	}
	m.summarizing = len(b.Selected()) > 0
	m.refreshFiles()
	m.syncChrome()
	return func() tea.Msg {
		files, err := b.FetchSelected(m.ctx)
		if err != nil {
			return summariesMsg{wizard: w, err: err}
		}
		summaries, err := w.RequestSummaries(m.ctx, files)
		return summariesMsg{wizard: w, summaries: summaries, err: err}
	}
}

func (m *home) codeCmd(summary backend.Summary) tea.Cmd {
	w := m.wizard
	if w == nil || w.Generating(summary.Title) {
		return nil
	}
	return func() tea.Msg {
		file, err := w.RequestCode(m.ctx, summary)
		return codeMsg{wizard: w, title: summary.Title, file: file, err: err}
	}
}

func (m *home) createPRCmd() tea.Cmd {
	b, w := m.browser, m.wizard
	if b == nil || w == nil || w.PRStatus() == wizard.PRPending {
		return nil
	}
	repo := b.FullName()
	files := w.Generated()
	m.codeView.SetStatus(wizard.PRPending.String())
	return func() tea.Msg {
		url, err := w.CreatePullRequest(m.ctx, repo, files)
		return prDoneMsg{wizard: w, url: url, err: err}
	}
}

// currentFile is the generated file shown in the code view.
func (m *home) currentFile() (backend.GeneratedFile, bool) {
	if m.wizard == nil {
		return backend.GeneratedFile{}, false
	}
	files := m.wizard.Generated()
	if len(files) == 0 {
		return backend.GeneratedFile{}, false
	}
	return files[0], true
}

func (m *home) copyCode() tea.Cmd {
	file, ok := m.currentFile()
	if !ok {
		return nil
	}
	if err := m.wizard.CopyCode(file); err != nil {
		return nil
	}
	m.codeView.SetNotice("Copied!")
	m.toastManager.Success("Copied to clipboard")
	return m.toastTickCmd()
}

func (m *home) saveCode() tea.Cmd {
	file, ok := m.currentFile()
	if !ok {
		return nil
	}
	path, err := m.wizard.SaveCode(m.appConfig.DownloadDir, file)
	if err != nil {
		return nil
	}
	m.codeView.SetNotice("Saved")
	m.toastManager.Success(fmt.Sprintf("Saved to %s", path))
	return m.toastTickCmd()
}

// loadHistoryCmd reads recent activity, narrowed to the open repository.
func (m *home) loadHistoryCmd() tea.Cmd {
	filter := auditlog.QueryFilter{Limit: historyLimit}
	label := "all"
	if m.browser != nil {
		filter.Repo = m.browser.FullName()
		label = filter.Repo
	}
	m.historyPane.SetFilter(label)
	audit := m.audit
	return func() tea.Msg {
		events, err := audit.Query(filter)
		return historyLoadedMsg{events: events, err: err}
	}
}
