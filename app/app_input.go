package app

import (
	"strings"
	"time"

	"github.com/kastheco/testsmith/keys"
	"github.com/kastheco/testsmith/router"
	"github.com/kastheco/testsmith/wizard"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *home) handleMenuHighlighting(msg tea.KeyMsg) (cmd tea.Cmd, returnEarly bool) {
	// Handle menu highlighting when you press a button. We intercept it here and immediately return to
	// update the ui while re-sending the keypress. Then, on the next call to this, we actually handle the keypress.
	if m.keySent {
		m.keySent = false
		return nil, false
	}
	if m.state != stateDefault {
		return nil, false
	}
	name, ok := keys.GlobalKeyStringsMap[msg.String()]
	if !ok || name == keys.KeyUp || name == keys.KeyDown {
		return nil, false
	}
	m.keySent = true
	return tea.Batch(
		func() tea.Msg { return msg },
		m.keydownCallback(name)), true
}

func (m *home) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.handleQuit()
	}
	cmd, returnEarly := m.handleMenuHighlighting(msg)
	if returnEarly {
		return m, cmd
	}
	defer m.syncChrome()

	switch m.state {
	case stateFilter, stateGoto:
		return m.handleInputState(msg)
	case stateHelp:
		// Any key press closes the help overlay.
		m.state = stateDefault
		return m, nil
	case stateHistory:
		return m.handleHistoryState(msg)
	}

	name, ok := keys.GlobalKeyStringsMap[msg.String()]
	if !ok {
		return m, nil
	}

	switch name {
	case keys.KeyQuit:
		return m.handleQuit()
	case keys.KeyHelp:
		m.state = stateHelp
		return m, nil
	case keys.KeyHistory:
		m.state = stateHistory
		return m, m.loadHistoryCmd()
	case keys.KeyGoto:
		return m, m.openInput(stateGoto, ":", m.route.Path)
	}

	switch m.route.Route {
	case router.RouteLogin, router.RouteCallback:
		if name == keys.KeyLogin {
			return m, m.startLogin()
		}
	case router.RouteRepositories, router.RouteDashboard:
		return m, m.handleRepositoriesKey(name)
	case router.RouteRepoDetails:
		return m, m.handleBrowseKey(name)
	case router.RouteSummaries:
		return m, m.handleSummariesKey(name)
	case router.RouteTests:
		return m, m.handleTestsKey(name)
	default:
		if name == keys.KeyBack || name == keys.KeyEnter {
			return m, m.navigate(router.PathDashboard)
		}
	}
	return m, nil
}

// openInput shows the one-line input used by the filter and goto states.
func (m *home) openInput(s state, prompt, value string) tea.Cmd {
	m.state = s
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *home) closeInput() {
	m.state = stateDefault
	m.input.Blur()
}

func (m *home) handleInputState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		wasGoto := m.state == stateGoto
		m.closeInput()
		if wasGoto && value != "" {
			if !strings.HasPrefix(value, "/") {
				value = "/" + value
			}
			return m, m.navigate(value)
		}
		return m, nil
	case tea.KeyEsc:
		if m.state == stateFilter {
			m.repoList.SetFilter("")
		}
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.state == stateFilter {
		m.repoList.SetFilter(m.input.Value())
	}
	return m, cmd
}

func (m *home) handleHistoryState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name, ok := keys.GlobalKeyStringsMap[msg.String()]
	if msg.Type == tea.KeyEsc {
		name, ok = keys.KeyBack, true
	}
	if !ok {
		return m, nil
	}
	switch name {
	case keys.KeyUp:
		m.historyPane.ScrollUp(1)
	case keys.KeyDown:
		m.historyPane.ScrollDown(1)
	case keys.KeyBack, keys.KeyQuit, keys.KeyHistory, keys.KeyHelp:
		m.state = stateDefault
	}
	return m, nil
}

func (m *home) handleRepositoriesKey(name keys.KeyName) tea.Cmd {
	switch name {
	case keys.KeyUp:
		m.repoList.Up()
	case keys.KeyDown:
		m.repoList.Down()
	case keys.KeyEnter:
		sel, ok := m.repoList.Selected()
		if !ok {
			return nil
		}
		owner, repo, _ := strings.Cut(sel.Key, "/")
		return m.navigate(router.RepoPath(owner, repo))
	case keys.KeySearch:
		return m.openInput(stateFilter, "/", m.repoList.Filter())
	case keys.KeyRefresh:
		if m.reposLoading {
			return nil
		}
		m.reposLoaded = false
		return m.loadReposCmd()
	case keys.KeyLogout:
		return m.logout()
	}
	return nil
}

func (m *home) handleBrowseKey(name keys.KeyName) tea.Cmd {
	if m.browser == nil {
		return nil
	}
	switch name {
	case keys.KeyUp:
		m.fileList.Up()
	case keys.KeyDown:
		m.fileList.Down()
	case keys.KeyEnter, keys.KeySelect:
		sel, ok := m.fileList.Selected()
		if !ok {
			return nil
		}
		entries, _ := m.browser.Entries()
		for _, e := range entries {
			if e.Path != sel.Key {
				continue
			}
			if e.IsDir() {
				if name == keys.KeySelect {
					return nil
				}
				if _, err := m.browser.EnterDirectory(e); err != nil {
					return nil
				}
				m.fileList.Reset()
				m.refreshFiles()
				return m.loadDirCmd()
			}
			m.browser.ToggleFileSelection(e.Path)
			m.refreshFiles()
			return nil
		}
	case keys.KeyGoUp:
		before := m.browser.Path()
		if m.browser.GoUp() == before {
			return nil
		}
		m.fileList.Reset()
		m.refreshFiles()
		return m.loadDirCmd()
	case keys.KeyGenerate:
		return m.summarizeCmd()
	case keys.KeyRefresh:
		return m.loadDirCmd()
	case keys.KeyBack:
		return m.navigate(router.PathRepositories)
	case keys.KeyLogout:
		return m.logout()
	}
	return nil
}

func (m *home) handleSummariesKey(name keys.KeyName) tea.Cmd {
	switch name {
	case keys.KeyUp:
		m.summaryList.Up()
	case keys.KeyDown:
		m.summaryList.Down()
	case keys.KeyEnter:
		summary, ok := m.selectedSummary()
		if !ok {
			return nil
		}
		cmd := m.codeCmd(summary)
		m.refreshSummaries()
		return cmd
	case keys.KeyBack:
		m.wizard.Back()
		return m.navigate(m.repoPath())
	}
	return nil
}

func (m *home) handleTestsKey(name keys.KeyName) tea.Cmd {
	switch name {
	case keys.KeyUp:
		m.codeView.ScrollUp(1)
	case keys.KeyDown:
		m.codeView.ScrollDown(1)
	case keys.KeyCreatePR:
		return m.createPRCmd()
	case keys.KeyCopy:
		return m.copyCode()
	case keys.KeySave:
		return m.saveCode()
	case keys.KeyBack:
		if m.wizard.PRStatus() == wizard.PRPending {
			return nil
		}
		m.wizard.Back()
		return m.navigate(router.PathSummaries)
	}
	return nil
}

// keydownCallback clears the menu option highlighting after 500ms.
func (m *home) keydownCallback(name keys.KeyName) tea.Cmd {
	m.menu.Keydown(name)
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
		case <-time.After(500 * time.Millisecond):
		}

		return keyupMsg{}
	}
}
