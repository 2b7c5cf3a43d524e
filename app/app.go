package app

import (
	"context"
	"os"
	"time"

	"github.com/kastheco/testsmith/config"
	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/errsignal"
	"github.com/kastheco/testsmith/internal/gitremote"
	"github.com/kastheco/testsmith/internal/launch"
	"github.com/kastheco/testsmith/internal/sentry"
	"github.com/kastheco/testsmith/log"
	"github.com/kastheco/testsmith/repobrowser"
	"github.com/kastheco/testsmith/router"
	"github.com/kastheco/testsmith/session"
	"github.com/kastheco/testsmith/ui"
	"github.com/kastheco/testsmith/ui/overlay"
	"github.com/kastheco/testsmith/wizard"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configures Run.
type Options struct {
	Config    *config.Config
	ConfigDir string
	// Repo is an owner/name opened right after login. Empty falls back to
	// the origin remote of the working directory, if it is on GitHub.
	Repo string
}

// Run is the main entrypoint into the application.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	audit, err := auditlog.Open(opts.ConfigDir)
	if err != nil {
		log.WarningLog.Printf("history disabled: %v", err)
	}
	defer func() { _ = audit.Close() }()

	client := backend.NewClient(cfg.BackendURL,
		backend.WithTimeout(cfg.RequestTimeout()),
		backend.WithRateLimit(cfg.RequestsPerSecond),
		backend.WithGitHubAPI(cfg.GitHubAPIURL),
	)
	errs := errsignal.New(cfg.ErrorDismissAfter())
	store := session.NewStore(client, session.NewTokenFile(opts.ConfigDir), errs, session.OAuthConfig{
		AuthorizeURL: cfg.AuthorizeURL,
		ClientID:     cfg.ClientID,
		RedirectURI:  cfg.RedirectURI(),
		Scopes:       cfg.Scopes,
	}, session.WithAuditLogger(audit))

	repo := opts.Repo
	if repo == "" {
		repo = detectRepo()
	}

	h := newHome(ctx, deps{
		cfg:          cfg,
		client:       client,
		store:        store,
		errs:         errs,
		audit:        audit,
		open:         launch.Browser,
		copy:         clipboard.WriteAll,
		glamourStyle: ui.DetectGlamourStyle(),
		initialRepo:  repo,
	})

	p := tea.NewProgram(h, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func detectRepo() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	owner, name, err := gitremote.Detect(wd, "origin")
	if err != nil {
		log.InfoLog.Printf("no github origin in %s: %v", wd, err)
		return ""
	}
	return owner + "/" + name
}

type state int

const (
	stateDefault state = iota
	// stateFilter is the state when the user is filtering the repository list.
	stateFilter
	// stateGoto is the state when the user is typing a route path.
	stateGoto
	// stateHelp is the state when a help screen is displayed.
	stateHelp
	// stateHistory is the state when the activity history is displayed.
	stateHistory
)

// deps are the collaborators of the home model.
type deps struct {
	cfg          *config.Config
	client       *backend.Client
	store        *session.Store
	errs         *errsignal.Signal
	audit        auditlog.Logger
	open         func(string) error
	copy         func(string) error
	glamourStyle string
	initialRepo  string
}

type home struct {
	ctx context.Context

	// -- Services --

	appConfig *config.Config
	client    *backend.Client
	store     *session.Store
	errs      *errsignal.Signal
	audit     auditlog.Logger
	open      func(string) error
	copy      func(string) error

	// browser and wizard belong to the open repository, nil outside one.
	browser *repobrowser.Browser
	wizard  *wizard.Wizard

	// -- Navigation --

	route router.Match
	state state
	repos []backend.Repository
	// reposLoaded is true once the repository list has been fetched.
	reposLoaded  bool
	reposLoading bool
	// summarizing is true from the file fetch until summaries arrive.
	summarizing bool
	// loggingIn is true while the loopback login flow runs.
	loggingIn   bool
	loginCancel context.CancelFunc
	// initialRepo is opened once, after the first successful login.
	initialRepo string

	// -- UI Components --

	repoList     *ui.List
	fileList     *ui.List
	summaryList  *ui.List
	codeView     *ui.CodeView
	historyPane  *ui.HistoryPane
	statusBar    *ui.StatusBar
	menu         *ui.Menu
	toastManager *overlay.ToastManager
	spinner      spinner.Model
	input        textinput.Model

	// keySent is set while a key press is re-sent for menu highlighting.
	keySent bool

	bannerFrame int
	spinTicks   int

	termWidth     int
	termHeight    int
	contentHeight int
}

func newHome(ctx context.Context, d deps) *home {
	input := textinput.New()
	input.Prompt = "/"
	input.CharLimit = 256

	h := &home{
		ctx:          ctx,
		appConfig:    d.cfg,
		client:       d.client,
		store:        d.store,
		errs:         d.errs,
		audit:        d.audit,
		open:         d.open,
		copy:         d.copy,
		initialRepo:  d.initialRepo,
		route:        router.Resolve(router.PathLogin, false),
		repoList:     ui.NewList("repositories", "No repositories."),
		fileList:     ui.NewList("", "This directory is empty."),
		summaryList:  ui.NewList("test summaries", "No summaries."),
		codeView:     ui.NewCodeView(d.glamourStyle),
		historyPane:  ui.NewHistoryPane(),
		statusBar:    ui.NewStatusBar(),
		menu:         ui.NewMenu(),
		toastManager: overlay.NewToastManager(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		input:        input,
	}
	if h.audit == nil {
		h.audit = auditlog.NopLogger()
	}
	if h.open == nil {
		h.open = launch.Browser
	}
	if h.copy == nil {
		h.copy = clipboard.WriteAll
	}
	h.syncChrome()
	return h
}

func (m *home) updateHandleWindowSizeEvent(msg tea.WindowSizeMsg) {
	// Status bar on top, keybind rail at the bottom, one screen in between.
	menuHeight := 1
	if msg.Height < 3 {
		menuHeight = 0
	}
	contentHeight := msg.Height - menuHeight - 1
	if contentHeight < 1 {
		contentHeight = 1
	}
	m.termWidth = msg.Width
	m.termHeight = msg.Height
	m.contentHeight = contentHeight
	m.toastManager.SetSize(msg.Width, msg.Height)
	m.statusBar.SetSize(msg.Width)
	m.menu.SetSize(msg.Width, menuHeight)

	m.repoList.SetSize(msg.Width, contentHeight)
	m.fileList.SetSize(msg.Width, contentHeight)
	m.summaryList.SetSize(m.summaryListWidth(), contentHeight)
	m.codeView.SetSize(msg.Width-2, contentHeight)
	m.historyPane.SetSize(int(float32(msg.Width)*0.7), int(float32(msg.Height)*0.6))
	m.input.Width = msg.Width - 4
}

// summaryListWidth splits the summaries screen: list left, detail right.
func (m *home) summaryListWidth() int {
	w := int(float32(m.termWidth) * 0.4)
	if w < 30 {
		w = min(30, m.termWidth)
	}
	return w
}

func (m *home) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.restoreCmd(),
		m.waitForErrorCmd(),
	)
}

func (m *home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case overlay.ToastTickMsg:
		m.toastManager.Tick()
		if m.toastManager.HasActiveToasts() {
			return m, m.toastTickCmd()
		}
		return m, nil
	case errChangedMsg:
		message, id := m.errs.Current()
		if message == "" {
			m.toastManager.ClearError("")
		} else {
			m.toastManager.Error(id, message)
		}
		return m, tea.Batch(m.waitForErrorCmd(), m.toastTickCmd())
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// Advance the banner about once a second.
		m.spinTicks++
		if m.spinTicks%12 == 0 {
			m.bannerFrame++
		}
		switch m.route.Route {
		case router.RouteSummaries:
			m.refreshSummaries()
		case router.RouteRepoDetails:
			m.refreshFiles()
		}
		m.syncChrome()
		return m, cmd
	case keyupMsg:
		m.menu.ClearKeydown()
		return m, nil
	case restoreDoneMsg:
		return m, m.afterSessionChange()
	case loginDoneMsg:
		m.loggingIn = false
		m.loginCancel = nil
		if msg.err != nil {
			log.WarningLog.Printf("login: %v", msg.err)
			if !reportedLoginFailure(msg.err) {
				m.handleError(apperr.Wrap(apperr.NetworkFailure, msgLoginStartFailed, msg.err))
			}
			return m, m.navigate(router.PathLogin)
		}
		return m, m.afterSessionChange()
	case reposLoadedMsg:
		m.reposLoading = false
		if msg.err != nil {
			return m, nil
		}
		m.repos = msg.repos
		m.reposLoaded = true
		m.repoList.SetItems(ui.RepoItems(m.repos))
		m.syncChrome()
		return m, nil
	case dirLoadedMsg:
		if m.browser == nil || m.browser.FullName() != msg.repo || msg.err != nil {
			return m, nil
		}
		if m.browser.Apply(msg.path, msg.entries) {
			m.fileList.Reset()
			m.refreshFiles()
		}
		return m, nil
	case summariesMsg:
		if m.wizard == nil || m.wizard != msg.wizard {
			return m, nil
		}
		m.summarizing = false
		m.refreshFiles()
		m.syncChrome()
		if msg.err != nil {
			return m, nil
		}
		m.summaryList.Reset()
		return m, m.navigate(router.PathSummaries)
	case codeMsg:
		if m.wizard == nil || m.wizard != msg.wizard {
			return m, nil
		}
		m.refreshSummaries()
		if msg.err != nil {
			m.syncChrome()
			return m, nil
		}
		m.codeView.SetCode(msg.file.Filename, msg.file.Code)
		m.codeView.SetNotice("")
		return m, m.navigate(router.PathTests)
	case prDoneMsg:
		if m.wizard != msg.wizard {
			return m, nil
		}
		m.codeView.SetStatus(m.wizard.PRStatus().String())
		m.syncChrome()
		if msg.err != nil {
			return m, nil
		}
		m.toastManager.Success("Pull request opened")
		return m, m.toastTickCmd()
	case historyLoadedMsg:
		if msg.err != nil {
			return m, m.handleError(msg.err)
		}
		m.historyPane.SetEvents(msg.events)
		return m, nil
	case tea.WindowSizeMsg:
		m.updateHandleWindowSizeEvent(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m *home) handleQuit() (tea.Model, tea.Cmd) {
	if m.loginCancel != nil {
		m.loginCancel()
	}
	return m, tea.Quit
}

func (m *home) View() string {
	var screen string
	switch m.route.Route {
	case router.RouteLogin, router.RouteCallback:
		screen = ui.RenderLogin(m.termWidth, m.contentHeight, m.bannerFrame, m.loginPending(), m.loginURL())
	case router.RouteRepositories, router.RouteDashboard:
		screen = m.repoList.String()
	case router.RouteRepoDetails:
		screen = m.fileList.String()
	case router.RouteSummaries:
		detail := ""
		if sel, ok := m.selectedSummary(); ok {
			detail = ui.RenderSummary(sel, m.termWidth-m.summaryListWidth()-4)
		}
		detailView := lipgloss.NewStyle().Padding(1, 2).
			Width(m.termWidth - m.summaryListWidth()).
			Height(m.contentHeight).
			MaxHeight(m.contentHeight).
			Render(detail)
		screen = lipgloss.JoinHorizontal(lipgloss.Top, m.summaryList.String(), detailView)
	case router.RouteTests:
		screen = lipgloss.NewStyle().PaddingLeft(1).Render(m.codeView.String())
	default:
		screen = ui.RenderNotFound(m.termWidth, m.contentHeight, m.route.Path)
	}

	if m.state == stateFilter || m.state == stateGoto {
		screen = overlay.PlaceOverlay(1, m.contentHeight-2, inputStyle.Render(m.input.View()), screen, false, false)
	}

	mainView := lipgloss.JoinVertical(
		lipgloss.Left,
		m.statusBar.String(),
		screen,
		m.menu.String(),
	)

	var result string
	switch m.state {
	case stateHelp:
		result = overlay.PlaceOverlay(0, 0, helpBoxStyle.Render(helpContent()), mainView, true, true)
	case stateHistory:
		result = overlay.PlaceOverlay(0, 0, helpBoxStyle.Render(m.historyPane.String()), mainView, true, true)
	default:
		result = mainView
	}

	if toastView := m.toastManager.View(); toastView != "" {
		x, y := m.toastManager.GetPosition()
		result = overlay.PlaceOverlay(x, y, toastView, result, false, false)
	}

	// Height-fill so the alt-screen renderer leaves no stale rows.
	return ui.FillBackground(result, m.termHeight)
}

var inputStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ui.ColorIris).
	Padding(0, 1)

var helpBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(ui.ColorIris).
	Padding(1, 2)

// errChangedMsg is sent whenever the error signal changes.
type errChangedMsg struct{}

// restoreDoneMsg is sent when the persisted token has been validated (or not).
type restoreDoneMsg struct {
	err error
}

// loginDoneMsg is sent when the loopback login flow finishes.
type loginDoneMsg struct {
	user backend.User
	err  error
}

type reposLoadedMsg struct {
	repos []backend.Repository
	err   error
}

// dirLoadedMsg carries a directory listing tagged with the repository and
// path it was requested for.
type dirLoadedMsg struct {
	repo    string
	path    string
	entries []backend.Entry
	err     error
}

// summariesMsg, codeMsg and prDoneMsg carry the wizard that issued the
// request so results for a repository the user has left are dropped.
type summariesMsg struct {
	wizard    *wizard.Wizard
	summaries []backend.Summary
	err       error
}

type codeMsg struct {
	wizard *wizard.Wizard
	title  string
	file   backend.GeneratedFile
	err    error
}

type prDoneMsg struct {
	wizard *wizard.Wizard
	url    string
	err    error
}

type historyLoadedMsg struct {
	events []auditlog.Event
	err    error
}

type keyupMsg struct{}

func (m *home) toastTickCmd() tea.Cmd {
	return func() tea.Msg {
		time.Sleep(50 * time.Millisecond)
		return overlay.ToastTickMsg{}
	}
}

// waitForErrorCmd blocks until the error signal changes.
func (m *home) waitForErrorCmd() tea.Cmd {
	changes := m.errs.Changes()
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case <-changes:
			return errChangedMsg{}
		}
	}
}

func (m *home) handleError(err error) tea.Cmd {
	log.ErrorLog.Printf("%v", err)
	m.errs.Report(err)
	return nil
}

// setSentryUser tags crash reports with the signed-in user.
func (m *home) setSentryUser() {
	login := ""
	if u := m.store.User(); u != nil {
		login = u.Login
	}
	sentry.SetContext(login, m.appConfig.BackendURL)
}
