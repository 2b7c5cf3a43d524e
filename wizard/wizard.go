// Package wizard drives summary generation, code generation and pull request
// creation for one repository.
//
// The wizard moves forward through Browsing, SummariesReady and CodeReady.
// Back steps one stage backwards and discards everything produced by the
// stage it leaves. Pull request creation is a side action of CodeReady whose
// outcome is tracked as a PRStatus rather than a further stage.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/errsignal"
	"github.com/kastheco/testsmith/internal/launch"
	"github.com/kastheco/testsmith/log"
	"github.com/kastheco/testsmith/repobrowser"
)

// User-facing messages.
const (
	MsgNoFiles         = "Select at least one file to generate test summaries."
	MsgSummariesFailed = "Failed to generate test summaries."
	MsgMissingCodeData = "Missing data to generate test code."
	MsgCodeFailed      = "Failed to generate test code."
	MsgMissingPRData   = "Missing data to create pull request."
	MsgNoValidFiles    = "No valid test files to create a pull request."
	MsgPRFailed        = "Failed to create PR. Please check your GitHub permissions or try again."
	MsgCopyFailed      = "Failed to copy code to clipboard."
	MsgSaveFailed      = "Failed to save test file."
)

const (
	savedFileSuffix = ".test.txt"
	saveDirPerm     = 0o755
	savedFilePerm   = 0o644
)

var (
	// ErrPRInFlight is returned while a pull request request is pending.
	ErrPRInFlight = errors.New("pull request creation already in progress")
	// ErrCodeInFlight is returned when code for the same summary is already
	// being generated.
	ErrCodeInFlight = errors.New("code generation already in progress for this summary")
	// ErrSummariesInFlight is returned while summaries are being generated.
	ErrSummariesInFlight = errors.New("summary generation already in progress")
	// ErrStale is returned when a result arrives after the user left the
	// stage that requested it.
	ErrStale = errors.New("result no longer applies")
)

// Stage is the wizard's position in the flow.
type Stage int

const (
	StageBrowsing Stage = iota
	StageSummariesReady
	StageCodeReady
)

func (s Stage) String() string {
	switch s {
	case StageSummariesReady:
		return "summaries_ready"
	case StageCodeReady:
		return "code_ready"
	default:
		return "browsing"
	}
}

// PRStatus is the outcome of the last pull request attempt.
type PRStatus int

const (
	PRNone PRStatus = iota
	PRPending
	PRSuccess
	PRFailed
)

func (p PRStatus) String() string {
	switch p {
	case PRPending:
		return "Creating..."
	case PRSuccess:
		return "Success!"
	case PRFailed:
		return "Failed"
	default:
		return "Create PR"
	}
}

// Client is the subset of the backend client used by the wizard.
type Client interface {
	GenerateSummaries(ctx context.Context, files []backend.FileInput) ([]backend.Summary, error)
	GenerateTestCode(ctx context.Context, token, summary, framework string) (string, error)
	CreatePullRequest(ctx context.Context, token string, req backend.CreatePRRequest) (string, error)
}

// Identity supplies the token and the user for audit records.
type Identity interface {
	Token() string
	User() *backend.User
}

// Wizard is safe for concurrent use.
type Wizard struct {
	client    Client
	identity  Identity
	errs      errsignal.Sink
	open      launch.Opener
	copy      func(string) error
	audit     auditlog.Logger
	repo      string
	framework string

	mu    sync.Mutex
	stage Stage
	// epoch changes whenever the summaries are replaced or discarded. Code
	// results from an older epoch are stale.
	epoch uint64

	files            []backend.FileInput
	summaries        []backend.Summary
	summariesPending bool
	generating       map[string]bool
	generated        []backend.GeneratedFile
	prStatus         PRStatus
	prURL            string
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithOpener replaces the browser launcher used for the pull request URL.
func WithOpener(open launch.Opener) Option {
	return func(w *Wizard) { w.open = open }
}

// WithClipboard replaces the clipboard writer used by CopyCode.
func WithClipboard(write func(string) error) Option {
	return func(w *Wizard) { w.copy = write }
}

// WithAuditLogger records generations and pull requests.
func WithAuditLogger(l auditlog.Logger) Option {
	return func(w *Wizard) { w.audit = l }
}

// WithRepo tags audit records with the repository full name.
func WithRepo(fullName string) Option {
	return func(w *Wizard) { w.repo = fullName }
}

// WithDefaultFramework is sent when a summary names no framework.
func WithDefaultFramework(name string) Option {
	return func(w *Wizard) { w.framework = name }
}

// New creates a wizard in the Browsing stage.
func New(c Client, identity Identity, errs errsignal.Sink, opts ...Option) *Wizard {
	w := &Wizard{
		client:     c,
		identity:   identity,
		errs:       errs,
		open:       launch.Browser,
		copy:       clipboard.WriteAll,
		audit:      auditlog.NopLogger(),
		generating: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RequestSummaries submits files and moves to SummariesReady on success.
func (w *Wizard) RequestSummaries(ctx context.Context, files []repobrowser.File) ([]backend.Summary, error) {
	if len(files) == 0 {
		err := apperr.New(apperr.EmptyInput, MsgNoFiles)
		w.errs.Report(err)
		return nil, err
	}

	w.mu.Lock()
	if w.stage != StageBrowsing {
		w.mu.Unlock()
		return nil, fmt.Errorf("request summaries in stage %s: %w", w.stage, ErrStale)
	}
	if w.summariesPending {
		w.mu.Unlock()
		return nil, ErrSummariesInFlight
	}
	w.summariesPending = true
	w.mu.Unlock()

	inputs := make([]backend.FileInput, len(files))
	for i, f := range files {
		inputs[i] = backend.FileInput{Filename: backend.BaseName(f.Path), Content: f.Content}
	}

	summaries, err := w.client.GenerateSummaries(ctx, inputs)

	w.mu.Lock()
	w.summariesPending = false
	if err != nil {
		w.mu.Unlock()
		genErr := classify(err, MsgSummariesFailed)
		w.fail(genErr)
		return nil, genErr
	}
	if w.stage != StageBrowsing {
		w.mu.Unlock()
		return nil, ErrStale
	}
	w.stage = StageSummariesReady
	w.epoch++
	w.files = inputs
	w.summaries = summaries
	w.mu.Unlock()

	w.emit(auditlog.EventSummariesGenerated,
		fmt.Sprintf("%d summaries from %d files", len(summaries), len(inputs)),
		auditlog.WithPath(joinNames(inputs)))
	return summaries, nil
}

// RequestCode generates code for one summary and moves to CodeReady with that
// single file. Requests for different summaries are independent and the last
// one to finish wins; a second request for a summary already in flight is
// rejected. Results for summaries that were discarded meanwhile are stale.
func (w *Wizard) RequestCode(ctx context.Context, summary backend.Summary) (backend.GeneratedFile, error) {
	w.mu.Lock()
	if w.stage != StageSummariesReady {
		w.mu.Unlock()
		err := apperr.New(apperr.Internal, MsgMissingCodeData)
		w.errs.Report(err)
		return backend.GeneratedFile{}, err
	}
	if w.generating[summary.Title] {
		w.mu.Unlock()
		return backend.GeneratedFile{}, ErrCodeInFlight
	}
	token := w.identity.Token()
	if token == "" {
		w.mu.Unlock()
		err := apperr.New(apperr.Unauthenticated, MsgMissingCodeData)
		w.errs.Report(err)
		return backend.GeneratedFile{}, err
	}
	w.generating[summary.Title] = true
	epoch := w.epoch
	w.mu.Unlock()

	framework := summary.Framework
	if framework == "" {
		framework = w.framework
	}
	code, err := w.client.GenerateTestCode(ctx, token, summary.Description, framework)

	w.mu.Lock()
	delete(w.generating, summary.Title)
	if err != nil {
		w.mu.Unlock()
		genErr := classify(err, MsgCodeFailed)
		w.fail(genErr)
		return backend.GeneratedFile{}, genErr
	}
	if w.epoch != epoch || (w.stage != StageSummariesReady && w.stage != StageCodeReady) {
		w.mu.Unlock()
		return backend.GeneratedFile{}, ErrStale
	}
	file := backend.GeneratedFile{Filename: summary.Title, Code: code}
	w.generated = []backend.GeneratedFile{file}
	w.stage = StageCodeReady
	if w.prStatus != PRPending {
		w.prStatus = PRNone
		w.prURL = ""
	}
	w.mu.Unlock()

	w.emit(auditlog.EventCodeGenerated, summary.Title, auditlog.WithPath(summary.File))
	return file, nil
}

// CreatePullRequest opens a pull request on repo with the valid entries of
// files and opens its URL. Only one request may be pending.
func (w *Wizard) CreatePullRequest(ctx context.Context, repo string, files []backend.GeneratedFile) (string, error) {
	w.mu.Lock()
	if w.stage != StageCodeReady {
		w.mu.Unlock()
		err := apperr.New(apperr.Internal, MsgMissingPRData)
		w.errs.Report(err)
		return "", err
	}
	if w.prStatus == PRPending {
		w.mu.Unlock()
		return "", ErrPRInFlight
	}

	var valid []backend.GeneratedFile
	for _, f := range files {
		if f.Valid() {
			valid = append(valid, f)
		}
	}
	if len(valid) == 0 {
		w.prStatus = PRFailed
		w.mu.Unlock()
		err := apperr.New(apperr.EmptyInput, MsgNoValidFiles)
		w.errs.Report(err)
		return "", err
	}

	token := w.identity.Token()
	if token == "" || repo == "" {
		w.prStatus = PRFailed
		w.mu.Unlock()
		err := apperr.New(apperr.Unauthenticated, MsgMissingPRData)
		w.errs.Report(err)
		return "", err
	}
	w.prStatus = PRPending
	w.prURL = ""
	w.mu.Unlock()

	w.errs.Clear()
	url, err := w.client.CreatePullRequest(ctx, token, backend.CreatePRRequest{Repo: repo, Files: valid})

	w.mu.Lock()
	if err != nil {
		w.prStatus = PRFailed
		w.mu.Unlock()
		prErr := classify(err, MsgPRFailed)
		w.fail(prErr)
		w.emit(auditlog.EventPRFailed, apperr.Message(prErr),
			auditlog.WithDetail(err.Error()), auditlog.WithLevel("error"))
		return "", prErr
	}
	w.prStatus = PRSuccess
	w.prURL = url
	w.mu.Unlock()

	log.InfoLog.Printf("wizard: pull request created for %s: %s", repo, url)
	w.emit(auditlog.EventPRCreated, url, auditlog.WithPath(joinGenerated(valid)))
	if url != "" {
		if err := w.open(url); err != nil {
			log.WarningLog.Printf("wizard: open %s: %v", url, err)
		}
	}
	return url, nil
}

// Back steps one stage backwards, discarding the later stage's state.
func (w *Wizard) Back() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.stage {
	case StageCodeReady:
		w.epoch++
		w.generated = nil
		w.prStatus = PRNone
		w.prURL = ""
		w.stage = StageSummariesReady
	case StageSummariesReady:
		w.epoch++
		w.summaries = nil
		w.files = nil
		w.generating = make(map[string]bool)
		w.stage = StageBrowsing
	}
	return w.stage
}

// CopyCode writes the file's code to the system clipboard.
func (w *Wizard) CopyCode(file backend.GeneratedFile) error {
	if err := w.copy(file.Code); err != nil {
		copyErr := apperr.Wrap(apperr.Internal, MsgCopyFailed, err)
		w.errs.Report(copyErr)
		return copyErr
	}
	return nil
}

// SaveCode writes the file's code to <dir>/<filename>.test.txt and returns
// the path written.
func (w *Wizard) SaveCode(dir string, file backend.GeneratedFile) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, SavedFileName(file.Filename))
	err := os.MkdirAll(dir, saveDirPerm)
	if err == nil {
		err = os.WriteFile(path, []byte(file.Code), savedFilePerm)
	}
	if err != nil {
		saveErr := apperr.Wrap(apperr.Internal, MsgSaveFailed, err)
		w.errs.Report(saveErr)
		return "", saveErr
	}
	w.emit(auditlog.EventTestSaved, file.Filename, auditlog.WithPath(path))
	return path, nil
}

// SavedFileName maps a generated file name to the name it is saved under.
func SavedFileName(filename string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(filename))
	if name == "" {
		name = "generated"
	}
	return name + savedFileSuffix
}

// Stage returns the current stage.
func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Summaries returns the summaries of the SummariesReady stage.
func (w *Wizard) Summaries() []backend.Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]backend.Summary(nil), w.summaries...)
}

// Files returns the files submitted for the current summaries.
func (w *Wizard) Files() []backend.FileInput {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]backend.FileInput(nil), w.files...)
}

// Generated returns the generated files of the CodeReady stage.
func (w *Wizard) Generated() []backend.GeneratedFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]backend.GeneratedFile(nil), w.generated...)
}

// Generating reports whether code for the summary titled title is in flight.
func (w *Wizard) Generating(title string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generating[title]
}

// SummariesPending reports whether a summaries request is in flight.
func (w *Wizard) SummariesPending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summariesPending
}

// PRStatus returns the outcome of the last pull request attempt.
func (w *Wizard) PRStatus() PRStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prStatus
}

// PRURL returns the URL of the created pull request, if any.
func (w *Wizard) PRURL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prURL
}

func (w *Wizard) fail(err error) {
	log.ErrorLog.Printf("wizard: %v", err)
	w.errs.Report(err)
}

func (w *Wizard) emit(kind auditlog.EventKind, message string, opts ...auditlog.EventOption) {
	login := ""
	if u := w.identity.User(); u != nil {
		login = u.Login
	}
	opts = append(opts, auditlog.WithRepo(w.repo))
	w.audit.Emit(auditlog.NewEvent(kind, login, message, opts...))
}

// classify turns a backend failure into a user-facing error.
func classify(err error, fallback string) *apperr.Error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.IsValidation() {
		return apperr.Wrap(apperr.ValidationFailure, apiErr.Message(), err)
	}
	return apperr.Wrap(apperr.NetworkFailure, backend.DetailOr(err, fallback), err)
}

func joinNames(files []backend.FileInput) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	return strings.Join(names, ",")
}

func joinGenerated(files []backend.GeneratedFile) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	return strings.Join(names, ",")
}
