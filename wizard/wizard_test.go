package wizard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/log"
	"github.com/kastheco/testsmith/repobrowser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Initialize(false)
	defer log.Close()
	os.Exit(m.Run())
}

type identity struct{ token string }

func (i identity) Token() string { return i.token }
func (i identity) User() *backend.User {
	if i.token == "" {
		return nil
	}
	return &backend.User{Login: "octocat"}
}

type sink struct {
	mu       sync.Mutex
	messages []string
	cleared  int
}

func (s *sink) Set(m string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return "id"
}
func (s *sink) Report(err error) {
	if err != nil {
		s.Set(apperr.Message(err))
	}
}
func (s *sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}
func (s *sink) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1]
}

type fakeClient struct {
	summaryCalls atomic.Int32
	codeCalls    atomic.Int32
	prCalls      atomic.Int32

	mu           sync.Mutex
	gotFiles     []backend.FileInput
	gotSummary   string
	gotFramework string
	gotPR        backend.CreatePRRequest

	summaries []backend.Summary
	code      string
	prURL     string
	err       error
	codeGate  chan struct{}
	prGate    chan struct{}

	// codeFor and gateFor override code and codeGate per summary description.
	codeFor map[string]string
	gateFor map[string]chan struct{}
}

func (f *fakeClient) GenerateSummaries(ctx context.Context, files []backend.FileInput) ([]backend.Summary, error) {
	f.summaryCalls.Add(1)
	f.gotFiles = files
	if f.err != nil {
		return nil, f.err
	}
	return f.summaries, nil
}

func (f *fakeClient) GenerateTestCode(ctx context.Context, token, summary, framework string) (string, error) {
	f.codeCalls.Add(1)
	if gate, ok := f.gateFor[summary]; ok {
		<-gate
	} else if f.codeGate != nil {
		<-f.codeGate
	}
	f.mu.Lock()
	f.gotSummary, f.gotFramework = summary, framework
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if code, ok := f.codeFor[summary]; ok {
		return code, nil
	}
	return f.code, nil
}

func (f *fakeClient) CreatePullRequest(ctx context.Context, token string, req backend.CreatePRRequest) (string, error) {
	f.prCalls.Add(1)
	if f.prGate != nil {
		<-f.prGate
	}
	f.gotPR = req
	if f.err != nil {
		return "", f.err
	}
	return f.prURL, nil
}

var sumSummary = backend.Summary{Title: "sum adds numbers", Description: "Tests that sum adds two numbers.", Framework: "Jest", File: "sum.ts"}

func newWizard(c *fakeClient, opts ...Option) (*Wizard, *sink) {
	s := &sink{}
	return New(c, identity{token: "tok"}, s, opts...), s
}

func toSummaries(t *testing.T, w *Wizard) {
	t.Helper()
	_, err := w.RequestSummaries(t.Context(), []repobrowser.File{{Path: "src/sum.ts", Content: "x"}})
	require.NoError(t, err)
}

func toCode(t *testing.T, w *Wizard) backend.GeneratedFile {
	t.Helper()
	toSummaries(t, w)
	f, err := w.RequestCode(t.Context(), sumSummary)
	require.NoError(t, err)
	return f
}

func TestRequestSummaries_EmptySelection(t *testing.T) {
	c := &fakeClient{}
	w, s := newWizard(c)

	_, err := w.RequestSummaries(t.Context(), nil)
	require.Error(t, err)
	assert.Equal(t, apperr.EmptyInput, apperr.KindOf(err))
	assert.Equal(t, int32(0), c.summaryCalls.Load())
	assert.Equal(t, StageBrowsing, w.Stage())
	assert.Equal(t, MsgNoFiles, s.last())
}

func TestRequestSummaries_SubmitsBaseNames(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}}
	w, _ := newWizard(c)

	sums, err := w.RequestSummaries(t.Context(), []repobrowser.File{{Path: "src/lib/b.ts", Content: "B"}})
	require.NoError(t, err)
	assert.Equal(t, []backend.Summary{sumSummary}, sums)
	assert.Equal(t, []backend.FileInput{{Filename: "b.ts", Content: "B"}}, c.gotFiles)
	assert.Equal(t, StageSummariesReady, w.Stage())
	assert.Equal(t, c.gotFiles, w.Files())
}

// A batch where a.ts failed to fetch submits only b.ts.
func TestRequestSummaries_OnlyFetchedFilesSubmitted(t *testing.T) {
	bc := &browserClient{
		files: map[string]string{"b.ts": "export const b = 2"},
		errs:  map[string]error{"a.ts": errors.New("404")},
	}
	s := &sink{}
	b := repobrowser.New(bc, identity{token: "tok"}, s, "o", "r")
	b.ToggleFileSelection("a.ts")
	b.ToggleFileSelection("b.ts")

	files, err := b.FetchSelected(t.Context())
	require.NoError(t, err)

	c := &fakeClient{summaries: []backend.Summary{sumSummary}}
	w := New(c, identity{token: "tok"}, s)
	_, err = w.RequestSummaries(t.Context(), files)
	require.NoError(t, err)
	assert.Equal(t, []backend.FileInput{{Filename: "b.ts", Content: "export const b = 2"}}, c.gotFiles)
	assert.Empty(t, s.last())
}

func TestRequestSummaries_FailureStaysBrowsing(t *testing.T) {
	c := &fakeClient{err: &backend.APIError{Status: 500, Detail: "Failed to generate summaries: boom"}}
	w, s := newWizard(c)

	_, err := w.RequestSummaries(t.Context(), []repobrowser.File{{Path: "a.ts", Content: "a"}})
	require.Error(t, err)
	assert.Equal(t, apperr.NetworkFailure, apperr.KindOf(err))
	assert.Equal(t, StageBrowsing, w.Stage())
	assert.Equal(t, "Failed to generate summaries: boom", s.last())
	assert.False(t, w.SummariesPending())
}

func TestRequestCode_RequiresSummariesReady(t *testing.T) {
	c := &fakeClient{}
	w, s := newWizard(c)
	_, err := w.RequestCode(t.Context(), sumSummary)
	require.Error(t, err)
	assert.Equal(t, int32(0), c.codeCalls.Load())
	assert.Equal(t, MsgMissingCodeData, s.last())
}

func TestRequestCode_SingleFileFromSummary(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "test('sum')"}
	w, _ := newWizard(c)
	f := toCode(t, w)

	assert.Equal(t, backend.GeneratedFile{Filename: sumSummary.Title, Code: "test('sum')"}, f)
	assert.Equal(t, []backend.GeneratedFile{f}, w.Generated())
	assert.Equal(t, StageCodeReady, w.Stage())
	assert.Equal(t, sumSummary.Description, c.gotSummary)
	assert.Equal(t, "Jest", c.gotFramework)
}

func TestRequestCode_DefaultFramework(t *testing.T) {
	noFramework := backend.Summary{Title: "t", Description: "d"}
	c := &fakeClient{summaries: []backend.Summary{noFramework}, code: "c"}
	w, _ := newWizard(c, WithDefaultFramework("Vitest"))
	toSummaries(t, w)
	_, err := w.RequestCode(t.Context(), noFramework)
	require.NoError(t, err)
	assert.Equal(t, "Vitest", c.gotFramework)
}

func TestRequestCode_PerSummaryInFlight(t *testing.T) {
	other := backend.Summary{Title: "other", Description: "other test"}
	c := &fakeClient{summaries: []backend.Summary{sumSummary, other}, code: "c", codeGate: make(chan struct{})}
	w, _ := newWizard(c)
	toSummaries(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := w.RequestCode(t.Context(), sumSummary)
		done <- err
	}()
	require.Eventually(t, func() bool { return w.Generating(sumSummary.Title) }, timeout, tick)
	assert.False(t, w.Generating(other.Title))

	_, err := w.RequestCode(t.Context(), sumSummary)
	assert.ErrorIs(t, err, ErrCodeInFlight)

	close(c.codeGate)
	require.NoError(t, <-done)
	assert.False(t, w.Generating(sumSummary.Title))
	assert.Equal(t, int32(1), c.codeCalls.Load())
}

func TestRequestCode_ConcurrentSummariesLastResultWins(t *testing.T) {
	other := backend.Summary{Title: "other", Description: "other test"}
	c := &fakeClient{
		summaries: []backend.Summary{sumSummary, other},
		codeFor:   map[string]string{sumSummary.Description: "code-a", other.Description: "code-b"},
		gateFor: map[string]chan struct{}{
			sumSummary.Description: make(chan struct{}),
			other.Description:      make(chan struct{}),
		},
	}
	w, s := newWizard(c)
	toSummaries(t, w)

	first := make(chan error, 1)
	second := make(chan error, 1)
	go func() {
		_, err := w.RequestCode(t.Context(), sumSummary)
		first <- err
	}()
	go func() {
		_, err := w.RequestCode(t.Context(), other)
		second <- err
	}()
	require.Eventually(t, func() bool {
		return w.Generating(sumSummary.Title) && w.Generating(other.Title)
	}, timeout, tick)

	close(c.gateFor[sumSummary.Description])
	require.NoError(t, <-first)
	assert.Equal(t, StageCodeReady, w.Stage())
	assert.Equal(t, []backend.GeneratedFile{{Filename: sumSummary.Title, Code: "code-a"}}, w.Generated())

	close(c.gateFor[other.Description])
	require.NoError(t, <-second)
	assert.Equal(t, StageCodeReady, w.Stage())
	assert.Equal(t, []backend.GeneratedFile{{Filename: other.Title, Code: "code-b"}}, w.Generated())
	assert.Equal(t, int32(2), c.codeCalls.Load())
	assert.Empty(t, s.last())
}

func TestRequestCode_DiscardedSummariesAreStale(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c", codeGate: make(chan struct{})}
	w, _ := newWizard(c)
	toSummaries(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := w.RequestCode(t.Context(), sumSummary)
		done <- err
	}()
	require.Eventually(t, func() bool { return w.Generating(sumSummary.Title) }, timeout, tick)

	// Back to browsing and a fresh set of summaries before the code lands.
	assert.Equal(t, StageBrowsing, w.Back())
	toSummaries(t, w)

	close(c.codeGate)
	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, StageSummariesReady, w.Stage())
	assert.Empty(t, w.Generated())
}

func TestCreatePullRequest_Success(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c", prURL: "https://github.com/x/y/pull/1"}
	var opened []string
	w, _ := newWizard(c, WithOpener(func(u string) error {
		opened = append(opened, u)
		return nil
	}))
	f := toCode(t, w)

	url, err := w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{f})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/x/y/pull/1", url)
	assert.Equal(t, []string{"https://github.com/x/y/pull/1"}, opened)
	assert.Equal(t, PRSuccess, w.PRStatus())
	assert.Equal(t, StageCodeReady, w.Stage())
	assert.Equal(t, backend.CreatePRRequest{Repo: "x/y", Files: []backend.GeneratedFile{f}}, c.gotPR)
}

func TestCreatePullRequest_ValidationDetail(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c"}
	w, s := newWizard(c)
	f := toCode(t, w)

	c.err = &backend.APIError{Status: 422, Issues: []backend.ValidationIssue{
		{Loc: []any{"files", float64(0), "code"}, Msg: "required"},
	}}
	_, err := w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{f})
	require.Error(t, err)
	assert.Equal(t, apperr.ValidationFailure, apperr.KindOf(err))
	assert.Contains(t, s.last(), "files.0.code: required")
	assert.Equal(t, PRFailed, w.PRStatus())
}

func TestCreatePullRequest_StringDetailAndFallback(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c"}
	w, s := newWizard(c)
	f := toCode(t, w)

	c.err = &backend.APIError{Status: 409, Detail: "A branch with this name already exists"}
	_, err := w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{f})
	require.Error(t, err)
	assert.Equal(t, "A branch with this name already exists", s.last())

	c.err = errors.New("connection reset")
	_, err = w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{f})
	require.Error(t, err)
	assert.Equal(t, MsgPRFailed, s.last())
}

func TestCreatePullRequest_NoValidFiles(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c"}
	w, s := newWizard(c)
	toCode(t, w)

	_, err := w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{{Filename: "", Code: "c"}, {Filename: "f"}})
	require.Error(t, err)
	assert.Equal(t, apperr.EmptyInput, apperr.KindOf(err))
	assert.Equal(t, MsgNoValidFiles, s.last())
	assert.Equal(t, int32(0), c.prCalls.Load())
	assert.Equal(t, PRFailed, w.PRStatus())
}

func TestCreatePullRequest_FiltersInvalidEntries(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c", prURL: "u"}
	w, _ := newWizard(c, WithOpener(func(string) error { return nil }))
	f := toCode(t, w)

	_, err := w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{{Code: "orphan"}, f})
	require.NoError(t, err)
	assert.Equal(t, []backend.GeneratedFile{f}, c.gotPR.Files)
}

func TestCreatePullRequest_OneInFlight(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c", prURL: "u", prGate: make(chan struct{})}
	w, _ := newWizard(c, WithOpener(func(string) error { return nil }))
	f := toCode(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{f})
		done <- err
	}()
	require.Eventually(t, func() bool { return w.PRStatus() == PRPending }, timeout, tick)

	_, err := w.CreatePullRequest(t.Context(), "x/y", []backend.GeneratedFile{f})
	assert.ErrorIs(t, err, ErrPRInFlight)

	close(c.prGate)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), c.prCalls.Load())
}

func TestBack_DiscardsLaterStages(t *testing.T) {
	c := &fakeClient{summaries: []backend.Summary{sumSummary}, code: "c"}
	w, _ := newWizard(c)
	toCode(t, w)

	assert.Equal(t, StageSummariesReady, w.Back())
	assert.Empty(t, w.Generated())
	assert.Equal(t, PRNone, w.PRStatus())
	assert.NotEmpty(t, w.Summaries())

	assert.Equal(t, StageBrowsing, w.Back())
	assert.Empty(t, w.Summaries())
	assert.Empty(t, w.Files())

	assert.Equal(t, StageBrowsing, w.Back())
}

func TestCopyCode(t *testing.T) {
	var copied string
	w, s := newWizard(&fakeClient{}, WithClipboard(func(text string) error {
		copied = text
		return nil
	}))
	require.NoError(t, w.CopyCode(backend.GeneratedFile{Filename: "f", Code: "code"}))
	assert.Equal(t, "code", copied)

	w2, s2 := newWizard(&fakeClient{}, WithClipboard(func(string) error { return errors.New("no xclip") }))
	require.Error(t, w2.CopyCode(backend.GeneratedFile{Code: "code"}))
	assert.Equal(t, MsgCopyFailed, s2.last())
	assert.Empty(t, s.messages)
}

func TestSaveCode(t *testing.T) {
	audit, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer audit.Close()

	dir := filepath.Join(t.TempDir(), "out")
	w, _ := newWizard(&fakeClient{}, WithAuditLogger(audit), WithRepo("x/y"))
	path, err := w.SaveCode(dir, backend.GeneratedFile{Filename: "sum adds numbers", Code: "test()"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sum adds numbers.test.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test()", string(data))

	events, err := audit.Query(auditlog.QueryFilter{Repo: "x/y"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, auditlog.EventTestSaved, events[0].Kind)
	assert.Equal(t, "octocat", events[0].Login)
}

func TestSavedFileName(t *testing.T) {
	assert.Equal(t, "a_b.test.txt", SavedFileName("a/b"))
	assert.Equal(t, "generated.test.txt", SavedFileName("  "))
}

func TestStageAndStatusStrings(t *testing.T) {
	assert.Equal(t, "browsing", StageBrowsing.String())
	assert.Equal(t, "code_ready", StageCodeReady.String())
	assert.Equal(t, "Create PR", PRNone.String())
	assert.Equal(t, "Success!", PRSuccess.String())
}
