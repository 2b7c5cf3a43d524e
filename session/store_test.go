package session

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageOf(err error) string { return apperr.Message(err) }

var testOAuth = OAuthConfig{
	AuthorizeURL: "https://github.com/login/oauth/authorize",
	ClientID:     "Iv1.abc",
	RedirectURI:  "http://127.0.0.1:5173/callback",
	Scopes:       "repo user",
}

func newTestStore(t *testing.T, fx *fakeExchanger, opts ...Option) (*Store, *TokenFile, *recordingSink) {
	t.Helper()
	tokens := NewTokenFile(t.TempDir())
	sink := &recordingSink{}
	return NewStore(fx, tokens, sink, testOAuth, opts...), tokens, sink
}

func TestAuthorizationURL(t *testing.T) {
	s, _, _ := newTestStore(t, &fakeExchanger{})
	assert.Equal(t,
		"https://github.com/login/oauth/authorize?client_id=Iv1.abc&redirect_uri=http%3A%2F%2F127.0.0.1%3A5173%2Fcallback&scope=repo%20user",
		s.AuthorizationURL())
	// Deterministic.
	assert.Equal(t, s.AuthorizationURL(), s.AuthorizationURL())

	u, err := url.Parse(s.AuthorizationURL())
	require.NoError(t, err)
	assert.Equal(t, "repo user", u.Query().Get("scope"))
	assert.Equal(t, testOAuth.RedirectURI, u.Query().Get("redirect_uri"))
}

func TestBeginLogin_OpensAuthorizationURL(t *testing.T) {
	op := &recordingOpener{}
	s, _, _ := newTestStore(t, &fakeExchanger{}, WithOpener(op.open))
	require.NoError(t, s.BeginLogin(t.Context()))
	assert.Equal(t, []string{s.AuthorizationURL()}, op.urls)
}

func TestRestore_NoToken(t *testing.T) {
	fx := &fakeExchanger{}
	s, _, _ := newTestStore(t, fx)
	assert.Equal(t, StatusUnknown, s.Status())

	require.NoError(t, s.Restore(t.Context()))
	assert.Equal(t, StatusResolved, s.Status())
	assert.Nil(t, s.User())
	assert.False(t, s.Authenticated())
	assert.Equal(t, int32(0), fx.userCalls.Load())
}

func TestRestore_ValidToken(t *testing.T) {
	fx := &fakeExchanger{user: backend.User{ID: 1, Login: "octocat"}}
	s, tokens, _ := newTestStore(t, fx)
	require.NoError(t, tokens.Save("gho_valid"))

	require.NoError(t, s.Restore(t.Context()))
	require.NotNil(t, s.User())
	assert.Equal(t, "octocat", s.User().Login)
	assert.Equal(t, "gho_valid", s.Token())
	assert.True(t, s.Authenticated())
}

func TestRestore_InvalidTokenIsDeleted(t *testing.T) {
	fx := &fakeExchanger{userErr: &backend.APIError{Status: 401, Detail: "Bad credentials"}}
	audit, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer audit.Close()
	s, tokens, sink := newTestStore(t, fx, WithAuditLogger(audit))
	require.NoError(t, tokens.Save("gho_revoked"))

	err = s.Restore(t.Context())
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
	assert.Equal(t, MsgRestoreFailed, sink.last())
	assert.Equal(t, StatusResolved, s.Status())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())

	tok, err := tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	events, err := audit.Query(auditlog.QueryFilter{Kinds: []auditlog.EventKind{auditlog.EventSessionExpired}})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCompleteLogin_Success(t *testing.T) {
	fx := &fakeExchanger{result: backend.AuthResult{
		AccessToken: "gho_new",
		User:        backend.User{ID: 9, Login: "octocat"},
	}}
	s, tokens, _ := newTestStore(t, fx)

	user, err := s.CompleteLogin(t.Context(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
	assert.True(t, s.Authenticated())

	tok, err := tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, "gho_new", tok)
}

func TestCompleteLogin_ConcurrentSameCodeExchangesOnce(t *testing.T) {
	fx := &fakeExchanger{
		gate: make(chan struct{}),
		result: backend.AuthResult{
			AccessToken: "gho_once",
			User:        backend.User{Login: "octocat"},
		},
	}
	s, _, _ := newTestStore(t, fx)

	const callers = 8
	var wg sync.WaitGroup
	users := make([]backend.User, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			users[i], errs[i] = s.CompleteLogin(t.Context(), "same-code")
		}()
	}

	require.Eventually(t, func() bool { return fx.exchangeCalls.Load() == 1 }, timeout, tick)
	// While the exchange is in flight the user must not be visible.
	assert.Equal(t, StatusLoading, s.Status())
	assert.Nil(t, s.User())
	close(fx.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fx.exchangeCalls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "octocat", users[i].Login)
	}
}

func TestCompleteLogin_RepeatedCodeIsNotExchangedAgain(t *testing.T) {
	fx := &fakeExchanger{result: backend.AuthResult{AccessToken: "t", User: backend.User{Login: "octocat"}}}
	s, _, _ := newTestStore(t, fx)

	_, err := s.CompleteLogin(t.Context(), "c")
	require.NoError(t, err)
	user, err := s.CompleteLogin(t.Context(), "c")
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, int32(1), fx.exchangeCalls.Load())
}

func TestCompleteLogin_CodeReplayedAfterLogoutFails(t *testing.T) {
	fx := &fakeExchanger{result: backend.AuthResult{AccessToken: "t", User: backend.User{Login: "octocat"}}}
	s, _, sink := newTestStore(t, fx)

	_, err := s.CompleteLogin(t.Context(), "c")
	require.NoError(t, err)
	require.NoError(t, s.Logout())

	user, err := s.CompleteLogin(t.Context(), "c")
	assert.ErrorIs(t, err, ErrCodeConsumed)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
	assert.Empty(t, user.Login)
	assert.False(t, s.Authenticated())
	assert.Equal(t, MsgCodeConsumed, sink.last())
	assert.Equal(t, int32(1), fx.exchangeCalls.Load())
}

func TestCompleteLogin_FailureUsesBackendDetail(t *testing.T) {
	fx := &fakeExchanger{exchangeFn: func(string) (backend.AuthResult, error) {
		return backend.AuthResult{}, &backend.APIError{Status: 400, Detail: "GitHub OAuth failed"}
	}}
	s, _, sink := newTestStore(t, fx)

	_, err := s.CompleteLogin(t.Context(), "bad")
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
	assert.Equal(t, "GitHub OAuth failed", sink.last())
	assert.False(t, s.Authenticated())
	assert.Equal(t, StatusResolved, s.Status())

	// A failed code stays consumed.
	_, err = s.CompleteLogin(t.Context(), "bad")
	require.Error(t, err)
	assert.Equal(t, int32(1), fx.exchangeCalls.Load())
	assert.Equal(t, 1, sink.count())
}

func TestCompleteLogin_FailureFallbackMessage(t *testing.T) {
	fx := &fakeExchanger{exchangeFn: func(string) (backend.AuthResult, error) {
		return backend.AuthResult{}, errors.New("connection refused")
	}}
	s, _, sink := newTestStore(t, fx)

	_, err := s.CompleteLogin(t.Context(), "c")
	require.Error(t, err)
	assert.Equal(t, MsgAuthFailed, sink.last())
}

func TestCompleteLogin_EmptyCode(t *testing.T) {
	fx := &fakeExchanger{}
	s, _, _ := newTestStore(t, fx)
	_, err := s.CompleteLogin(t.Context(), "")
	assert.Equal(t, apperr.EmptyInput, apperr.KindOf(err))
	assert.Equal(t, int32(0), fx.exchangeCalls.Load())
}

func TestLogout(t *testing.T) {
	fx := &fakeExchanger{result: backend.AuthResult{AccessToken: "t", User: backend.User{Login: "octocat"}}}
	s, tokens, sink := newTestStore(t, fx)
	_, err := s.CompleteLogin(t.Context(), "c")
	require.NoError(t, err)

	require.NoError(t, s.Logout())
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Equal(t, 1, sink.cleared)
	_, statErr := os.Stat(tokens.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestTokenFile_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	tf := NewTokenFile(dir)
	require.NoError(t, tf.Save("secret"))

	info, err := os.Stat(tf.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	tok, err := tf.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", tok)

	require.NoError(t, tf.Delete())
	require.NoError(t, tf.Delete())
}
