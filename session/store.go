// Package session owns the GitHub access token and the authenticated user.
//
// A Store is created once by the caller and passed to everything that needs
// the token. Login is split in two: AuthorizationURL/BeginLogin send the user
// to the identity provider, and CompleteLogin exchanges the code that comes
// back. Each code is exchanged at most once, however many times it arrives.
package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/errsignal"
	"github.com/kastheco/testsmith/internal/launch"
	"github.com/kastheco/testsmith/log"
	"golang.org/x/sync/singleflight"
)

// User-facing messages.
const (
	MsgRestoreFailed = "Failed to fetch user data. Please try logging in again."
	MsgAuthFailed    = "GitHub authentication failed. Please try again."
	MsgMissingCode   = "No authorization code received."
	MsgCodeConsumed  = "This login code was already used. Please log in again."
)

// ErrCodeConsumed is returned when a code that already logged a user in
// arrives again after that session ended.
var ErrCodeConsumed = apperr.New(apperr.Unauthenticated, MsgCodeConsumed)

// Status is the resolution state of the session.
type Status int

const (
	// StatusUnknown: nothing has been attempted yet.
	StatusUnknown Status = iota
	// StatusLoading: a restore or code exchange is in flight.
	StatusLoading
	// StatusResolved: the session is known to be authenticated or not.
	StatusResolved
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Exchanger is the subset of the backend client the store needs.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (backend.AuthResult, error)
	CurrentUser(ctx context.Context, token string) (backend.User, error)
}

// OAuthConfig describes the authorization request.
type OAuthConfig struct {
	AuthorizeURL string
	ClientID     string
	RedirectURI  string
	Scopes       string
}

type outcome struct {
	user backend.User
	err  error
}

// Store is safe for concurrent use.
type Store struct {
	client Exchanger
	tokens *TokenFile
	errs   errsignal.Sink
	oauth  OAuthConfig
	open   launch.Opener
	audit  auditlog.Logger

	mu       sync.RWMutex
	token    string
	user     *backend.User
	status   Status
	consumed map[string]outcome

	flight singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithOpener replaces the browser launcher used by BeginLogin.
func WithOpener(open launch.Opener) Option {
	return func(s *Store) { s.open = open }
}

// WithAuditLogger records logins, logouts and expirations.
func WithAuditLogger(l auditlog.Logger) Option {
	return func(s *Store) { s.audit = l }
}

// NewStore creates an unauthenticated store.
func NewStore(client Exchanger, tokens *TokenFile, errs errsignal.Sink, oauth OAuthConfig, opts ...Option) *Store {
	s := &Store{
		client:   client,
		tokens:   tokens,
		errs:     errs,
		oauth:    oauth,
		open:     launch.Browser,
		audit:    auditlog.NopLogger(),
		consumed: make(map[string]outcome),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore validates a persisted token, if any. On failure the token is
// deleted, the failure is reported and the store stays unauthenticated.
func (s *Store) Restore(ctx context.Context) error {
	tok, err := s.tokens.Load()
	if err != nil {
		log.WarningLog.Printf("session: %v", err)
	}
	if tok == "" {
		s.mu.Lock()
		s.status = StatusResolved
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.token = tok
	s.user = nil
	s.status = StatusLoading
	s.mu.Unlock()

	user, err := s.client.CurrentUser(ctx, tok)
	if err != nil {
		if delErr := s.tokens.Delete(); delErr != nil {
			log.WarningLog.Printf("session: %v", delErr)
		}
		s.mu.Lock()
		s.token = ""
		s.user = nil
		s.status = StatusResolved
		s.mu.Unlock()

		restoreErr := apperr.Wrap(apperr.Unauthenticated, MsgRestoreFailed, err)
		s.errs.Report(restoreErr)
		s.audit.Emit(auditlog.NewEvent(auditlog.EventSessionExpired, "", MsgRestoreFailed,
			auditlog.WithDetail(err.Error()), auditlog.WithLevel("warn")))
		return restoreErr
	}

	s.mu.Lock()
	s.user = &user
	s.status = StatusResolved
	s.mu.Unlock()
	return nil
}

// AuthorizationURL builds the identity provider URL for the configured
// redirect target.
func (s *Store) AuthorizationURL() string {
	return s.authorizationURL(s.oauth.RedirectURI)
}

func (s *Store) authorizationURL(redirectURI string) string {
	scope := strings.ReplaceAll(url.QueryEscape(s.oauth.Scopes), "+", "%20")
	return fmt.Sprintf("%s?client_id=%s&redirect_uri=%s&scope=%s",
		s.oauth.AuthorizeURL,
		url.QueryEscape(s.oauth.ClientID),
		url.QueryEscape(redirectURI),
		scope,
	)
}

// BeginLogin opens the authorization URL in the browser.
func (s *Store) BeginLogin(ctx context.Context) error {
	return s.beginLogin(ctx, s.oauth.RedirectURI)
}

func (s *Store) beginLogin(ctx context.Context, redirectURI string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(s.authorizationURL(redirectURI)); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// CompleteLogin exchanges code for a token and user. A code is exchanged at
// most once: concurrent callers share the in-flight result and later callers
// get the recorded outcome without another backend call. A recorded success
// only counts while its user is still logged in; otherwise the replay fails
// with ErrCodeConsumed.
func (s *Store) CompleteLogin(ctx context.Context, code string) (backend.User, error) {
	if code == "" {
		err := apperr.New(apperr.EmptyInput, MsgMissingCode)
		s.errs.Report(err)
		return backend.User{}, err
	}

	v, _, _ := s.flight.Do(code, func() (any, error) {
		s.mu.Lock()
		if out, ok := s.consumed[code]; ok {
			replayed := out.err == nil && (s.user == nil || s.user.Login != out.user.Login)
			s.mu.Unlock()
			if replayed {
				s.errs.Report(ErrCodeConsumed)
				return outcome{err: ErrCodeConsumed}, nil
			}
			return out, nil
		}
		s.status = StatusLoading
		s.user = nil
		s.mu.Unlock()

		out := s.exchange(ctx, code)

		s.mu.Lock()
		s.consumed[code] = out
		s.mu.Unlock()
		return out, nil
	})
	out := v.(outcome)
	return out.user, out.err
}

func (s *Store) exchange(ctx context.Context, code string) outcome {
	res, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		s.mu.Lock()
		s.token = ""
		s.user = nil
		s.status = StatusResolved
		s.mu.Unlock()

		loginErr := apperr.Wrap(apperr.Unauthenticated, backend.DetailOr(err, MsgAuthFailed), err)
		s.errs.Report(loginErr)
		s.audit.Emit(auditlog.NewEvent(auditlog.EventError, "", apperr.Message(loginErr),
			auditlog.WithDetail(err.Error()), auditlog.WithLevel("error")))
		return outcome{err: loginErr}
	}

	if err := s.tokens.Save(res.AccessToken); err != nil {
		log.ErrorLog.Printf("session: %v", err)
	}

	user := res.User
	s.mu.Lock()
	s.token = res.AccessToken
	s.user = &user
	s.status = StatusResolved
	s.mu.Unlock()

	log.InfoLog.Printf("session: logged in as %s", user.Login)
	s.audit.Emit(auditlog.NewEvent(auditlog.EventLogin, user.Login, "logged in"))
	return outcome{user: user}
}

// Logout deletes the persisted token and clears the session and any banner.
func (s *Store) Logout() error {
	s.mu.Lock()
	login := ""
	if s.user != nil {
		login = s.user.Login
	}
	s.token = ""
	s.user = nil
	s.status = StatusResolved
	s.mu.Unlock()

	s.errs.Clear()
	s.audit.Emit(auditlog.NewEvent(auditlog.EventLogout, login, "logged out"))
	return s.tokens.Delete()
}

// Status returns the resolution state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// User returns a copy of the authenticated user, or nil.
func (s *Store) User() *backend.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.status != StatusResolved {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the access token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a validated user is present.
func (s *Store) Authenticated() bool {
	return s.User() != nil && s.Token() != ""
}
