package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/errsignal"
	"github.com/kastheco/testsmith/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthServer fakes the code exchange and the identity provider. Only
// the token "good" (or one minted by the exchange) is accepted.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/github/callback":
			_ = json.NewEncoder(w).Encode(backend.AuthResult{
				AccessToken: "good",
				User:        backend.User{Login: "octo", DisplayName: "Octo Cat"},
			})
		case "/user":
			if r.Header.Get("Authorization") != "token good" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(backend.User{Login: "octo", DisplayName: "Octo Cat"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAuthStore(t *testing.T, srv *httptest.Server, opts ...session.Option) (*session.Store, *session.TokenFile) {
	t.Helper()
	tokens := session.NewTokenFile(t.TempDir())
	client := backend.NewClient(srv.URL, backend.WithGitHubAPI(srv.URL))
	store := session.NewStore(client, tokens, errsignal.New(time.Minute), session.OAuthConfig{
		AuthorizeURL: srv.URL + "/login/oauth/authorize",
		ClientID:     "client",
		Scopes:       "repo user",
	}, opts...)
	return store, tokens
}

func TestWhoami(t *testing.T) {
	srv := newAuthServer(t)

	t.Run("valid token", func(t *testing.T) {
		store, tokens := newAuthStore(t, srv)
		require.NoError(t, tokens.Save("good"))

		var out bytes.Buffer
		require.NoError(t, executeWhoami(context.Background(), store, &out))
		assert.Equal(t, "@octo (Octo Cat)\n", out.String())
	})

	t.Run("no token", func(t *testing.T) {
		store, _ := newAuthStore(t, srv)
		err := executeWhoami(context.Background(), store, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not logged in")
	})

	t.Run("rejected token is deleted", func(t *testing.T) {
		store, tokens := newAuthStore(t, srv)
		require.NoError(t, tokens.Save("stale"))

		err := executeWhoami(context.Background(), store, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), session.MsgRestoreFailed)

		tok, _ := tokens.Load()
		assert.Empty(t, tok)
	})
}

func TestLogout(t *testing.T) {
	srv := newAuthServer(t)
	store, tokens := newAuthStore(t, srv)
	require.NoError(t, tokens.Save("good"))

	var out bytes.Buffer
	require.NoError(t, executeLogout(store, &out))
	assert.Equal(t, "Logged out\n", out.String())

	tok, _ := tokens.Load()
	assert.Empty(t, tok)
}

func TestLogin(t *testing.T) {
	srv := newAuthServer(t)
	// Follow the redirect back to the callback the way a browser would.
	follow := func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		go func() {
			resp, err := http.Get(u.Query().Get("redirect_uri") + "?code=abc")
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
	store, tokens := newAuthStore(t, srv, session.WithOpener(follow))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, executeLogin(ctx, store, "127.0.0.1:0", &out))
	assert.Equal(t, "Logged in as @octo\n", out.String())

	tok, err := tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, "good", tok)
}

func TestLogin_Cancelled(t *testing.T) {
	srv := newAuthServer(t)
	store, _ := newAuthStore(t, srv, session.WithOpener(func(string) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := executeLogin(ctx, store, "127.0.0.1:0", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login:")
}
