package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/log"
)

// CallbackPath is where the identity provider redirects after authorization.
const CallbackPath = "/callback"

// LoginResult is the outcome of one callback hit.
type LoginResult struct {
	User backend.User
	Err  error
}

// CallbackServer receives the OAuth redirect on a loopback address and hands
// the code to the store.
type CallbackServer struct {
	store    *Store
	addr     string
	listener net.Listener
	srv      *http.Server
	results  chan LoginResult
}

// NewCallbackServer prepares a server on addr, e.g. "127.0.0.1:5173".
func NewCallbackServer(store *Store, addr string) *CallbackServer {
	return &CallbackServer{
		store:   store,
		addr:    addr,
		results: make(chan LoginResult, 1),
	}
}

// Start begins listening. It returns once the port is bound.
func (c *CallbackServer) Start() error {
	listener, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	c.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, c.handleCallback)
	c.srv = &http.Server{Handler: mux}
	go func() {
		if err := c.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorLog.Printf("callback server: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address. Only valid after Start.
func (c *CallbackServer) Addr() string {
	if c.listener == nil {
		return c.addr
	}
	return c.listener.Addr().String()
}

// RedirectURI returns the callback URL for the bound address.
func (c *CallbackServer) RedirectURI() string {
	return "http://" + c.Addr() + CallbackPath
}

// Results delivers the outcome of callback hits. Only the first undelivered
// result is buffered.
func (c *CallbackServer) Results() <-chan LoginResult {
	return c.results
}

// Shutdown stops the server.
func (c *CallbackServer) Shutdown(ctx context.Context) error {
	if c.srv == nil {
		return nil
	}
	return c.srv.Shutdown(ctx)
}

func (c *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		reason := q.Get("error_description")
		if reason == "" {
			reason = q.Get("error")
		}
		log.WarningLog.Printf("callback without code: %s", reason)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "Error: no authorization code received")
		return
	}

	user, err := c.store.CompleteLogin(context.WithoutCancel(r.Context()), code)
	select {
	case c.results <- LoginResult{User: user, Err: err}:
	default:
	}

	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, "Login failed: %s", apperr.Message(err))
		return
	}
	fmt.Fprintf(w, "Logged in as %s. You can close this tab and return to the terminal.", user.Login)
}

// LoginFlow runs the whole browser login: it starts the callback server on
// addr, opens the authorization URL and waits for the first exchange to
// finish or ctx to end.
func (s *Store) LoginFlow(ctx context.Context, addr string) (backend.User, error) {
	server := NewCallbackServer(s, addr)
	if err := server.Start(); err != nil {
		return backend.User{}, err
	}
	defer func() { _ = server.Shutdown(context.WithoutCancel(ctx)) }()

	if err := s.beginLogin(ctx, server.RedirectURI()); err != nil {
		return backend.User{}, err
	}

	select {
	case res := <-server.Results():
		return res.User, res.Err
	case <-ctx.Done():
		return backend.User{}, ctx.Err()
	}
}
