// Package check runs the health checks behind the check command: local
// configuration, the persisted session, and reachability of the backend and
// the identity provider.
package check

import (
	"context"
	"fmt"
	"os"

	"github.com/kastheco/testsmith/config"
	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/gitremote"

	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one check.
type Status int

const (
	StatusOK      Status = iota // check passed
	StatusWarn                  // works, but something is off
	StatusFail                  // broken
	StatusSkipped               // prerequisite missing, not run
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Entry is one check's result.
type Entry struct {
	Name   string
	Status Status
	Detail string // e.g. the logged-in user, or the error
}

// Result holds every check in the order it is reported.
type Result struct {
	Local  []Entry
	Remote []Entry
}

// Client is the subset of the backend client the checks call.
type Client interface {
	CurrentUser(ctx context.Context, token string) (backend.User, error)
	ListRepositories(ctx context.Context, token string) ([]backend.Repository, error)
}

// TokenSource loads the persisted access token.
type TokenSource interface {
	Load() (string, error)
}

// Options are the inputs of Run.
type Options struct {
	Config    *config.Config
	ConfigDir string
	// WorkDir is probed for a GitHub origin remote.
	WorkDir string
	Client  Client
	Tokens  TokenSource
}

// Run executes all checks. Local checks run first; the two network checks
// run concurrently once a token is known.
func Run(ctx context.Context, opts Options) *Result {
	result := &Result{}

	result.Local = append(result.Local,
		checkConfig(opts.Config),
		checkConfigDir(opts.ConfigDir),
		checkHistory(opts.ConfigDir),
		checkOrigin(opts.WorkDir),
	)

	tokenEntry, token := checkToken(opts.Tokens)
	result.Local = append(result.Local, tokenEntry)

	identity := Entry{Name: "identity provider", Status: StatusSkipped, Detail: "not logged in"}
	repos := Entry{Name: "backend", Status: StatusSkipped, Detail: "not logged in"}
	if token != "" && opts.Client != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			identity = checkIdentity(gctx, opts.Client, token)
			return nil
		})
		g.Go(func() error {
			repos = checkBackend(gctx, opts.Client, token)
			return nil
		})
		_ = g.Wait()
	}
	result.Remote = []Entry{identity, repos}
	return result
}

// Summary returns (ok, total) counts. Skipped checks are not counted and
// warnings count as passing.
func (r *Result) Summary() (int, int) {
	ok, total := 0, 0
	for _, e := range r.All() {
		if e.Status == StatusSkipped {
			continue
		}
		total++
		if e.Status == StatusOK || e.Status == StatusWarn {
			ok++
		}
	}
	return ok, total
}

// Healthy reports whether no check failed.
func (r *Result) Healthy() bool {
	for _, e := range r.All() {
		if e.Status == StatusFail {
			return false
		}
	}
	return true
}

// All returns local then remote entries.
func (r *Result) All() []Entry {
	all := make([]Entry, 0, len(r.Local)+len(r.Remote))
	all = append(all, r.Local...)
	return append(all, r.Remote...)
}

func checkConfig(cfg *config.Config) Entry {
	e := Entry{Name: "config"}
	if cfg == nil {
		e.Status = StatusFail
		e.Detail = "not loaded"
		return e
	}
	if err := cfg.Validate(); err != nil {
		e.Status = StatusFail
		e.Detail = err.Error()
		return e
	}
	if cfg.ClientID == "" {
		e.Status = StatusWarn
		e.Detail = "client_id is empty; login will fail"
		return e
	}
	e.Detail = cfg.BackendURL
	return e
}

func checkConfigDir(dir string) Entry {
	e := Entry{Name: "config dir", Detail: dir}
	fi, err := os.Stat(dir)
	switch {
	case err != nil:
		e.Status = StatusFail
		e.Detail = err.Error()
	case !fi.IsDir():
		e.Status = StatusFail
		e.Detail = fmt.Sprintf("%s is not a directory", dir)
	}
	return e
}

func checkHistory(dir string) Entry {
	e := Entry{Name: "history"}
	l, err := auditlog.Open(dir)
	if err != nil {
		e.Status = StatusWarn
		e.Detail = err.Error()
		return e
	}
	_ = l.Close()
	return e
}

func checkOrigin(dir string) Entry {
	e := Entry{Name: "git origin"}
	if dir == "" {
		e.Status = StatusSkipped
		return e
	}
	owner, name, err := gitremote.Detect(dir, "origin")
	if err != nil {
		e.Status = StatusWarn
		e.Detail = "no github origin; pass --repo to open one directly"
		return e
	}
	e.Detail = owner + "/" + name
	return e
}

func checkToken(tokens TokenSource) (Entry, string) {
	e := Entry{Name: "token"}
	if tokens == nil {
		e.Status = StatusSkipped
		return e, ""
	}
	tok, err := tokens.Load()
	if err != nil {
		e.Status = StatusFail
		e.Detail = err.Error()
		return e, ""
	}
	if tok == "" {
		e.Status = StatusWarn
		e.Detail = "not logged in; run testsmith login"
		return e, ""
	}
	e.Detail = "present"
	return e, tok
}

func checkIdentity(ctx context.Context, c Client, token string) Entry {
	e := Entry{Name: "identity provider"}
	u, err := c.CurrentUser(ctx, token)
	if err != nil {
		e.Status = StatusFail
		e.Detail = backend.DetailOr(err, err.Error())
		return e
	}
	e.Detail = "@" + u.Login
	return e
}

func checkBackend(ctx context.Context, c Client, token string) Entry {
	e := Entry{Name: "backend"}
	repos, err := c.ListRepositories(ctx, token)
	if err != nil {
		e.Status = StatusFail
		e.Detail = backend.DetailOr(err, err.Error())
		return e
	}
	e.Detail = fmt.Sprintf("%d repositories", len(repos))
	return e
}
