package cmd

import (
	"fmt"
	"io"

	"github.com/kastheco/testsmith/config"
	"github.com/kastheco/testsmith/config/auditlog"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/errsignal"
	"github.com/kastheco/testsmith/internal/launch"
	"github.com/kastheco/testsmith/log"
	"github.com/kastheco/testsmith/session"
)

// env is what the non-interactive commands share with the TUI: the loaded
// config, the backend client, the session store and the history log.
type env struct {
	cfg    *config.Config
	dir    string
	client *backend.Client
	errs   *errsignal.Signal
	audit  auditlog.Logger
	store  *session.Store
}

// loadEnv builds the command environment from the config directory. open
// is used for the authorization URL; nil means the system browser.
func loadEnv(open launch.Opener) (*env, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	log.Initialize(false)
	cfg := config.LoadConfigFrom(dir)
	if err := cfg.Validate(); err != nil {
		log.Close()
		return nil, err
	}

	audit, err := auditlog.Open(dir)
	if err != nil {
		log.WarningLog.Printf("history disabled: %v", err)
	}
	if open == nil {
		open = launch.Browser
	}

	e := &env{
		cfg:   cfg,
		dir:   dir,
		audit: audit,
		errs:  errsignal.New(cfg.ErrorDismissAfter()),
		client: backend.NewClient(cfg.BackendURL,
			backend.WithTimeout(cfg.RequestTimeout()),
			backend.WithRateLimit(cfg.RequestsPerSecond),
			backend.WithGitHubAPI(cfg.GitHubAPIURL),
		),
	}
	e.store = session.NewStore(e.client, session.NewTokenFile(dir), e.errs, session.OAuthConfig{
		AuthorizeURL: cfg.AuthorizeURL,
		ClientID:     cfg.ClientID,
		RedirectURI:  cfg.RedirectURI(),
		Scopes:       cfg.Scopes,
	}, session.WithOpener(open), session.WithAuditLogger(audit))
	return e, nil
}

func (e *env) Close() {
	if err := e.audit.Close(); err != nil {
		log.WarningLog.Printf("close history: %v", err)
	}
	log.Close()
}

// printingOpener shows the URL before trying the browser, so a headless
// session can still complete the login by hand.
func printingOpener(out io.Writer) launch.Opener {
	return func(rawURL string) error {
		fmt.Fprintf(out, "Open this URL to log in with GitHub:\n  %s\n", rawURL)
		if err := launch.Browser(rawURL); err != nil {
			log.InfoLog.Printf("no browser: %v", err)
		}
		return nil
	}
}
