package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kastheco/testsmith/config"
	"github.com/kastheco/testsmith/internal/backend"
	"github.com/kastheco/testsmith/internal/check"
	"github.com/kastheco/testsmith/log"
	"github.com/kastheco/testsmith/session"
	"github.com/spf13/cobra"
)

// errUnhealthy is returned when a check fails to signal exit code 1 without printing a message.
var errUnhealthy = errors.New("unhealthy")

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"doctor"},
		Short:   "Check configuration, the stored login and backend reachability",
		Long: `Runs the local and remote health checks:

  1. Local   (config, config dir, history database, git origin, token)
  2. Remote  (identity provider accepts the token, backend lists repositories)

Exit code 0 if no check failed, exit code 1 otherwise.`,
		RunE: runCheck,
		// Health failures are not usage errors.
		SilenceUsage: true,
		// Suppress cobra's "Error: ..." line for the unhealthy sentinel.
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("verbose", "v", false, "show detail for passing checks too")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	log.Initialize(false)
	defer log.Close()

	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("get config dir: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}

	cfg := config.LoadConfigFrom(configDir)
	result := check.Run(cmd.Context(), check.Options{
		Config:    cfg,
		ConfigDir: configDir,
		WorkDir:   cwd,
		Client: backend.NewClient(cfg.BackendURL,
			backend.WithTimeout(cfg.RequestTimeout()),
			backend.WithGitHubAPI(cfg.GitHubAPIURL),
		),
		Tokens: session.NewTokenFile(configDir),
	})

	out := cmd.OutOrStdout()
	renderEntries(out, "Local", result.Local, verbose)
	renderEntries(out, "Remote", result.Remote, verbose)

	ok, total := result.Summary()
	pct := 0
	if total > 0 {
		pct = ok * 100 / total
	}

	fmt.Fprintf(out, "\nHealth: %d/%d OK (%d%%)\n", ok, total, pct)

	if !result.Healthy() {
		return errUnhealthy
	}
	return nil
}

func renderEntries(out io.Writer, title string, entries []check.Entry, verbose bool) {
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, e := range entries {
		detail := ""
		if e.Detail != "" && (verbose || e.Status != check.StatusOK) {
			detail = " (" + e.Detail + ")"
		}
		fmt.Fprintf(out, "  %s %-18s%s\n", statusGlyph(e.Status), e.Name, detail)
	}
}

func statusGlyph(s check.Status) string {
	switch s {
	case check.StatusOK:
		return "✓"
	case check.StatusWarn:
		return "!"
	case check.StatusSkipped:
		return "⊘"
	default:
		return "✗"
	}
}
