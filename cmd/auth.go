package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/kastheco/testsmith/internal/apperr"
	"github.com/kastheco/testsmith/session"
	"github.com/spf13/cobra"
)

// executeLogin runs the loopback login and prints the user. Exported for
// testing without cobra plumbing.
func executeLogin(ctx context.Context, store *session.Store, addr string, out io.Writer) error {
	user, err := store.LoginFlow(ctx, addr)
	if err != nil {
		return fmt.Errorf("login: %s", apperr.Message(err))
	}
	fmt.Fprintf(out, "Logged in as @%s\n", user.Login)
	return nil
}

// executeLogout forgets the persisted token.
func executeLogout(store *session.Store, out io.Writer) error {
	if err := store.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(out, "Logged out")
	return nil
}

// executeWhoami validates the persisted token and prints its user.
func executeWhoami(ctx context.Context, store *session.Store, out io.Writer) error {
	if err := store.Restore(ctx); err != nil {
		return fmt.Errorf("whoami: %s", apperr.Message(err))
	}
	u := store.User()
	if u == nil {
		return fmt.Errorf("whoami: not logged in; run testsmith login")
	}
	if u.DisplayName != "" {
		fmt.Fprintf(out, "@%s (%s)\n", u.Login, u.DisplayName)
	} else {
		fmt.Fprintf(out, "@%s\n", u.Login)
	}
	return nil
}

// NewLoginCmd returns the `login` command.
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in with GitHub and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(printingOpener(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return executeLogin(ctx, e.store, e.cfg.RedirectAddr, cmd.OutOrStdout())
		},
	}
}

// NewLogoutCmd returns the `logout` command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(nil)
			if err != nil {
				return err
			}
			defer e.Close()
			return executeLogout(e.store, cmd.OutOrStdout())
		},
	}
}

// NewWhoamiCmd returns the `whoami` command.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged-in GitHub user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(nil)
			if err != nil {
				return err
			}
			defer e.Close()
			return executeWhoami(cmd.Context(), e.store, cmd.OutOrStdout())
		},
	}
}
