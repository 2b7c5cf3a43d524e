package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kastheco/testsmith/app"
	cmd2 "github.com/kastheco/testsmith/cmd"
	"github.com/kastheco/testsmith/config"
	sentrypkg "github.com/kastheco/testsmith/internal/sentry"
	"github.com/kastheco/testsmith/internal/setupcmd"
	"github.com/kastheco/testsmith/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version  = "0.1.0"
	repoFlag string
	rootCmd  = &cobra.Command{
		Use:   "testsmith",
		Short: "testsmith - Turn files in your GitHub repositories into tests and pull requests.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("error: testsmith needs a terminal; use the login, whoami or history commands in scripts")
			}

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			cfg := config.LoadConfigFrom(configDir)
			if err := cfg.Validate(); err != nil {
				return err
			}

			sentrypkg.SetDSN(cfg.SentryDSN)
			if err := sentrypkg.Init(version, cfg.IsTelemetryEnabled()); err != nil {
				// Non-fatal: sentry failure should not prevent startup
				_ = err
			}
			defer sentrypkg.Flush()
			defer sentrypkg.RecoverPanic()

			log.Initialize(cfg.IsTelemetryEnabled())
			defer log.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()

			return app.Run(ctx, app.Options{
				Config:    cfg,
				ConfigDir: configDir,
				Repo:      repoFlag,
			})
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Print debug information like config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize(false)
			defer log.Close()

			cfg := config.LoadConfig()

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			configJson, _ := json.MarshalIndent(cfg, "", "  ")

			fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n%s\n", filepath.Join(configDir, config.ConfigFileName), configJson)
			fmt.Fprintf(cmd.OutOrStdout(), "Overlay: %s\n", filepath.Join(configDir, config.TOMLFileName))
			fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", log.FileName())

			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of testsmith",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "testsmith version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "https://github.com/kastheco/testsmith/releases/tag/v%s\n", version)
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&repoFlag, "repo", "r", "",
		"Repository to open after login, as owner/name (default: the origin remote of the current directory)")

	var cleanFlag bool

	setupCmd := &cobra.Command{
		Use:     "setup",
		Aliases: []string{"init"},
		Short:   "Configure the backend, OAuth client and defaults",
		Long: `Run an interactive form to set:
  1. The backend URL and GitHub OAuth client id
  2. The loopback address that receives the login callback
  3. The default test framework and crash reporting
and write them to ~/.config/testsmith/config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize(false)
			defer log.Close()
			return setupcmd.Run(setupcmd.Options{
				Clean: cleanFlag,
				Out:   cmd.OutOrStdout(),
			})
		},
	}
	setupCmd.Flags().BoolVar(&cleanFlag, "clean", false, "Ignore existing config, start with factory defaults")

	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(cmd2.NewLoginCmd())
	rootCmd.AddCommand(cmd2.NewLogoutCmd())
	rootCmd.AddCommand(cmd2.NewWhoamiCmd())
	rootCmd.AddCommand(cmd2.NewHistoryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errUnhealthy) {
			os.Exit(1)
		}
		fmt.Println(err)
		os.Exit(1)
	}
}
