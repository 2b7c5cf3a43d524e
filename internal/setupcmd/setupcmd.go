// Package setupcmd implements `testsmith setup`: an interactive form that
// writes config.toml.
package setupcmd

import (
	"fmt"
	"io"
	"os"

	"github.com/kastheco/testsmith/config"
)

// Options holds the CLI flags and seams for setup.
type Options struct {
	Clean bool // ignore existing config, start with factory defaults
	Out   io.Writer
	// Prompt collects answers; nil runs the interactive form.
	Prompt func(*Answers) error
}

// Run executes the setup workflow.
func Run(opts Options) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	prompt := opts.Prompt
	if prompt == nil {
		prompt = runForm
	}

	dir, err := config.GetConfigDir()
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if !opts.Clean {
		cfg = config.LoadConfigFrom(dir)
	}

	answers := AnswersFromConfig(cfg)
	if err := prompt(&answers); err != nil {
		return err
	}

	settings := answers.Settings()
	for _, check := range []struct {
		value string
		fn    func(string) error
	}{
		{settings.BackendURL, validateURL},
		{settings.ClientID, validateClientID},
		{settings.RedirectAddr, validateAddr},
	} {
		if err := check.fn(check.value); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	fmt.Fprintln(out, "\nWriting config...")
	path, err := config.WriteTOMLConfig(dir, settings)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(out, "  %s\n", path)
	fmt.Fprintf(out, "\nRegister http://%s/callback as the OAuth callback URL.\n", settings.RedirectAddr)
	fmt.Fprintln(out, "Done! Run 'testsmith login' or 'testsmith' to start.")
	return nil
}
