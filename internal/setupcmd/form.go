package setupcmd

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/kastheco/testsmith/config"

	"github.com/charmbracelet/huh"
)

// Answers holds the values collected by the setup form.
type Answers struct {
	BackendURL       string
	ClientID         string
	RedirectAddr     string
	DefaultFramework string
	Telemetry        bool
}

// frameworks offered for generated tests. "" leaves the choice to the backend.
var frameworks = []string{"", "go test", "jest", "vitest", "pytest", "junit", "rspec"}

// AnswersFromConfig seeds the form with the current settings.
func AnswersFromConfig(cfg *config.Config) Answers {
	return Answers{
		BackendURL:       cfg.BackendURL,
		ClientID:         cfg.ClientID,
		RedirectAddr:     cfg.RedirectAddr,
		DefaultFramework: cfg.DefaultFramework,
		Telemetry:        cfg.IsTelemetryEnabled(),
	}
}

// Settings converts answers to the TOML overlay.
func (a Answers) Settings() config.TOMLSettings {
	return config.TOMLSettings{
		BackendURL:       strings.TrimRight(strings.TrimSpace(a.BackendURL), "/"),
		ClientID:         strings.TrimSpace(a.ClientID),
		RedirectAddr:     strings.TrimSpace(a.RedirectAddr),
		DefaultFramework: a.DefaultFramework,
		TelemetryEnabled: a.Telemetry,
	}
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL")
	}
	return nil
}

func validateClientID(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("client id is required")
	}
	return nil
}

func validateAddr(s string) error {
	host, port, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil || host == "" || port == "" {
		return fmt.Errorf("enter host:port, e.g. 127.0.0.1:5173")
	}
	return nil
}

// runForm shows the interactive form and fills a.
func runForm(a *Answers) error {
	var frameworkOpts []huh.Option[string]
	for _, f := range frameworks {
		label := f
		if f == "" {
			label = "let the backend decide"
		}
		frameworkOpts = append(frameworkOpts, huh.NewOption(label, f))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("testsmith setup").
				Description("settings are written to config.toml and override config.json"),
			huh.NewInput().
				Title("backend url").
				Value(&a.BackendURL).
				Validate(validateURL),
			huh.NewInput().
				Title("github oauth client id").
				Value(&a.ClientID).
				Validate(validateClientID),
			huh.NewInput().
				Title("login callback address").
				Description("the oauth app's callback url must be http://<address>/callback").
				Value(&a.RedirectAddr).
				Validate(validateAddr),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("default test framework").
				Options(frameworkOpts...).
				Value(&a.DefaultFramework),
			huh.NewConfirm().
				Title("send crash reports?").
				Value(&a.Telemetry),
		),
	).WithTheme(formTheme())

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup form: %w", err)
	}
	return nil
}
