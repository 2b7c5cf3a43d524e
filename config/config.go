package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kastheco/testsmith/log"
)

const (
	ConfigFileName = "config.json"
	TOMLFileName   = "config.toml"

	// EnvConfigDir overrides the configuration directory (used by tests and
	// by users who keep dotfiles elsewhere).
	EnvConfigDir  = "TESTSMITH_CONFIG_DIR"
	EnvBackendURL = "TESTSMITH_BACKEND_URL"
	EnvClientID   = "TESTSMITH_CLIENT_ID"
)

const (
	defaultBackendURL   = "http://localhost:8000"
	defaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultGitHubAPIURL = "https://api.github.com"
	defaultRedirectAddr = "127.0.0.1:5173"
	defaultScopes       = "repo user"
	defaultDismissMs    = 5000
	defaultConcurrency  = 4
)

// GetConfigDir returns the path to the application's configuration directory,
// ~/.config/testsmith unless TESTSMITH_CONFIG_DIR is set.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "testsmith"), nil
}

// Config represents the application configuration.
type Config struct {
	// BackendURL is the base URL of the test-generation backend.
	BackendURL string `json:"backend_url" toml:"backend_url" validate:"required,url"`
	// ClientID is the GitHub OAuth application client id.
	ClientID string `json:"client_id" toml:"client_id"`
	// Scopes requested during authorization, space separated.
	Scopes string `json:"scopes" toml:"scopes"`
	// RedirectAddr is the loopback host:port the OAuth callback listener binds.
	// The redirect URI registered with GitHub must be http://<RedirectAddr>/callback.
	RedirectAddr string `json:"redirect_addr" toml:"redirect_addr" validate:"required,hostname_port"`
	// AuthorizeURL is the identity provider's authorization endpoint.
	AuthorizeURL string `json:"authorize_url" toml:"authorize_url" validate:"required,url"`
	// GitHubAPIURL is used to validate a restored token (GET /user).
	GitHubAPIURL string `json:"github_api_url" toml:"github_api_url" validate:"required,url"`
	// DefaultFramework is sent when a summary carries no framework of its own.
	DefaultFramework string `json:"default_framework,omitempty" toml:"default_framework"`
	// ErrorDismissMs is how long an error stays in the banner.
	ErrorDismissMs int `json:"error_dismiss_ms" toml:"error_dismiss_ms" validate:"gte=0"`
	// RequestTimeoutMs bounds each backend request. 0 keeps the transport default.
	RequestTimeoutMs int `json:"request_timeout_ms,omitempty" toml:"request_timeout_ms" validate:"gte=0"`
	// RequestsPerSecond throttles backend calls. 0 disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" toml:"requests_per_second" validate:"gte=0"`
	// FetchConcurrency bounds parallel file-content fetches.
	FetchConcurrency int `json:"fetch_concurrency" toml:"fetch_concurrency" validate:"gte=1,lte=32"`
	// DownloadDir is where saved test files are written. Empty means cwd.
	DownloadDir string `json:"download_dir,omitempty" toml:"download_dir"`
	// TelemetryEnabled controls whether crash reporting via Sentry is active.
	// Defaults to true when not set; a DSN is still required.
	TelemetryEnabled *bool `json:"telemetry_enabled,omitempty" toml:"telemetry_enabled"`
	// SentryDSN is the crash-reporting endpoint. Empty disables reporting.
	SentryDSN string `json:"sentry_dsn,omitempty" toml:"sentry_dsn"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:       defaultBackendURL,
		Scopes:           defaultScopes,
		RedirectAddr:     defaultRedirectAddr,
		AuthorizeURL:     defaultAuthorizeURL,
		GitHubAPIURL:     defaultGitHubAPIURL,
		ErrorDismissMs:   defaultDismissMs,
		FetchConcurrency: defaultConcurrency,
	}
}

// IsTelemetryEnabled returns whether Sentry telemetry is enabled.
// Defaults to true when the field is not set.
func (c *Config) IsTelemetryEnabled() bool {
	if c.TelemetryEnabled == nil {
		return true
	}
	return *c.TelemetryEnabled
}

// RedirectURI is the OAuth redirect target served by the callback listener.
func (c *Config) RedirectURI() string {
	return "http://" + c.RedirectAddr + "/callback"
}

// ErrorDismissAfter is ErrorDismissMs as a duration.
func (c *Config) ErrorDismissAfter() time.Duration {
	return time.Duration(c.ErrorDismissMs) * time.Millisecond
}

// RequestTimeout is RequestTimeoutMs as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

var validate = validator.New()

// Validate checks URLs, addresses and numeric bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from the default directory, falling back
// to defaults on any error. Errors are logged, never fatal.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return applyEnv(DefaultConfig())
	}
	return LoadConfigFrom(configDir)
}

// LoadConfigFrom loads config.json from dir (creating it with defaults when
// missing), overlays config.toml when present, then applies environment
// overrides.
func LoadConfigFrom(configDir string) *Config {
	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			defaultCfg := DefaultConfig()
			if saveErr := saveConfig(configDir, defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return applyEnv(overlayTOML(configDir, defaultCfg))
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return applyEnv(DefaultConfig())
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		log.ErrorLog.Printf("failed to parse config file: %v", err)
		return applyEnv(DefaultConfig())
	}

	return applyEnv(overlayTOML(configDir, config))
}

func overlayTOML(configDir string, cfg *Config) *Config {
	if err := LoadTOMLConfigInto(filepath.Join(configDir, TOMLFileName), cfg); err != nil {
		log.WarningLog.Printf("failed to load TOML config: %v", err)
	}
	return cfg
}

func applyEnv(cfg *Config) *Config {
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv(EnvClientID); v != "" {
		cfg.ClientID = v
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	cfg.GitHubAPIURL = strings.TrimRight(cfg.GitHubAPIURL, "/")
	return cfg
}

func saveConfig(configDir string, config *Config) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0o644)
}

// SaveConfig writes config.json into the default configuration directory.
func SaveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	return saveConfig(configDir, config)
}
