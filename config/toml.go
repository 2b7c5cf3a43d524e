package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kastheco/testsmith/log"
)

// LoadTOMLConfigInto decodes the TOML file at path on top of cfg. Only keys
// present in the file are overwritten, so TOML is the authority for whatever
// it sets. A missing file is not an error.
func LoadTOMLConfigInto(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.WarningLog.Printf("unknown key %q in %s", key.String(), path)
	}
	return nil
}

// TOMLSettings is the subset of Config written by the setup command.
type TOMLSettings struct {
	BackendURL       string `toml:"backend_url"`
	ClientID         string `toml:"client_id"`
	RedirectAddr     string `toml:"redirect_addr"`
	DefaultFramework string `toml:"default_framework,omitempty"`
	TelemetryEnabled bool   `toml:"telemetry_enabled"`
}

// WriteTOMLConfig writes settings to config.toml in configDir.
func WriteTOMLConfig(configDir string, s TOMLSettings) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, TOMLFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString("# testsmith configuration, written by `testsmith setup`\n\n"); err != nil {
		return "", err
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	return path, nil
}
