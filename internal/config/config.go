// Package config resolves the basecamp-cli config directory and persists the
// non-secret application config. Secrets never land here; they belong to the
// encrypted store in internal/secrets.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/secrets"
)

const (
	// EnvConfigDir overrides the config directory, mainly for tests and
	// scripted environments.
	EnvConfigDir = "BASECAMP_CLI_CONFIG_DIR"

	appDirName     = "basecamp-cli"
	configFileName = "config.json"
)

// IntegrationConfig identifies the registered OAuth application. The client
// secret lives in the vault, not here.
type IntegrationConfig struct {
	ClientID    string `json:"client_id,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// SessionConfig records the account chosen at login.
type SessionConfig struct {
	AccountID   int64  `json:"account_id,omitempty"`
	AccountName string `json:"account_name,omitempty"`
	AccountHref string `json:"account_href,omitempty"`
	UpdatedAt   int64  `json:"updated_at,omitempty"`
}

// AppConfig is the plaintext config file.
type AppConfig struct {
	Integration IntegrationConfig `json:"integration"`
	Session     SessionConfig     `json:"session"`
}

// Dir returns the config directory: the env override when set, otherwise the
// platform config home plus the app directory.
func Dir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(EnvConfigDir)); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", output.ErrGenericf("Failed to resolve the user config directory: %v", err)
	}
	return filepath.Join(base, appDirName), nil
}

// EnsureDir resolves the config directory and creates it with 0700.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := secrets.EnsureSecureDir(dir); err != nil {
		return "", output.ErrGenericf("Failed to create config directory: %v", err)
	}
	return dir, nil
}

// Path returns the config file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, configFileName)
}

// Load reads the config file from dir. A missing or empty file yields a zero
// AppConfig; a malformed one is an error rather than a silent reset.
func Load(dir string) (*AppConfig, error) {
	data, err := os.ReadFile(Path(dir))
	if os.IsNotExist(err) {
		return &AppConfig{}, nil
	}
	if err != nil {
		return nil, output.ErrGenericf("Failed to read %s: %v", Path(dir), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &AppConfig{}, nil
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, output.ErrGenericf("Failed to parse %s: %v", Path(dir), err)
	}
	return &cfg, nil
}

// Save writes the config file atomically with 0600 permissions.
func Save(dir string, cfg *AppConfig) error {
	if err := secrets.EnsureSecureDir(dir); err != nil {
		return output.ErrGenericf("Failed to create config directory: %v", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return output.ErrGenericf("Failed to encode config: %v", err)
	}
	data = append(data, '\n')
	if err := secrets.WriteFileAtomic(Path(dir), data); err != nil {
		return output.ErrGenericf("Failed to write %s: %v", Path(dir), err)
	}
	return nil
}
