// Package session resolves OAuth integration credentials and persists the
// login session across the plaintext config and the encrypted vault.
package session

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/basecamp/basecamp-cli/internal/config"
	"github.com/basecamp/basecamp-cli/internal/output"
	"github.com/basecamp/basecamp-cli/internal/secrets"
)

// Environment variables consulted between CLI flags and stored config.
const (
	EnvClientID     = "BASECAMP_CLIENT_ID"
	EnvClientSecret = "BASECAMP_CLIENT_SECRET"
	EnvRedirectURI  = "BASECAMP_REDIRECT_URI"
)

// Overrides are the credential flags a command may pass through.
type Overrides struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Integration is a fully resolved set of OAuth client credentials.
type Integration struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Session is everything login needs to persist.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccountID    int64
	AccountName  string
	AccountHref  string
}

// Context is the minimal state an API-calling command needs.
type Context struct {
	AccountID   int64
	AccountName string
	AccessToken string
}

// IntegrationStatus is what `integration show` reports. The client secret is
// only ever described, never returned.
type IntegrationStatus struct {
	ClientID        string
	RedirectURI     string
	HasClientSecret bool
}

// StorageInfo describes where secrets live, for the stderr notice printed
// before any command touches the secret store.
type StorageInfo struct {
	KeyringService string
	KeyringAccount string
	VaultPath      string
	ConfigPath     string
}

// Store ties the plaintext config and the encrypted vault together for one
// config directory.
type Store struct {
	dir   string
	vault *secrets.Store
}

// NewStore creates a session store rooted at dir.
func NewStore(dir string, ks secrets.Keystore) *Store {
	return &Store{dir: dir, vault: secrets.NewStore(dir, ks)}
}

// ConfigDir returns the config directory this store operates on.
func (s *Store) ConfigDir() string {
	return s.dir
}

// StorageInfo reports the keyring entry and file locations in use.
func (s *Store) StorageInfo() StorageInfo {
	return StorageInfo{
		KeyringService: secrets.Service,
		KeyringAccount: s.vault.KeystoreAccount(),
		VaultPath:      s.vault.VaultPath(),
		ConfigPath:     config.Path(s.dir),
	}
}

// SetIntegration stores the client id and redirect URI in the config and the
// client secret in the vault. Existing tokens are preserved.
func (s *Store) SetIntegration(clientID, clientSecret, redirectURI string) error {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	redirectURI = strings.TrimSpace(redirectURI)

	if clientID == "" {
		return output.ErrInvalidInput("Client ID must not be empty.")
	}
	if clientSecret == "" {
		return output.ErrInvalidInput("Client secret must not be empty.")
	}
	if err := ValidateRedirectURI(redirectURI); err != nil {
		return err
	}

	vaultCfg, err := s.vault.Load()
	if err != nil {
		return err
	}
	vaultCfg.ClientSecret = clientSecret
	if err := s.vault.Save(vaultCfg); err != nil {
		return err
	}

	cfg, err := config.Load(s.dir)
	if err != nil {
		return err
	}
	cfg.Integration.ClientID = clientID
	cfg.Integration.RedirectURI = redirectURI
	return config.Save(s.dir, cfg)
}

// IntegrationStatus reports what is configured without exposing the secret.
func (s *Store) IntegrationStatus() (IntegrationStatus, error) {
	cfg, err := config.Load(s.dir)
	if err != nil {
		return IntegrationStatus{}, err
	}
	vaultCfg, err := s.vault.Load()
	if err != nil {
		return IntegrationStatus{}, err
	}
	return IntegrationStatus{
		ClientID:        cfg.Integration.ClientID,
		RedirectURI:     cfg.Integration.RedirectURI,
		HasClientSecret: vaultCfg.ClientSecret != "",
	}, nil
}

// IntegrationDefaults returns stored non-secret credentials for prompting.
func (s *Store) IntegrationDefaults() (clientID, redirectURI string, err error) {
	cfg, err := config.Load(s.dir)
	if err != nil {
		return "", "", err
	}
	return cfg.Integration.ClientID, cfg.Integration.RedirectURI, nil
}

// ClearIntegration removes the stored client credentials. Tokens and the
// session survive; idempotent when nothing is stored.
func (s *Store) ClearIntegration() error {
	vaultCfg, err := s.vault.Load()
	if err != nil {
		return err
	}
	if vaultCfg.ClientSecret != "" {
		vaultCfg.ClientSecret = ""
		if err := s.vault.Save(vaultCfg); err != nil {
			return err
		}
	}

	cfg, err := config.Load(s.dir)
	if err != nil {
		return err
	}
	if cfg.Integration == (config.IntegrationConfig{}) {
		return nil
	}
	cfg.Integration = config.IntegrationConfig{}
	return config.Save(s.dir, cfg)
}

// ResolveLoginCredentials picks each credential from, in order: the CLI
// flag, the environment, then stored config/vault. The first non-blank value
// wins per field.
func (s *Store) ResolveLoginCredentials(o Overrides) (Integration, error) {
	cfg, err := config.Load(s.dir)
	if err != nil {
		return Integration{}, err
	}
	vaultCfg, err := s.vault.Load()
	if err != nil {
		return Integration{}, err
	}

	clientID, err := pickValue("client ID", "--client-id", EnvClientID, o.ClientID, cfg.Integration.ClientID)
	if err != nil {
		return Integration{}, err
	}
	clientSecret, err := pickValue("client secret", "--client-secret", EnvClientSecret, o.ClientSecret, vaultCfg.ClientSecret)
	if err != nil {
		return Integration{}, err
	}
	redirectURI, err := pickValue("redirect URI", "--redirect-uri", EnvRedirectURI, o.RedirectURI, cfg.Integration.RedirectURI)
	if err != nil {
		return Integration{}, err
	}
	if err := ValidateRedirectURI(redirectURI); err != nil {
		return Integration{}, err
	}

	return Integration{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
	}, nil
}

// SaveSession persists tokens to the vault first, then the account to the
// config. If the vault write fails the config is left untouched, so the
// plaintext file never points at tokens that were not stored.
func (s *Store) SaveSession(sess Session) error {
	vaultCfg, err := s.vault.Load()
	if err != nil {
		return err
	}
	vaultCfg.AccessToken = sess.AccessToken
	vaultCfg.RefreshToken = sess.RefreshToken
	if err := s.vault.Save(vaultCfg); err != nil {
		return err
	}

	cfg, err := config.Load(s.dir)
	if err != nil {
		return err
	}
	cfg.Session = config.SessionConfig{
		AccountID:   sess.AccountID,
		AccountName: sess.AccountName,
		AccountHref: sess.AccountHref,
		UpdatedAt:   time.Now().Unix(),
	}
	return config.Save(s.dir, cfg)
}

// ClearSession drops tokens and the stored account. Idempotent.
func (s *Store) ClearSession() error {
	vaultCfg, err := s.vault.Load()
	if err != nil {
		return err
	}
	if vaultCfg.AccessToken != "" || vaultCfg.RefreshToken != "" {
		vaultCfg.AccessToken = ""
		vaultCfg.RefreshToken = ""
		if err := s.vault.Save(vaultCfg); err != nil {
			return err
		}
	}

	cfg, err := config.Load(s.dir)
	if err != nil {
		return err
	}
	if cfg.Session == (config.SessionConfig{}) {
		return nil
	}
	cfg.Session = config.SessionConfig{}
	return config.Save(s.dir, cfg)
}

// ResolveSessionContext loads the state API commands need. Missing pieces
// mean the user is not logged in; a stray client secret in the vault does
// not change that.
func (s *Store) ResolveSessionContext() (Context, error) {
	cfg, err := config.Load(s.dir)
	if err != nil {
		return Context{}, err
	}
	vaultCfg, err := s.vault.Load()
	if err != nil {
		return Context{}, err
	}

	if cfg.Session.AccountID == 0 || vaultCfg.AccessToken == "" {
		return Context{}, output.ErrOAuthHint("Not logged in.", "Run `basecamp login` first")
	}
	return Context{
		AccountID:   cfg.Session.AccountID,
		AccountName: cfg.Session.AccountName,
		AccessToken: vaultCfg.AccessToken,
	}, nil
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken() (string, error) {
	vaultCfg, err := s.vault.Load()
	if err != nil {
		return "", err
	}
	return vaultCfg.RefreshToken, nil
}

// ValidateRedirectURI requires an absolute http(s) URL with a host.
func ValidateRedirectURI(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return output.ErrInvalidInput("Redirect URI must be an absolute http(s) URL, e.g. http://127.0.0.1:45455/callback.")
	}
	return nil
}

// RedactValue masks a credential for display, keeping just enough of the
// edges to recognize it.
func RedactValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + "..." + value[len(value)-4:]
}

func pickValue(name, flagName, envName, flagValue, storedValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(storedValue); v != "" {
		return v, nil
	}
	return "", output.ErrInvalidInputHint(
		"Missing "+name+".",
		"Pass "+flagName+", set "+envName+", or run `basecamp integration set`")
}
