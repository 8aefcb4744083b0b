// Package secrets stores OAuth client secrets and tokens in an encrypted
// vault on disk, keyed by a passphrase held in the OS credential manager.
package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/basecamp/basecamp-cli/internal/output"
)

const (
	secretsDirName  = "secrets"
	secretsFileName = "local.vault"

	// vaultVersion is the newest vault payload layout this build writes and
	// understands. Older payloads load; newer ones are refused rather than
	// silently misread.
	vaultVersion = 1
)

// SecretConfig holds everything that must never touch the plaintext config.
// Empty strings mean "not set".
type SecretConfig struct {
	ClientSecret string `json:"client_secret,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type vaultEnvelope struct {
	Version int          `json:"version"`
	Secrets SecretConfig `json:"secrets"`
}

// Store reads and writes the encrypted vault for one config directory.
type Store struct {
	configDir string
	keystore  Keystore
}

// NewStore creates a secret store rooted at configDir.
func NewStore(configDir string, ks Keystore) *Store {
	return &Store{configDir: configDir, keystore: ks}
}

// VaultPath returns the on-disk location of the encrypted vault.
func (s *Store) VaultPath() string {
	return filepath.Join(s.configDir, secretsDirName, secretsFileName)
}

// KeystoreAccount returns the credential-manager account name for this store.
func (s *Store) KeystoreAccount() string {
	return AccountKey(s.configDir)
}

// Load reads and decrypts the vault. A missing vault is the first-run state
// and yields an empty SecretConfig without consulting the keystore; any
// other failure is fatal so callers never mistake an unreadable vault for
// "no secrets stored".
func (s *Store) Load() (SecretConfig, error) {
	data, err := os.ReadFile(s.VaultPath())
	if os.IsNotExist(err) {
		return SecretConfig{}, nil
	}
	if err != nil {
		return SecretConfig{}, output.ErrSecureStorage(fmt.Sprintf("Failed to read the secret store at %s", s.VaultPath()), err)
	}

	passphrase, err := GetOrCreatePassphrase(s.keystore, s.KeystoreAccount())
	if err != nil {
		return SecretConfig{}, err
	}

	plaintext, err := Decrypt(data, passphrase)
	if err != nil {
		return SecretConfig{}, output.ErrSecureStorage(
			"Failed to decrypt the secret store. The vault may be corrupted or the keyring passphrase may have changed.", err)
	}

	var envelope vaultEnvelope
	if err := json.Unmarshal(plaintext, &envelope); err != nil {
		return SecretConfig{}, output.ErrSecureStorage("Failed to parse the decrypted secret store", err)
	}
	if envelope.Version > vaultVersion {
		return SecretConfig{}, output.ErrSecureStoragef(
			"The secret store was written by a newer version of basecamp-cli (vault version %d, supported %d). Upgrade to read it.",
			envelope.Version, vaultVersion)
	}
	return envelope.Secrets, nil
}

// Save encrypts and writes the full secret set, replacing the previous
// vault. Load-modify-save is the caller's job.
func (s *Store) Save(cfg SecretConfig) error {
	dir := filepath.Dir(s.VaultPath())
	if err := EnsureSecureDir(dir); err != nil {
		return output.ErrSecureStorage("Failed to prepare the secret-store directory", err)
	}

	passphrase, err := GetOrCreatePassphrase(s.keystore, s.KeystoreAccount())
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(vaultEnvelope{Version: vaultVersion, Secrets: cfg})
	if err != nil {
		return output.ErrSecureStorage("Failed to encode the secret store", err)
	}
	sealed, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return output.ErrSecureStorage("Failed to encrypt the secret store", err)
	}
	if err := WriteFileAtomic(s.VaultPath(), sealed); err != nil {
		return output.ErrSecureStorage(fmt.Sprintf("Failed to write the secret store at %s", s.VaultPath()), err)
	}
	return nil
}
