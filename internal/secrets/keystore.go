package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/basecamp/basecamp-cli/internal/output"
)

// Service is the credential-manager service name for all entries.
const Service = "basecamp-cli"

// ErrKeystoreNotFound reports a missing entry, as opposed to a backend
// failure. Only a missing entry triggers passphrase generation.
var ErrKeystoreNotFound = errors.New("keystore entry not found")

// Keystore is the OS credential-manager surface the secret store needs.
// Implementations must return ErrKeystoreNotFound for missing entries.
type Keystore interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}

type systemKeystore struct{}

// SystemKeystore returns the OS-backed keystore (Keychain, Secret Service,
// or Windows Credential Manager, via go-keyring).
func SystemKeystore() Keystore {
	return systemKeystore{}
}

func (systemKeystore) Get(service, account string) (string, error) {
	value, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeystoreNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (systemKeystore) Set(service, account, value string) error {
	return keyring.Set(service, account, value)
}

func (systemKeystore) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrKeystoreNotFound
	}
	return err
}

// MemoryKeystore is an in-memory Keystore for tests.
type MemoryKeystore struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{entries: make(map[string]string)}
}

func (m *MemoryKeystore) Get(service, account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[service+"\x00"+account]
	if !ok {
		return "", ErrKeystoreNotFound
	}
	return value, nil
}

func (m *MemoryKeystore) Set(service, account, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[service+"\x00"+account] = value
	return nil
}

func (m *MemoryKeystore) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := service + "\x00" + account
	if _, ok := m.entries[key]; !ok {
		return ErrKeystoreNotFound
	}
	delete(m.entries, key)
	return nil
}

// AccountKey derives the keystore account name for a config directory.
// Hashing the canonical path keeps distinct config dirs (e.g. test
// sandboxes) from clobbering each other's passphrase while keeping the
// entry name short and free of path separators.
func AccountKey(configDir string) string {
	canonical := configDir
	if abs, err := filepath.Abs(configDir); err == nil {
		canonical = abs
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			canonical = resolved
		}
	}
	sum := sha256.Sum256([]byte(canonical))
	return "secrets|" + hex.EncodeToString(sum[:])[:16]
}

// GetOrCreatePassphrase returns the vault passphrase for the account,
// generating and persisting a fresh random one on first use. Backend
// failures are fatal; there is no plaintext fallback.
func GetOrCreatePassphrase(ks Keystore, account string) (string, error) {
	value, err := ks.Get(Service, account)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrKeystoreNotFound) {
		return "", output.ErrSecureStorage(
			"Failed to read the secret-store passphrase from the OS credential manager (service "+Service+", account "+account+")", err)
	}

	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", output.ErrSecureStorage("Failed to generate a secret-store passphrase", err)
	}
	passphrase := base64.StdEncoding.EncodeToString(raw[:])
	for i := range raw {
		raw[i] = 0
	}

	if err := ks.Set(Service, account, passphrase); err != nil {
		return "", output.ErrSecureStorage(
			"Failed to save the secret-store passphrase to the OS credential manager (service "+Service+", account "+account+")", err)
	}
	return passphrase, nil
}
