package secrets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basecamp/basecamp-cli/internal/output"
)

type countingKeystore struct {
	*MemoryKeystore
	gets int
}

func (c *countingKeystore) Get(service, account string) (string, error) {
	c.gets++
	return c.MemoryKeystore.Get(service, account)
}

func TestStoreLoadMissingVault(t *testing.T) {
	ks := &countingKeystore{MemoryKeystore: NewMemoryKeystore()}
	store := NewStore(t.TempDir(), ks)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, SecretConfig{}, cfg)

	// First run must not create a passphrase as a side effect of reading.
	assert.Zero(t, ks.gets)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, NewMemoryKeystore())

	want := SecretConfig{
		ClientSecret: "shhh",
		AccessToken:  "at-123",
		RefreshToken: "rt-456",
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The vault and its directory are private to the user.
	info, err := os.Stat(store.VaultPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(store.VaultPath()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestStoreVaultIsEncryptedOnDisk(t *testing.T) {
	store := NewStore(t.TempDir(), NewMemoryKeystore())
	require.NoError(t, store.Save(SecretConfig{AccessToken: "super-secret-token"}))

	raw, err := os.ReadFile(store.VaultPath())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-token")
	assert.NotContains(t, string(raw), "version")
}

func TestStoreLoadRejectsNewerVaultVersion(t *testing.T) {
	dir := t.TempDir()
	ks := NewMemoryKeystore()
	store := NewStore(dir, ks)

	passphrase, err := GetOrCreatePassphrase(ks, store.KeystoreAccount())
	require.NoError(t, err)

	payload, err := json.Marshal(vaultEnvelope{
		Version: vaultVersion + 1,
		Secrets: SecretConfig{AccessToken: "future"},
	})
	require.NoError(t, err)
	sealed, err := Encrypt(payload, passphrase)
	require.NoError(t, err)

	require.NoError(t, EnsureSecureDir(filepath.Dir(store.VaultPath())))
	require.NoError(t, WriteFileAtomic(store.VaultPath(), sealed))

	_, err = store.Load()
	require.Error(t, err)
	assert.Equal(t, output.CodeSecureStorage, output.AsError(err).Code)
	assert.Contains(t, err.Error(), "newer version")
}

func TestStoreLoadAcceptsOlderVaultVersion(t *testing.T) {
	dir := t.TempDir()
	ks := NewMemoryKeystore()
	store := NewStore(dir, ks)

	passphrase, err := GetOrCreatePassphrase(ks, store.KeystoreAccount())
	require.NoError(t, err)

	payload, err := json.Marshal(vaultEnvelope{
		Version: vaultVersion - 1,
		Secrets: SecretConfig{AccessToken: "past"},
	})
	require.NoError(t, err)
	sealed, err := Encrypt(payload, passphrase)
	require.NoError(t, err)

	require.NoError(t, EnsureSecureDir(filepath.Dir(store.VaultPath())))
	require.NoError(t, WriteFileAtomic(store.VaultPath(), sealed))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, SecretConfig{AccessToken: "past"}, got)
}

func TestStoreLoadFailsClosedOnCorruptVault(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, NewMemoryKeystore())
	require.NoError(t, store.Save(SecretConfig{AccessToken: "tok"}))

	raw, err := os.ReadFile(store.VaultPath())
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(store.VaultPath(), raw, 0o600))

	_, err = store.Load()
	require.Error(t, err)
	assert.Equal(t, output.CodeSecureStorage, output.AsError(err).Code)
}

func TestStoreLoadFailsWhenPassphraseChanged(t *testing.T) {
	dir := t.TempDir()
	ks := NewMemoryKeystore()
	store := NewStore(dir, ks)
	require.NoError(t, store.Save(SecretConfig{AccessToken: "tok"}))

	require.NoError(t, ks.Set(Service, store.KeystoreAccount(), "another passphrase"))

	_, err := store.Load()
	require.Error(t, err)
	assert.Equal(t, output.CodeSecureStorage, output.AsError(err).Code)
}

func TestStoreSaveReplacesPreviousSecrets(t *testing.T) {
	store := NewStore(t.TempDir(), NewMemoryKeystore())
	require.NoError(t, store.Save(SecretConfig{ClientSecret: "a", AccessToken: "b"}))
	require.NoError(t, store.Save(SecretConfig{ClientSecret: "a"}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, SecretConfig{ClientSecret: "a"}, got)
}
