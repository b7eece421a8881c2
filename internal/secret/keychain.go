package secret

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

const keychainService = "edgealign-journal"

// KeychainStore implements SecretStore using the macOS Keychain
// via the `security` CLI tool. On other platforms it stores nothing.
type KeychainStore struct {
	available bool
}

// NewKeychainStore creates a new KeychainStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{available: runtime.GOOS == "darwin"}
}

// Set stores a secret in the macOS Keychain.
// If the key already exists, it updates the value.
func (k *KeychainStore) Set(key string, value []byte) error {
	if !k.available {
		return fmt.Errorf("keychain set: %w on %s", ErrReadOnly, runtime.GOOS)
	}
	cmd := exec.Command("security", "add-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", string(value),
		"-U", // update if exists
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get retrieves a secret from the macOS Keychain.
// Returns empty slice and nil error if the key doesn't exist.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	if !k.available {
		return nil, nil
	}
	cmd := exec.Command("security", "find-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", // output only the password
	)
	out, err := cmd.Output()
	if err != nil {
		// "security" exits with 44 when the item is missing; any other
		// failure is treated the same so a locked keychain does not block runs.
		return nil, nil
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

// Delete removes a secret from the macOS Keychain.
func (k *KeychainStore) Delete(key string) error {
	if !k.available {
		return nil
	}
	cmd := exec.Command("security", "delete-generic-password",
		"-a", key,
		"-s", keychainService,
	)
	cmd.Run() // item may not exist
	return nil
}
