package secret

// SecretStore provides a pluggable interface for sensitive values such as
// the journal database password.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Chain reads from each store in order and writes to the last one.
type Chain []SecretStore

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return ErrReadOnly
	}
	return c[len(c)-1].Set(key, value)
}

func (c Chain) Delete(key string) error {
	if len(c) == 0 {
		return ErrReadOnly
	}
	return c[len(c)-1].Delete(key)
}

// Default returns the environment followed by the OS keychain.
func Default() SecretStore {
	return Chain{NewEnvStore(), NewKeychainStore()}
}
