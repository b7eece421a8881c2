package secret

import (
	"errors"
	"os"
	"strings"
)

// ErrReadOnly is returned by stores that cannot persist secrets.
var ErrReadOnly = errors.New("secret store is read-only")

const envPrefix = "EDGEALIGN_SECRET_"

// EnvStore reads secrets from EDGEALIGN_SECRET_<KEY> environment variables.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func (EnvStore) Get(key string) ([]byte, error) {
	v := os.Getenv(EnvName(key))
	if v == "" {
		return nil, nil
	}
	return []byte(v), nil
}

func (EnvStore) Set(string, []byte) error { return ErrReadOnly }

func (EnvStore) Delete(string) error { return ErrReadOnly }

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	key = strings.ToUpper(key)
	key = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(key)
	return envPrefix + key
}
