package secret

import (
	"errors"
	"testing"
)

type mapStore map[string][]byte

func (m mapStore) Get(key string) ([]byte, error) { return m[key], nil }
func (m mapStore) Set(key string, value []byte) error { m[key] = value; return nil }
func (m mapStore) Delete(key string) error { delete(m, key); return nil }

func TestEnvStore_Get(t *testing.T) {
	t.Setenv("EDGEALIGN_SECRET_JOURNAL_PW", "hunter2")

	v, err := NewEnvStore().Get("journal.pw")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "hunter2" {
		t.Errorf("Get = %q, want hunter2", v)
	}

	v, _ = NewEnvStore().Get("absent")
	if v != nil {
		t.Errorf("absent key = %q, want nil", v)
	}
}

func TestEnvStore_ReadOnly(t *testing.T) {
	if err := NewEnvStore().Set("k", []byte("v")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Set err = %v, want ErrReadOnly", err)
	}
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	first := mapStore{}
	second := mapStore{"journal": []byte("from-second")}
	c := Chain{first, second}

	v, _ := c.Get("journal")
	if string(v) != "from-second" {
		t.Errorf("Get = %q, want from-second", v)
	}

	first["journal"] = []byte("from-first")
	v, _ = c.Get("journal")
	if string(v) != "from-first" {
		t.Errorf("Get = %q, want from-first", v)
	}

	if err := c.Set("other", []byte("x")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if string(second["other"]) != "x" {
		t.Error("Set should write to the last store")
	}
}
