package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "trelloha"

// OpenKeyring returns the system keyring used to store credentials.
func OpenKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/trelloha/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("trelloha-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Keyring is a Provider backed by a keyring. Each machine is stored as
// two entries, "<machine>/login" and "<machine>/password".
type Keyring struct {
	ring keyring.Keyring
}

// NewKeyring wraps an opened keyring.
func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

// Lookup returns the stored credentials for machine, or nil when the
// keyring holds no password for it.
func (k *Keyring) Lookup(machine string) (*Machine, error) {
	password, err := k.get(passwordKey(machine))
	if err != nil || password == "" {
		return nil, err
	}

	login, err := k.get(loginKey(machine))
	if err != nil {
		return nil, err
	}

	return &Machine{Name: machine, Login: login, Password: password}, nil
}

// Store saves the login and password for machine.
func (k *Keyring) Store(machine, login, password string) error {
	if err := k.set(loginKey(machine), login); err != nil {
		return err
	}
	return k.set(passwordKey(machine), password)
}

// Forget removes both entries for machine. Missing entries are ignored.
func (k *Keyring) Forget(machine string) error {
	for _, key := range []string{loginKey(machine), passwordKey(machine)} {
		err := k.ring.Remove(key)
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("deleting credential %q: %w", key, err)
		}
	}
	return nil
}

func (k *Keyring) get(key string) (string, error) {
	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

func (k *Keyring) set(key, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

func loginKey(machine string) string    { return machine + "/login" }
func passwordKey(machine string) string { return machine + "/password" }
