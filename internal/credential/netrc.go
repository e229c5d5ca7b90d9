package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bgentry/go-netrc/netrc"
)

// Netrc is a Provider reading a netrc file.
type Netrc struct {
	path string
}

// NewNetrc creates a provider for the netrc file at path. An empty path
// means ~/.netrc.
func NewNetrc(path string) *Netrc {
	if path == "" {
		path = DefaultNetrcPath()
	}
	return &Netrc{path: path}
}

// DefaultNetrcPath returns ~/.netrc.
func DefaultNetrcPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netrc"
	}
	return filepath.Join(home, ".netrc")
}

// Lookup returns the entry for machine. A missing file, a missing entry
// and the "default" entry all yield nil.
func (n *Netrc) Lookup(machine string) (*Machine, error) {
	m, err := netrc.FindMachine(n.path, machine)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", n.path, err)
	}
	if m == nil || m.IsDefault() || m.Password == "" {
		return nil, nil
	}

	return &Machine{Name: m.Name, Login: m.Login, Password: m.Password}, nil
}
