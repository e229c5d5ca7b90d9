// Package credential locates the secrets trelloha needs: the board id
// and token for the board service, and per-host tokens for optional
// systems. A netrc file is read first, then the system keyring.
package credential

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/nhle/trelloha/internal/board"
	"github.com/nhle/trelloha/internal/model"
)

// Machine is one stored login/password pair.
type Machine struct {
	Name     string
	Login    string
	Password string
}

// Provider looks up credentials by machine name. A nil Machine with a
// nil error means the provider has no entry.
type Provider interface {
	Lookup(machine string) (*Machine, error)
}

// NoAuthError means the board credentials are missing or were rejected.
// Its message tells the user how to obtain and store a new token.
type NoAuthError struct {
	AuthorizeURL string
	Machine      string
	Err          error
}

// NewNoAuthError builds a NoAuthError for the configured board service.
func NewNoAuthError(cfg model.BoardConfig, cause error) *NoAuthError {
	return &NoAuthError{
		AuthorizeURL: board.AuthorizeURL(cfg),
		Machine:      cfg.Machine,
		Err:          cause,
	}
}

func (e *NoAuthError) Error() string {
	return fmt.Sprintf(
		"No authentication token found or token expired.\n\n"+
			"Go to:\n%s\n\n"+
			"and add the following to your ~/.netrc file:\n\n"+
			"machine %s login <BOARD_ID> password <TOKEN>",
		e.AuthorizeURL, e.Machine,
	)
}

func (e *NoAuthError) Unwrap() error {
	return e.Err
}

// IsNoAuthError reports whether err (or any error in its chain) is a
// NoAuthError.
func IsNoAuthError(err error) bool {
	var noAuth *NoAuthError
	return errors.As(err, &noAuth)
}

// Chain consults providers in order; the first entry found wins.
type Chain []Provider

// Lookup returns the first entry for machine found in the chain.
func (c Chain) Lookup(machine string) (*Machine, error) {
	for _, p := range c {
		m, err := p.Lookup(machine)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// BoardCredentials returns the board id (login) and token (password)
// stored for the board machine. A missing entry yields a NoAuthError.
func (c Chain) BoardCredentials(cfg model.BoardConfig) (string, string, error) {
	m, err := c.Lookup(cfg.Machine)
	if err != nil {
		return "", "", fmt.Errorf("looking up %s credentials: %w", cfg.Machine, err)
	}
	if m == nil || m.Login == "" {
		return "", "", NewNoAuthError(cfg, nil)
	}
	return m.Login, m.Password, nil
}

// HostToken returns the password stored for the host of baseURL, or ""
// when none is stored.
func (c Chain) HostToken(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", baseURL, err)
	}

	m, err := c.Lookup(u.Hostname())
	if err != nil || m == nil {
		return "", err
	}
	return m.Password, nil
}

// NewChain builds the provider chain described by cfg.
func NewChain(cfg model.CredentialsConfig) (Chain, error) {
	chain := Chain{NewNetrc(cfg.NetrcFile)}
	if cfg.Keyring {
		ring, err := OpenKeyring()
		if err != nil {
			return nil, err
		}
		chain = append(chain, NewKeyring(ring))
	}
	return chain, nil
}
