package credential

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/testutil"
)

func boardConfig() model.BoardConfig {
	return model.DefaultAppConfig().Board
}

func TestNetrcLookup(t *testing.T) {
	path := testutil.WriteNetrc(t, `
machine trello.com login board123 password tok456
machine jira.corp.example.com login me password pat-789
default login anonymous password guest
`)
	n := NewNetrc(path)

	m, err := n.Lookup("trello.com")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "board123", m.Login)
	assert.Equal(t, "tok456", m.Password)

	m, err = n.Lookup("unknown.example.com")
	require.NoError(t, err)
	assert.Nil(t, m, "default entry must not be used")
}

func TestNetrcMissingFile(t *testing.T) {
	n := NewNetrc(filepath.Join(t.TempDir(), "absent"))

	m, err := n.Lookup("trello.com")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestKeyringStoreLookupForget(t *testing.T) {
	k := NewKeyring(keyring.NewArrayKeyring(nil))

	m, err := k.Lookup("trello.com")
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, k.Store("trello.com", "board123", "tok456"))

	m, err = k.Lookup("trello.com")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "board123", m.Login)
	assert.Equal(t, "tok456", m.Password)

	require.NoError(t, k.Forget("trello.com"))
	m, err = k.Lookup("trello.com")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestChainPrefersNetrc(t *testing.T) {
	ring := NewKeyring(keyring.NewArrayKeyring(nil))
	require.NoError(t, ring.Store("trello.com", "from-keyring", "k"))
	require.NoError(t, ring.Store("only.keyring.example.com", "u", "kr-token"))

	chain := Chain{
		NewNetrc(testutil.WriteNetrc(t, "machine trello.com login from-netrc password n\n")),
		ring,
	}

	boardID, token, err := chain.BoardCredentials(boardConfig())
	require.NoError(t, err)
	assert.Equal(t, "from-netrc", boardID)
	assert.Equal(t, "n", token)

	token, err = chain.HostToken("https://only.keyring.example.com/jira")
	require.NoError(t, err)
	assert.Equal(t, "kr-token", token)

	token, err = chain.HostToken("https://nowhere.example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestBoardCredentialsMissing(t *testing.T) {
	chain := Chain{NewNetrc(filepath.Join(t.TempDir(), "absent"))}

	_, _, err := chain.BoardCredentials(boardConfig())
	require.Error(t, err)
	assert.True(t, IsNoAuthError(err))

	msg := err.Error()
	assert.Contains(t, msg, "No authentication token found or token expired.")
	assert.Contains(t, msg, "https://trello.com/1/authorize?")
	assert.Contains(t, msg, "key="+model.DefaultAppKey)
	assert.Contains(t, msg, "machine trello.com login <BOARD_ID> password <TOKEN>")
}

type failingProvider struct{}

func (failingProvider) Lookup(string) (*Machine, error) {
	return nil, errors.New("backend locked")
}

func TestChainStopsOnProviderError(t *testing.T) {
	chain := Chain{failingProvider{}, NewKeyring(keyring.NewArrayKeyring(nil))}

	_, _, err := chain.BoardCredentials(boardConfig())
	assert.ErrorContains(t, err, "backend locked")
	assert.False(t, IsNoAuthError(err))
}
