package testutil

import (
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/transport"
)

// NewServer starts an httptest server for handler and closes it when the
// test completes.
func NewServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}

// NewTLSServer starts an httptest TLS server for handler and writes its
// self-signed certificate to a PEM file. It returns the server and the
// bundle path.
func NewTLSServer(t *testing.T, handler http.Handler) (*httptest.Server, string) {
	t.Helper()

	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	bundle := filepath.Join(t.TempDir(), "ca.crt")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(bundle, data, 0o600); err != nil {
		t.Fatalf("writing CA bundle: %v", err)
	}

	return srv, bundle
}

// NewTrust returns a Trust with no overrides and a short timeout.
func NewTrust(t *testing.T) *transport.Trust {
	t.Helper()
	return transport.NewTrust(nil, 5*time.Second)
}

// Systems builds a single-entry system list pointing at baseURL.
func Systems(name, baseURL string) []model.SystemConfig {
	return []model.SystemConfig{{Name: name, BaseURL: baseURL}}
}

// WriteJSON encodes v as the response body, failing the test on error.
func WriteJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

// WriteNetrc writes a netrc file into a temporary directory and returns
// its path.
func WriteNetrc(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".netrc")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing netrc: %v", err)
	}

	return path
}

// StaticTokens is a source.TokenSource backed by a map of base URL to
// token.
type StaticTokens map[string]string

// HostToken returns the token stored for baseURL.
func (s StaticTokens) HostToken(baseURL string) (string, error) {
	return s[baseURL], nil
}
