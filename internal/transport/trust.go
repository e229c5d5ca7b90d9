// Package transport builds HTTP clients whose TLS trust depends on the
// URL being contacted: a configured CA bundle for matching base URLs and
// the system roots for everything else.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nhle/trelloha/internal/model"
)

type override struct {
	baseURL  string
	caBundle string
	client   *http.Client
}

// Trust hands out HTTP clients per base URL. Bundles are loaded the first
// time a matching URL is requested, so an unused override never fails.
type Trust struct {
	mu        sync.Mutex
	overrides []*override
	timeout   time.Duration
	system    *http.Client
}

// NewTrust creates a Trust from the configured overrides. A zero timeout
// leaves clients without a deadline.
func NewTrust(cfg []model.TrustConfig, timeout time.Duration) *Trust {
	overrides := make([]*override, 0, len(cfg))
	for _, c := range cfg {
		overrides = append(overrides, &override{
			baseURL:  c.BaseURL,
			caBundle: c.CABundle,
		})
	}
	return &Trust{
		overrides: overrides,
		timeout:   timeout,
		system:    &http.Client{Timeout: timeout},
	}
}

// ClientFor returns the client to use for requests under rawURL.
func (t *Trust) ClientFor(rawURL string) (*http.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, o := range t.overrides {
		if !strings.HasPrefix(rawURL, o.baseURL) {
			continue
		}
		if o.client == nil {
			client, err := t.bundleClient(o.caBundle)
			if err != nil {
				return nil, fmt.Errorf("trust for %s: %w", o.baseURL, err)
			}
			o.client = client
		}
		return o.client, nil
	}
	return t.system, nil
}

func (t *Trust) bundleClient(path string) (*http.Client, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CA bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	return &http.Client{Transport: tr, Timeout: t.timeout}, nil
}
