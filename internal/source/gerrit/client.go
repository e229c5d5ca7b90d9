package gerrit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nhle/trelloha/internal/source"
)

// xssiPrefix precedes every JSON body Gerrit returns.
var xssiPrefix = []byte(")]}'\n")

// Client is a thin, anonymous HTTP client for the Gerrit REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Gerrit client for the instance at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetChange fetches a single change by its numeric id.
func (c *Client) GetChange(ctx context.Context, id int) (*ChangeInfo, error) {
	path := fmt.Sprintf("/changes/%d", id)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := source.CheckResponse(
		source.SourceTypeGerrit, http.MethodGet, path, resp.StatusCode, body,
		"change "+c.baseURL+path+" is not readable anonymously",
	); err != nil {
		return nil, err
	}

	var change ChangeInfo
	if err := json.Unmarshal(bytes.TrimPrefix(body, xssiPrefix), &change); err != nil {
		return nil, fmt.Errorf("unmarshaling change %d: %w", id, err)
	}

	return &change, nil
}
