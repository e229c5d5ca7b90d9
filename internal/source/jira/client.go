package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nhle/trelloha/internal/source"
)

// Client is a thin HTTP client for the Jira Server/DC REST API v2.
// It handles Bearer token authentication and JSON decoding.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Jira HTTP client. The baseURL should be the
// root URL of the Jira instance (e.g., https://jira.corp.example.com).
// The token is a Personal Access Token used for Bearer authentication.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// GetIssueStatus fetches only the status field of an issue.
func (c *Client) GetIssueStatus(ctx context.Context, key string) (*Issue, error) {
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "?fields=status"

	var issue Issue
	if err := c.get(ctx, path, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) get(
	ctx context.Context,
	path string,
	result interface{},
) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if err := source.CheckResponse(
		source.SourceTypeJira, http.MethodGet, path,
		resp.StatusCode, respBody,
		"check your Personal Access Token for "+c.baseURL,
	); err != nil {
		var jiraErr ErrorResponse
		if json.Unmarshal(respBody, &jiraErr) == nil &&
			len(jiraErr.ErrorMessages) > 0 {
			return fmt.Errorf(
				"jira API error: %s: %w",
				strings.Join(jiraErr.ErrorMessages, "; "), err,
			)
		}
		return err
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from GET %s: %w", path, err)
	}

	return nil
}
