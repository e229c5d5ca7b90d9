package bitbucket

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

// Client is a thin HTTP client for the Bitbucket Server/DC REST API.
// It handles Bearer token authentication and JSON decoding.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Bitbucket HTTP client. The baseURL should be
// the root URL of the Bitbucket instance (e.g., https://bitbucket.corp.example.com).
// The token is a Personal Access Token used for Bearer authentication;
// an empty token sends anonymous requests.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// GetPullRequest fetches a single pull request.
func (c *Client) GetPullRequest(
	ctx context.Context,
	projectKey string,
	repoSlug string,
	id int,
) (*PullRequest, error) {
	path := fmt.Sprintf(
		"/rest/api/1.0/projects/%s/repos/%s/pull-requests/%d",
		url.PathEscape(projectKey), url.PathEscape(repoSlug), id,
	)

	var pr PullRequest
	if err := c.get(ctx, path, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// get builds the request, handles auth and decodes the JSON response.
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
		source.SourceTypeBitbucket, http.MethodGet, path,
		resp.StatusCode, respBody,
		"check your Personal Access Token for "+c.baseURL,
	); err != nil {
		var bbErr BBErrorResponse
		if json.Unmarshal(respBody, &bbErr) == nil && len(bbErr.Errors) > 0 {
			msgs := make([]string, 0, len(bbErr.Errors))
			for _, e := range bbErr.Errors {
				msgs = append(msgs, e.Message)
			}
			return fmt.Errorf(
				"bitbucket API error: %s: %w", strings.Join(msgs, "; "), err,
			)
		}
		return err
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from GET %s: %w", path, err)
	}

	return nil
}
