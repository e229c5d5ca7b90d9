package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nhle/trelloha/internal/source"
)

// Client is a thin HTTP client for the GitHub REST API. Requests are
// anonymous unless a token is set.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// NewClient creates a GitHub client rooted at apiURL
// (normally https://api.github.com).
func NewClient(apiURL, token string, httpClient *http.Client) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// GetItem fetches a pull request (kind "pull") or issue (kind "issue").
func (c *Client) GetItem(
	ctx context.Context,
	repo string,
	kind string,
	number int,
) (*Item, error) {
	path := fmt.Sprintf("/repos/%s/%ss/%d", repo, kind, number)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apiURL+path, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

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
		source.SourceTypeGitHub, http.MethodGet, path, resp.StatusCode, body,
		"check github.token or GITHUB_TOKEN",
	); err != nil {
		var ghErr ErrorResponse
		if json.Unmarshal(body, &ghErr) == nil && ghErr.Message != "" {
			return nil, fmt.Errorf("github: %s: %w", ghErr.Message, err)
		}
		return nil, err
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", path, err)
	}

	return &item, nil
}
