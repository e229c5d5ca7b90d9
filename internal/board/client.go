// Package board talks to the task board REST API: it lists the visible
// cards of a board with their checklists and flips checklist item state.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
)

// Client is a thin HTTP client for the board API. Every request carries
// the application key and the user token as query parameters.
type Client struct {
	apiURL     string
	appKey     string
	token      string
	httpClient *http.Client
}

// NewClient creates a board client rooted at apiURL
// (e.g., https://api.trello.com/1).
func NewClient(
	apiURL string,
	appKey string,
	token string,
	httpClient *http.Client,
) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		appKey:     appKey,
		token:      token,
		httpClient: httpClient,
	}
}

// ListCards returns the visible cards of a board with all their
// checklists embedded.
func (c *Client) ListCards(ctx context.Context, boardID string) ([]model.Card, error) {
	path := "/boards/" + url.PathEscape(boardID) + "/cards"
	query := url.Values{}
	query.Set("filter", "visible")
	query.Set("checklists", "all")

	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var cards []model.Card
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("unmarshaling cards of board %s: %w", boardID, err)
	}

	return cards, nil
}

// SetCheckItemState sets the state of one checklist item.
func (c *Client) SetCheckItemState(
	ctx context.Context,
	cardID string,
	checklistID string,
	itemID string,
	state string,
) error {
	path := fmt.Sprintf(
		"/cards/%s/checklist/%s/checkItem/%s/state",
		url.PathEscape(cardID), url.PathEscape(checklistID), url.PathEscape(itemID),
	)

	form := url.Values{}
	form.Set("value", state)

	_, err := c.do(ctx, http.MethodPut, path, nil, form)
	return err
}

// do sends a request with the credentials attached and returns the body
// of a 2xx response.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	form url.Values,
) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.appKey)
	query.Set("token", c.token)

	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(
		ctx, method, c.apiURL+path+"?"+query.Encode(), bodyReader,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := source.CheckResponse(
		source.SourceTypeBoard, method, path, resp.StatusCode, body,
		"the board token is missing or expired",
	); err != nil {
		return nil, err
	}

	return body, nil
}

// AuthorizeURL returns the page where a user grants the application a
// non-expiring read/write token.
func AuthorizeURL(cfg model.BoardConfig) string {
	query := url.Values{}
	query.Set("key", cfg.AppKey)
	query.Set("name", cfg.AppName)
	query.Set("expiration", "never")
	query.Set("response_type", "token")
	query.Set("scope", "read,write")

	return strings.TrimRight(cfg.AuthorizeURL, "/") + "?" + query.Encode()
}
