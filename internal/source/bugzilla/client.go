package bugzilla

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nhle/trelloha/internal/source"
)

// ErrNoBug is returned when a response carries no bug element at all.
var ErrNoBug = errors.New("no bug element in response")

// Client fetches bugs from a Bugzilla tracker through its XML view.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the tracker at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetBug fetches the bug with the given id. A private or unknown bug is
// returned with Bug.Error set, not as an error.
func (c *Client) GetBug(ctx context.Context, id int) (*Bug, error) {
	query := url.Values{}
	query.Set("ctype", "xml")
	query.Set("id", strconv.Itoa(id))
	path := "/show_bug.cgi?" + query.Encode()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/xml")

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
		source.SourceTypeBugzilla, http.MethodGet, path, resp.StatusCode, body,
		"bug "+strconv.Itoa(id)+" requires a login on "+c.baseURL,
	); err != nil {
		return nil, err
	}

	var doc Document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing bug %d: %w", id, err)
	}
	if len(doc.Bugs) == 0 {
		return nil, fmt.Errorf("bug %d: %w", id, ErrNoBug)
	}

	return &doc.Bugs[0], nil
}
