package github

// Issue and pull request states. The REST API only reports open and
// closed; merged is accepted for older and proxied responses.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateMerged = "merged"
)

// Item is the subset of a pull request or issue object this package reads.
type Item struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
	Merged  bool   `json:"merged,omitempty"`
}

// ErrorResponse is the standard GitHub error body.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}
