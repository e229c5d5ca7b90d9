package bitbucket

// Pull request states reported by Bitbucket Server.
const (
	StateOpen     = "OPEN"
	StateMerged   = "MERGED"
	StateDeclined = "DECLINED"
)

// PullRequest represents a Bitbucket Server pull request.
type PullRequest struct {
	ID          int    `json:"id"`
	Version     int    `json:"version"`
	Title       string `json:"title"`
	State       string `json:"state"` // OPEN, MERGED, DECLINED
	Open        bool   `json:"open"`
	Closed      bool   `json:"closed"`
	UpdatedDate int64  `json:"updatedDate"`
	ToRef       Ref    `json:"toRef"`
}

// Ref represents a branch reference in a pull request.
type Ref struct {
	ID         string     `json:"id"`
	DisplayID  string     `json:"displayId"`
	Repository Repository `json:"repository"`
}

// Repository represents a Bitbucket repository.
type Repository struct {
	Slug    string  `json:"slug"`
	Project Project `json:"project"`
}

// Project represents a Bitbucket project.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// BBErrorResponse is the Bitbucket Server error response format.
type BBErrorResponse struct {
	Errors []BBError `json:"errors"`
}

// BBError is a single error entry within a Bitbucket error response.
type BBError struct {
	Context       string `json:"context"`
	Message       string `json:"message"`
	ExceptionName string `json:"exceptionName"`
}
