package gerrit

// Change statuses reported by the Gerrit REST API.
const (
	StatusNew       = "NEW"
	StatusMerged    = "MERGED"
	StatusAbandoned = "ABANDONED"
)

// ChangeInfo is the subset of GET /changes/{id} this package reads.
type ChangeInfo struct {
	ID       string `json:"id"`
	Number   int    `json:"_number"`
	Project  string `json:"project"`
	Branch   string `json:"branch"`
	Subject  string `json:"subject"`
	Status   string `json:"status"`
	ChangeID string `json:"change_id"`
}
