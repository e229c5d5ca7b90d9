package bugzilla

import "encoding/xml"

// Document is the root of a show_bug.cgi?ctype=xml response.
type Document struct {
	XMLName xml.Name `xml:"bugzilla"`
	Bugs    []Bug    `xml:"bug"`
}

// Bug is a single bug record. Error is set instead of the fields when
// the bug is private or does not exist (e.g. "NotPermitted", "NotFound").
type Bug struct {
	Error      string `xml:"error,attr"`
	ID         string `xml:"bug_id"`
	Status     string `xml:"bug_status"`
	Resolution string `xml:"resolution"`
	Summary    string `xml:"short_desc"`
}

// doneStatuses are the bug statuses that mean the fix has landed.
var doneStatuses = map[string]bool{
	"MODIFIED":          true,
	"ON_QA":             true,
	"VERIFIED":          true,
	"RELEASING_PENDING": true,
	"CLOSED":            true,
}
