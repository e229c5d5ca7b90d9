package model

// Checklist item states as reported by the board service.
const (
	StateIncomplete = "incomplete"
	StateComplete   = "complete"
)

// Card is a board card together with all of its checklists.
type Card struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	ShortURL   string      `json:"shortUrl"`
	Checklists []Checklist `json:"checklists"`
}

// Checklist is an ordered list of items attached to a single card.
type Checklist struct {
	ID         string      `json:"id"`
	CardID     string      `json:"idCard"`
	Name       string      `json:"name"`
	CheckItems []CheckItem `json:"checkItems"`
}

// CheckItem is a single checklist entry. Name is free text and may
// embed one or more URLs.
type CheckItem struct {
	ID          string `json:"id"`
	ChecklistID string `json:"idChecklist"`
	Name        string `json:"name"`
	State       string `json:"state"`
}

// Incomplete reports whether the item is still eligible for completion.
func (i CheckItem) Incomplete() bool {
	return i.State == StateIncomplete
}
