package trello

// Board is the top-level container of lists and cards.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
	URL  string `json:"url"`
}

// List is a named grouping of cards within a board.
type List struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// Label is a colored tag attached to a card.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Attachment is a file associated with a card, referenced by URL.
// LocalPath is set after a successful download and is never serialized.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Date     string `json:"date"`

	LocalPath string `json:"-"`
}

// Card is a single unit of content on a board. ListID and ListName are not
// part of the API response for a card; FetchAllCards annotates them from the
// parent list.
type Card struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Desc             string       `json:"desc"`
	Due              string       `json:"due"`
	DateLastActivity string       `json:"dateLastActivity"`
	Closed           bool         `json:"closed"`
	Labels           []Label      `json:"labels"`
	Attachments      []Attachment `json:"attachments"`

	ListID   string `json:"-"`
	ListName string `json:"-"`
}
