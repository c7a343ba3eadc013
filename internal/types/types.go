// Package types holds the records shared between the scraping, diffing and
// event layers.
package types

import "time"

// Forum identifies a monitored discussion forum on the LMS.
type Forum struct {
	// Module is the course module this forum belongs to.
	Module string `json:"module"`
	// Name is the forum's display name.
	Name string `json:"name"`
	// ID is the site-internal forum id used in forum URLs.
	ID string `json:"id"`
}

// PartialThread is a lightweight thread record parsed from a forum's listing
// page, before the thread itself has been visited.
type PartialThread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Thread is the full content of a forum thread.
type Thread struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	Content string    `json:"content"` // markdown
	SentAt  time.Time `json:"sent_at"`
	Images  []Image   `json:"images"`
	// Responses are the direct replies; each may nest further.
	Responses []Response `json:"responses"`
}

// Response is a reply within a thread's reply tree. Replies have no stable
// site id; their identity is positional.
type Response struct {
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	SentAt    time.Time  `json:"sent_at"`
	Responses []Response `json:"responses"`
}

// Image is an inline image lifted out of thread content. DataURI is the
// fetched payload inlined as a data: URI so snapshots stay portable after
// the session's cookies expire.
type Image struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	DataURI string `json:"data_uri"`
}

// Category is one of the collapsible groupings in the message drawer
// (Favourites, Group Messages, Messages).
type Category struct {
	// ID is the category toggle's element id.
	ID   string `json:"id"`
	Name string `json:"name"`
	// IsOpen reports whether the category was expanded at parse time.
	IsOpen bool `json:"is_open"`
	// ConversationCount is the count badge next to the category name, 0
	// when the badge is absent.
	ConversationCount int `json:"conversation_count"`
}

// Conversation is a message group or direct-message target inside a
// category.
type Conversation struct {
	// ID is the site conversation id when the drawer exposes one, empty
	// otherwise.
	ID   string `json:"id"`
	Name string `json:"name"`
	// IsStaff marks conversations with a trainer rather than a student
	// group.
	IsStaff bool `json:"is_staff"`
}

// Message is a single chat message within a conversation. ID is set only
// when the DOM exposes one; otherwise identity falls back to the
// (Author, Content) pair, which cannot tell a repeated identical message
// from a re-observation.
type Message struct {
	ID      string    `json:"id,omitempty"`
	Author  string    `json:"author"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}
