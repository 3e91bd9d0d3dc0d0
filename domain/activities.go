package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity verbs accepted in an envelope.
const (
	ActivityCreate = "Create"
	ActivityDelete = "Delete"
)

// Object type tags accepted in an envelope's inner object.
const (
	TypePublication = "Publication"
	TypeNote        = "Note"
	TypeStack       = "reader:Stack" // create form of a tag
	TypeTag         = "Tag"          // delete form of a tag
	TypeDocument    = "Document"
)

// Activity is an immutable audit record of a Create/Delete performed by a
// reader. Once written it is never updated; outbox order is insertion order.
type Activity struct {
	Id         uuid.UUID
	ReaderId   uuid.UUID
	Type       string // Create or Delete
	ObjectType string
	ObjectId   string
	ObjectJSON string // representation of the affected resource at record time
	CreatedAt  time.Time
}

// Envelope is the decoded body of POST /reader-{id}/activity.
type Envelope struct {
	Type   string        `json:"type"`
	Object ObjectPayload `json:"object"`
}

// ObjectPayload is the envelope's inner typed object. Which fields matter
// depends on Type; unused fields stay zero.
type ObjectPayload struct {
	Type        string `json:"type"`
	Id          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Content     string `json:"content,omitempty"`
	InReplyTo   string `json:"inReplyTo,omitempty"`
	Context     string `json:"context,omitempty"`
	URL         string `json:"url,omitempty"`
	MediaType   string `json:"mediaType,omitempty"`
}
