package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/util"
)

// Note is an annotation attached to a document. InReplyTo must resolve to
// an existing document at creation time.
type Note struct {
	Id        uuid.UUID
	ReaderId  uuid.UUID
	Content   string
	InReplyTo string // URL of the annotated document
	Context   string // URL of the surrounding publication, optional
	CreatedAt time.Time
	DeletedAt *time.Time
}

func (note *Note) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tReaderId: %s \n\tContent: %s \n\tCreatedAt: %s)", note.Id, note.ReaderId, note.Content, note.CreatedAt.Format(util.DateTimeFormat()))
}
