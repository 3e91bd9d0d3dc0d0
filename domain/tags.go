package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a reader-scoped label ("stack"). Names are unique per reader,
// enforced by the store. Tags keep no representation after deletion.
type Tag struct {
	Id        uuid.UUID
	ReaderId  uuid.UUID
	Name      string
	Type      string
	CreatedAt time.Time
}
