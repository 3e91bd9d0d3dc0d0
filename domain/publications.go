package domain

import (
	"time"

	"github.com/google/uuid"
)

// Publication is a reading-list entry owned by a single reader. The owner
// reference is set at creation and never changes.
type Publication struct {
	Id          uuid.UUID
	ReaderId    uuid.UUID
	Name        string
	Description string
	Author      string
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// Document is a resolved file reference inside a publication. The binary
// itself lives in object storage; only the resolved URL and metadata are
// recorded here.
type Document struct {
	Id            uuid.UUID
	PublicationId uuid.UUID
	ReaderId      uuid.UUID
	Name          string
	URL           string
	MediaType     string
	CreatedAt     time.Time
	DeletedAt     *time.Time
}
