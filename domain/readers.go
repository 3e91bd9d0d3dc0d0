package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/util"
)

// Reader is the owning principal. It is created once at onboarding; the
// bearer-token subject resolves to its id.
type Reader struct {
	Id        uuid.UUID
	Name      string
	Summary   string
	CreatedAt time.Time
}

func (r *Reader) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tName: %s \n\tCreatedAt: %s)", r.Id, r.Name, r.CreatedAt.Format(util.DateTimeFormat()))
}
