package dispatch

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/apperr"
)

// CheckOwner is the single ownership decision point. It compares the
// requesting principal against a resource's declared owner and, on denial,
// returns a 403 error naming the resource kind, the resource id, and the
// attempted activity. It never touches persistence.
func CheckOwner(principal uuid.UUID, owner uuid.UUID, resourceType string, resourceId string, activity string) *apperr.Error {
	if principal == owner {
		return nil
	}
	return apperr.Forbidden(
		fmt.Sprintf("Access to %s %s disallowed", strings.ToLower(resourceType), resourceId),
		apperr.Details{Type: resourceType, Id: resourceId, Activity: activity},
	)
}
