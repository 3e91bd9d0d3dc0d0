package web

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/rabhiso/reader-api/apperr"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/dispatch"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
)

// HandleCreateActivity answers POST /reader-{id}/activity. The decoded
// envelope and the resolved principal go to the dispatcher; on success the
// new activity's URL is the Location header of an empty 201.
func HandleCreateActivity(c *gin.Context, d *dispatch.Dispatcher, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)

	err, reader := readerFromParam(c, database, "Create Activity")
	if err != nil {
		return
	}

	var env domain.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		abortWithError(c, apperr.BadRequest(fmt.Sprintf("invalid activity envelope: %s", err),
			apperr.Details{Type: "Reader", Id: reader.Id.String(), Activity: "Create Activity"}))
		return
	}

	activity, appErr := d.Dispatch(principal, reader, &env)
	if appErr != nil {
		abortWithError(c, appErr)
		return
	}

	log.Printf("Recorded %s %s activity %s for reader %s", activity.Type, activity.ObjectType, activity.Id, reader.Id)
	c.Header("Location", util.ActivityURL(conf, activity.Id))
	c.Status(201)
}
