package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/apperr"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/dispatch"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
)

const activityStreamsContext = "https://www.w3.org/ns/activitystreams"
const ldJSONContentType = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`

// HandleGetOutbox answers GET /reader-{id}/activity with the reader's full
// outbox as an OrderedCollection. The collection is materialized per read;
// order is activity insertion order and totalItems the full count.
func HandleGetOutbox(c *gin.Context, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)

	err, reader := readerFromParam(c, database, "Get Outbox")
	if err != nil {
		return
	}
	if appErr := dispatch.CheckOwner(principal, reader.Id, "Reader", reader.Id.String(), "Get Outbox"); appErr != nil {
		abortWithError(c, appErr)
		return
	}

	err, activities := database.ReadActivitiesByReaderId(reader.Id)
	if err != nil {
		abortWithError(c, apperr.BadRequest(fmt.Sprintf("get outbox error: %s", err),
			apperr.Details{Type: "Reader", Id: reader.Id.String(), Activity: "Get Outbox"}))
		return
	}

	items := makeActivityItems(*activities, conf)

	c.Header("Content-Type", ldJSONContentType)
	c.JSON(200, gin.H{
		"@context": activityStreamsContext,
		"summaryMap": gin.H{
			"en": fmt.Sprintf("Outbox for reader with id %s", reader.Id),
		},
		"type":         "OrderedCollection",
		"id":           util.ReaderURL(conf, reader.Id) + "/activity",
		"totalItems":   len(items),
		"orderedItems": items,
	})
}

// HandleGetActivity serves a single recorded activity to its actor.
func HandleGetActivity(c *gin.Context, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)
	idStr := c.Param("id")

	notFound := apperr.NotFound(fmt.Sprintf("No activity with ID %s", idStr),
		apperr.Details{Type: "Activity", Id: idStr, Activity: "Get Activity"})

	id, parseErr := uuid.Parse(idStr)
	if parseErr != nil {
		abortWithError(c, notFound)
		return
	}
	err, activity := database.ReadActivityById(id)
	if err != nil {
		abortWithError(c, notFound)
		return
	}
	if appErr := dispatch.CheckOwner(principal, activity.ReaderId, "Activity", idStr, "Get Activity"); appErr != nil {
		abortWithError(c, appErr)
		return
	}

	item := makeActivityItem(activity, conf)
	item["@context"] = activityStreamsContext

	c.Header("Content-Type", ldJSONContentType)
	c.JSON(200, item)
}

// makeActivityItems renders stored activities as ActivityStreams objects,
// embedding each record's ground-truth object representation.
func makeActivityItems(activities []domain.Activity, conf *util.AppConfig) []interface{} {
	items := make([]interface{}, 0, len(activities))
	for i := range activities {
		items = append(items, makeActivityItem(&activities[i], conf))
	}
	return items
}

func makeActivityItem(activity *domain.Activity, conf *util.AppConfig) map[string]interface{} {
	item := map[string]interface{}{
		"id":        util.ActivityURL(conf, activity.Id),
		"type":      activity.Type,
		"actor":     util.ReaderURL(conf, activity.ReaderId),
		"published": activity.CreatedAt.Format(time.RFC3339),
	}
	if activity.ObjectJSON != "" {
		item["object"] = json.RawMessage(activity.ObjectJSON)
	}
	return item
}
