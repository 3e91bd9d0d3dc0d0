package web

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/apperr"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/dispatch"
	"github.com/rabhiso/reader-api/util"
)

// HandleGetLibrary answers GET /reader-{id}/library with the reader's
// publications as a Collection.
func HandleGetLibrary(c *gin.Context, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)

	err, reader := readerFromParam(c, database, "Get Library")
	if err != nil {
		return
	}
	if appErr := dispatch.CheckOwner(principal, reader.Id, "Reader", reader.Id.String(), "Get Library"); appErr != nil {
		abortWithError(c, appErr)
		return
	}

	err, pubs := database.ReadPublicationsByReaderId(reader.Id)
	if err != nil {
		abortWithError(c, apperr.BadRequest(fmt.Sprintf("get library error: %s", err),
			apperr.Details{Type: "Reader", Id: reader.Id.String(), Activity: "Get Library"}))
		return
	}

	items := make([]interface{}, 0, len(*pubs))
	for i := range *pubs {
		items = append(items, dispatch.PublicationJSON(conf, &(*pubs)[i]))
	}

	c.Header("Content-Type", ldJSONContentType)
	c.JSON(200, gin.H{
		"@context": activityStreamsContext,
		"summaryMap": gin.H{
			"en": fmt.Sprintf("Library for reader with id %s", reader.Id),
		},
		"type":       "Collection",
		"id":         util.ReaderURL(conf, reader.Id) + "/library",
		"totalItems": len(items),
		"items":      items,
	})
}

// HandleGetPublication serves one publication with its documents attached.
func HandleGetPublication(c *gin.Context, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)
	idStr := c.Param("id")

	notFound := apperr.NotFound(fmt.Sprintf("No publication with ID %s", idStr),
		apperr.Details{Type: "Publication", Id: idStr, Activity: "Get Publication"})

	id, parseErr := uuid.Parse(idStr)
	if parseErr != nil {
		abortWithError(c, notFound)
		return
	}
	err, pub := database.ReadPublicationById(id)
	if err != nil {
		abortWithError(c, notFound)
		return
	}
	if appErr := dispatch.CheckOwner(principal, pub.ReaderId, "Publication", idStr, "Get Publication"); appErr != nil {
		abortWithError(c, appErr)
		return
	}

	obj := dispatch.PublicationJSON(conf, pub)
	obj["@context"] = activityStreamsContext

	err, docs := database.ReadDocumentsByPublicationId(pub.Id)
	if err == nil && len(*docs) > 0 {
		attachments := make([]interface{}, 0, len(*docs))
		for i := range *docs {
			attachments = append(attachments, dispatch.DocumentJSON(conf, &(*docs)[i]))
		}
		obj["attachment"] = attachments
	}

	c.Header("Content-Type", ldJSONContentType)
	c.JSON(200, obj)
}

// HandleGetNote serves a single note to its owner.
func HandleGetNote(c *gin.Context, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)
	idStr := c.Param("id")

	notFound := apperr.NotFound(fmt.Sprintf("No note with ID %s", idStr),
		apperr.Details{Type: "Note", Id: idStr, Activity: "Get Note"})

	id, parseErr := uuid.Parse(idStr)
	if parseErr != nil {
		abortWithError(c, notFound)
		return
	}
	err, note := database.ReadNoteById(id)
	if err != nil {
		abortWithError(c, notFound)
		return
	}
	if appErr := dispatch.CheckOwner(principal, note.ReaderId, "Note", idStr, "Get Note"); appErr != nil {
		abortWithError(c, appErr)
		return
	}

	obj := dispatch.NoteJSON(conf, note)
	obj["@context"] = activityStreamsContext

	c.Header("Content-Type", ldJSONContentType)
	c.JSON(200, obj)
}
