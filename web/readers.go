package web

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/apperr"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/dispatch"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
)

type readerProfile struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// HandleCreateReader onboards the authenticated principal. The reader id is
// the token subject; a reader exists at most once.
func HandleCreateReader(c *gin.Context, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)

	var profile readerProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		abortWithError(c, apperr.BadRequest(fmt.Sprintf("create reader error: %s", err),
			apperr.Details{Type: "Reader", Activity: "Create Reader"}))
		return
	}
	if profile.Name == "" {
		profile.Name = "Reader " + util.RandomString(8)
	}

	reader := &domain.Reader{
		Id:        principal,
		Name:      util.NormalizeInput(profile.Name),
		Summary:   util.NormalizeInput(profile.Summary),
		CreatedAt: time.Now(),
	}
	err := database.CreateReader(reader)
	if errors.Is(err, db.ErrDuplicate) {
		abortWithError(c, apperr.BadRequest(fmt.Sprintf("reader already exists with id %s", principal),
			apperr.Details{Type: "Reader", Id: principal.String(), Activity: "Create Reader"}))
		return
	}
	if err != nil {
		abortWithError(c, apperr.BadRequest(fmt.Sprintf("create reader error: %s", err),
			apperr.Details{Type: "Reader", Id: principal.String(), Activity: "Create Reader"}))
		return
	}

	log.Printf("Created reader %s", reader.ToString())
	c.Header("Location", util.ReaderURL(conf, reader.Id))
	c.Status(201)
}

// HandleGetReader serves the reader's profile document to its owner.
func HandleGetReader(c *gin.Context, database *db.DB, conf *util.AppConfig) {
	principal := Principal(c)

	err, reader := readerFromParam(c, database, "Get Reader")
	if err != nil {
		return
	}
	if appErr := dispatch.CheckOwner(principal, reader.Id, "Reader", reader.Id.String(), "Get Reader"); appErr != nil {
		abortWithError(c, appErr)
		return
	}

	c.Header("Content-Type", ldJSONContentType)
	c.JSON(200, gin.H{
		"@context": activityStreamsContext,
		"id":       util.ReaderURL(conf, reader.Id),
		"type":     "Person",
		"name":     reader.Name,
		"summary":  reader.Summary,
		"outbox":   util.ReaderURL(conf, reader.Id) + "/activity",
	})
}

// readerFromParam loads the reader addressed by the :id route parameter,
// answering 404 itself when the reader does not exist.
func readerFromParam(c *gin.Context, database *db.DB, activity string) (error, *domain.Reader) {
	idStr := c.Param("id")
	notFound := apperr.NotFound(fmt.Sprintf("No reader with ID %s", idStr),
		apperr.Details{Type: "Reader", Id: idStr, Activity: activity})

	id, err := uuid.Parse(idStr)
	if err != nil {
		abortWithError(c, notFound)
		return err, nil
	}

	err, reader := database.ReadReaderById(id)
	if err != nil {
		abortWithError(c, notFound)
		return err, nil
	}
	return nil, reader
}
