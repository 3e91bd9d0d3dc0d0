package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
)

// activityObject is the ground-truth representation of the resource an
// operation actually produced or removed. The factory records this, never
// the raw request payload.
type activityObject struct {
	objType string
	id      string
	json    string
}

// buildActivity maps {envelope, result resource, actor} to an immutable
// activity record. It is only reachable after a successful operation, so a
// failed attempt never leaves an audit trail.
func buildActivity(env *domain.Envelope, obj activityObject, actor uuid.UUID) *domain.Activity {
	return &domain.Activity{
		Id:         uuid.New(),
		ReaderId:   actor,
		Type:       env.Type,
		ObjectType: obj.objType,
		ObjectId:   obj.id,
		ObjectJSON: obj.json,
		CreatedAt:  time.Now(),
	}
}

// PublicationJSON renders a publication the way it appears inside an
// activity's object field and on GET /publication-{id}.
func PublicationJSON(conf *util.AppConfig, pub *domain.Publication) map[string]interface{} {
	obj := map[string]interface{}{
		"id":           util.PublicationURL(conf, pub.Id),
		"type":         "Publication",
		"name":         pub.Name,
		"attributedTo": util.ReaderURL(conf, pub.ReaderId),
		"published":    pub.CreatedAt.Format(time.RFC3339),
	}
	if pub.Description != "" {
		obj["description"] = pub.Description
	}
	if pub.Author != "" {
		obj["author"] = pub.Author
	}
	return obj
}

func NoteJSON(conf *util.AppConfig, note *domain.Note) map[string]interface{} {
	obj := map[string]interface{}{
		"id":           util.NoteURL(conf, note.Id),
		"type":         "Note",
		"content":      note.Content,
		"inReplyTo":    note.InReplyTo,
		"attributedTo": util.ReaderURL(conf, note.ReaderId),
		"published":    note.CreatedAt.Format(time.RFC3339),
	}
	if note.Context != "" {
		obj["context"] = note.Context
	}
	return obj
}

func TagJSON(conf *util.AppConfig, tag *domain.Tag) map[string]interface{} {
	return map[string]interface{}{
		"id":   util.TagURL(conf, tag.Id),
		"type": "reader:Stack",
		"name": tag.Name,
	}
}

func DocumentJSON(conf *util.AppConfig, doc *domain.Document) map[string]interface{} {
	obj := map[string]interface{}{
		"id":        util.DocumentURL(conf, doc.Id),
		"type":      "Document",
		"url":       doc.URL,
		"context":   util.PublicationURL(conf, doc.PublicationId),
		"published": doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.Name != "" {
		obj["name"] = doc.Name
	}
	if doc.MediaType != "" {
		obj["mediaType"] = doc.MediaType
	}
	return obj
}

// mustMarshal marshals v to JSON, panicking on error
func mustMarshal(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal: %v", err))
	}
	return string(b)
}
