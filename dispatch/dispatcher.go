// Package dispatch interprets activity envelopes: it routes on the inner
// object type, enforces ownership, executes the resource operation, and
// records the result in the actor's outbox. It holds no state of its own
// and receives the resolved principal explicitly, never ambient request
// context.
package dispatch

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/apperr"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
)

type Dispatcher struct {
	db   *db.DB
	conf *util.AppConfig
}

func New(database *db.DB, conf *util.AppConfig) *Dispatcher {
	return &Dispatcher{db: database, conf: conf}
}

// Dispatch runs one envelope on behalf of principal against reader's
// collection. Authorization runs before any mutation; the activity append
// is fully awaited, so a returned activity is durably recorded.
func (d *Dispatcher) Dispatch(principal uuid.UUID, reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	if appErr := CheckOwner(principal, reader.Id, "Reader", reader.Id.String(), "Create Activity"); appErr != nil {
		return nil, appErr
	}

	switch env.Type {
	case domain.ActivityCreate:
		return d.handleCreate(reader, env)
	case domain.ActivityDelete:
		return d.handleDelete(principal, reader, env)
	default:
		return nil, apperr.BadRequest(
			fmt.Sprintf("action %s not recognized", env.Type),
			apperr.Details{Type: env.Type, Activity: "Create Activity"},
		)
	}
}

func (d *Dispatcher) handleCreate(reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	switch env.Object.Type {
	case domain.TypePublication:
		return d.createPublication(reader, env)
	case domain.TypeNote:
		return d.createNote(reader, env)
	case domain.TypeStack:
		return d.createTag(reader, env)
	case domain.TypeDocument:
		return d.createDocument(reader, env)
	default:
		return nil, apperr.BadRequest(
			fmt.Sprintf("cannot create %s", env.Object.Type),
			apperr.Details{Type: env.Object.Type, Activity: "Create Activity"},
		)
	}
}

func (d *Dispatcher) createPublication(reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	if env.Object.Name == "" {
		return nil, apperr.BadRequest("create publication error: name is required",
			apperr.Details{Type: domain.TypePublication, Activity: "Create Publication"})
	}

	pub := &domain.Publication{
		Id:          uuid.New(),
		ReaderId:    reader.Id,
		Name:        env.Object.Name,
		Description: env.Object.Description,
		Author:      env.Object.Author,
		CreatedAt:   time.Now(),
	}
	if err := d.db.CreatePublication(pub); err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("create publication error: %s", err),
			apperr.Details{Type: domain.TypePublication, Activity: "Create Publication"})
	}

	obj := activityObject{
		objType: domain.TypePublication,
		id:      util.PublicationURL(d.conf, pub.Id),
		json:    mustMarshal(PublicationJSON(d.conf, pub)),
	}
	return d.record(env, obj, reader.Id)
}

func (d *Dispatcher) createNote(reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	err, _ := d.db.ReadDocumentByURL(env.Object.InReplyTo, reader.Id)
	if env.Object.InReplyTo == "" || errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(
			fmt.Sprintf("note creation failed: no document found with url %s", env.Object.InReplyTo),
			apperr.Details{Type: domain.TypeDocument, Id: env.Object.InReplyTo, Activity: "Create Note"},
		)
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("create note error: %s", err),
			apperr.Details{Type: domain.TypeNote, Activity: "Create Note"})
	}

	note := &domain.Note{
		Id:        uuid.New(),
		ReaderId:  reader.Id,
		Content:   env.Object.Content,
		InReplyTo: env.Object.InReplyTo,
		Context:   env.Object.Context,
		CreatedAt: time.Now(),
	}
	if err := d.db.CreateNote(note); err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("create note error: %s", err),
			apperr.Details{Type: domain.TypeNote, Activity: "Create Note"})
	}
	log.Printf("Created note %s", note.ToString())

	obj := activityObject{
		objType: domain.TypeNote,
		id:      util.NoteURL(d.conf, note.Id),
		json:    mustMarshal(NoteJSON(d.conf, note)),
	}
	return d.record(env, obj, reader.Id)
}

func (d *Dispatcher) createTag(reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	if env.Object.Name == "" {
		return nil, apperr.BadRequest("create stack error: name is required",
			apperr.Details{Type: domain.TypeStack, Activity: "Create Tag"})
	}

	tag := &domain.Tag{
		Id:        uuid.New(),
		ReaderId:  reader.Id,
		Name:      env.Object.Name,
		Type:      domain.TypeStack,
		CreatedAt: time.Now(),
	}
	err := d.db.CreateTag(tag)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, apperr.BadRequest(
			fmt.Sprintf("duplicate error: stack %s already exists", env.Object.Name),
			apperr.Details{Type: domain.TypeStack, Id: env.Object.Name, Activity: "Create Tag"},
		)
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("create stack error: %s", err),
			apperr.Details{Type: domain.TypeStack, Activity: "Create Tag"})
	}

	obj := activityObject{
		objType: domain.TypeStack,
		id:      util.TagURL(d.conf, tag.Id),
		json:    mustMarshal(TagJSON(d.conf, tag)),
	}
	return d.record(env, obj, reader.Id)
}

func (d *Dispatcher) createDocument(reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	if env.Object.URL == "" {
		return nil, apperr.BadRequest("create document error: url is required",
			apperr.Details{Type: domain.TypeDocument, Activity: "Create Document"})
	}

	pubId, ok := parseID(env.Object.Context)
	if !ok {
		return nil, apperr.NotFound(
			fmt.Sprintf("document creation failed: no publication found at %s", env.Object.Context),
			apperr.Details{Type: domain.TypePublication, Id: env.Object.Context, Activity: "Create Document"},
		)
	}
	err, pub := d.db.ReadPublicationById(pubId)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(
			fmt.Sprintf("document creation failed: no publication found at %s", env.Object.Context),
			apperr.Details{Type: domain.TypePublication, Id: env.Object.Context, Activity: "Create Document"},
		)
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("create document error: %s", err),
			apperr.Details{Type: domain.TypeDocument, Activity: "Create Document"})
	}
	if appErr := CheckOwner(reader.Id, pub.ReaderId, domain.TypePublication, env.Object.Context, "Create Document"); appErr != nil {
		return nil, appErr
	}

	doc := &domain.Document{
		Id:            uuid.New(),
		PublicationId: pub.Id,
		ReaderId:      reader.Id,
		Name:          env.Object.Name,
		URL:           env.Object.URL,
		MediaType:     env.Object.MediaType,
		CreatedAt:     time.Now(),
	}
	err = d.db.CreateDocument(doc)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, apperr.BadRequest(
			fmt.Sprintf("duplicate error: document %s already exists", env.Object.URL),
			apperr.Details{Type: domain.TypeDocument, Id: env.Object.URL, Activity: "Create Document"},
		)
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("create document error: %s", err),
			apperr.Details{Type: domain.TypeDocument, Activity: "Create Document"})
	}

	obj := activityObject{
		objType: domain.TypeDocument,
		id:      util.DocumentURL(d.conf, doc.Id),
		json:    mustMarshal(DocumentJSON(d.conf, doc)),
	}
	return d.record(env, obj, reader.Id)
}

func (d *Dispatcher) handleDelete(principal uuid.UUID, reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	switch env.Object.Type {
	case domain.TypePublication:
		return d.deletePublication(principal, reader, env)
	case domain.TypeNote:
		return d.deleteNote(principal, reader, env)
	case domain.TypeTag:
		return d.deleteTag(reader, env)
	default:
		return nil, apperr.BadRequest(
			fmt.Sprintf("cannot delete %s", env.Object.Type),
			apperr.Details{Type: env.Object.Type, Activity: "Create Activity"},
		)
	}
}

func (d *Dispatcher) deletePublication(principal uuid.UUID, reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	gone := apperr.NotFound(
		fmt.Sprintf("publication with id %s does not exist or has already been deleted", env.Object.Id),
		apperr.Details{Type: domain.TypePublication, Id: env.Object.Id, Activity: "Delete Publication"},
	)

	pubId, ok := parseID(env.Object.Id)
	if !ok {
		return nil, gone
	}
	err, pub := d.db.ReadPublicationById(pubId)
	if errors.Is(err, db.ErrNotFound) {
		return nil, gone
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("delete publication error: %s", err),
			apperr.Details{Type: domain.TypePublication, Id: env.Object.Id, Activity: "Delete Publication"})
	}
	if appErr := CheckOwner(principal, pub.ReaderId, domain.TypePublication, env.Object.Id, "Delete Publication"); appErr != nil {
		return nil, appErr
	}

	err, deleted := d.db.DeletePublicationById(pubId)
	if errors.Is(err, db.ErrNotFound) {
		return nil, gone
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("delete publication error: %s", err),
			apperr.Details{Type: domain.TypePublication, Id: env.Object.Id, Activity: "Delete Publication"})
	}

	obj := activityObject{
		objType: domain.TypePublication,
		id:      util.PublicationURL(d.conf, deleted.Id),
		json:    mustMarshal(PublicationJSON(d.conf, deleted)),
	}
	return d.record(env, obj, reader.Id)
}

func (d *Dispatcher) deleteNote(principal uuid.UUID, reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	gone := apperr.NotFound(
		fmt.Sprintf("note with id %s does not exist or has already been deleted", env.Object.Id),
		apperr.Details{Type: domain.TypeNote, Id: env.Object.Id, Activity: "Delete Note"},
	)

	noteId, ok := parseID(env.Object.Id)
	if !ok {
		return nil, gone
	}
	err, note := d.db.ReadNoteById(noteId)
	if errors.Is(err, db.ErrNotFound) {
		return nil, gone
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("delete note error: %s", err),
			apperr.Details{Type: domain.TypeNote, Id: env.Object.Id, Activity: "Delete Note"})
	}
	if appErr := CheckOwner(principal, note.ReaderId, domain.TypeNote, env.Object.Id, "Delete Note"); appErr != nil {
		return nil, appErr
	}

	err, deleted := d.db.DeleteNoteById(noteId)
	if errors.Is(err, db.ErrNotFound) {
		return nil, gone
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("delete note error: %s", err),
			apperr.Details{Type: domain.TypeNote, Id: env.Object.Id, Activity: "Delete Note"})
	}

	obj := activityObject{
		objType: domain.TypeNote,
		id:      util.NoteURL(d.conf, deleted.Id),
		json:    mustMarshal(NoteJSON(d.conf, deleted)),
	}
	return d.record(env, obj, reader.Id)
}

// deleteTag removes by identifier alone; no representation is retained and
// only existence is checked, so the recorded object carries just the id.
func (d *Dispatcher) deleteTag(reader *domain.Reader, env *domain.Envelope) (*domain.Activity, *apperr.Error) {
	gone := apperr.NotFound(
		fmt.Sprintf("tag with id %s does not exist or has already been deleted", env.Object.Id),
		apperr.Details{Type: domain.TypeTag, Id: env.Object.Id, Activity: "Delete Tag"},
	)

	tagId, ok := parseID(env.Object.Id)
	if !ok {
		return nil, gone
	}
	err := d.db.DeleteTagById(tagId)
	if errors.Is(err, db.ErrNotFound) {
		return nil, gone
	}
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("delete tag error: %s", err),
			apperr.Details{Type: domain.TypeTag, Id: env.Object.Id, Activity: "Delete Tag"})
	}

	obj := activityObject{
		objType: domain.TypeTag,
		id:      util.TagURL(d.conf, tagId),
		json: mustMarshal(map[string]interface{}{
			"id":   util.TagURL(d.conf, tagId),
			"type": domain.TypeTag,
		}),
	}
	return d.record(env, obj, reader.Id)
}

// record builds the activity and appends it to the actor's outbox. The
// append is awaited here, so the caller never answers before the record is
// durable. A failure at this point does not roll back the resource
// mutation; it is surfaced as a distinct recording error.
func (d *Dispatcher) record(env *domain.Envelope, obj activityObject, actor uuid.UUID) (*domain.Activity, *apperr.Error) {
	activity := buildActivity(env, obj, actor)
	if err := d.db.CreateActivity(activity); err != nil {
		log.Printf("Recording failed for %s %s after committed mutation: %v", env.Type, obj.objType, err)
		return nil, apperr.BadRequest(fmt.Sprintf("create activity error: %s", err),
			apperr.Details{Type: obj.objType, Id: obj.id, Activity: "Create Activity"})
	}
	return activity, nil
}

// parseID resolves a public resource URL (or bare id) to an internal uuid.
func parseID(url string) (uuid.UUID, bool) {
	id, err := uuid.Parse(util.URLToID(url))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
