package dispatch

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/db"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
)

func testConf() *util.AppConfig {
	conf := &util.AppConfig{}
	conf.Conf.Host = "localhost"
	conf.Conf.HttpPort = 8080
	conf.Conf.SslDomain = "reader.example.com"
	return conf
}

func setupDispatcher(t *testing.T) (*Dispatcher, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database, testConf()), database
}

func createTestReader(t *testing.T, database *db.DB) *domain.Reader {
	t.Helper()
	reader := &domain.Reader{
		Id:        uuid.New(),
		Name:      "Test Reader",
		CreatedAt: time.Now(),
	}
	if err := database.CreateReader(reader); err != nil {
		t.Fatalf("CreateReader failed: %v", err)
	}
	return reader
}

func createEnvelope(objType string, object domain.ObjectPayload) *domain.Envelope {
	object.Type = objType
	return &domain.Envelope{Type: domain.ActivityCreate, Object: object}
}

func deleteEnvelope(objType, id string) *domain.Envelope {
	return &domain.Envelope{
		Type:   domain.ActivityDelete,
		Object: domain.ObjectPayload{Type: objType, Id: id},
	}
}

func TestDispatchRejectsForeignPrincipal(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	env := createEnvelope(domain.TypePublication, domain.ObjectPayload{Name: "Moby Dick"})
	activity, appErr := d.Dispatch(uuid.New(), reader, env)
	if appErr == nil {
		t.Fatal("Expected denial for foreign principal")
	}
	if appErr.StatusCode != 403 {
		t.Errorf("Expected status 403, got %d", appErr.StatusCode)
	}
	if appErr.Details.Type != "Reader" {
		t.Errorf("Expected details type 'Reader', got '%s'", appErr.Details.Type)
	}
	if activity != nil {
		t.Error("Expected no activity on denial")
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	env := &domain.Envelope{Type: "Update", Object: domain.ObjectPayload{Type: domain.TypeNote}}
	_, appErr := d.Dispatch(reader.Id, reader, env)
	if appErr == nil {
		t.Fatal("Expected error for unknown action")
	}
	if appErr.StatusCode != 400 {
		t.Errorf("Expected status 400, got %d", appErr.StatusCode)
	}
	if !strings.Contains(appErr.Message, "Update") {
		t.Errorf("Expected message to name the action, got '%s'", appErr.Message)
	}
}

func TestDispatchUnknownObjectTypes(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	tests := []struct {
		env     *domain.Envelope
		message string
	}{
		{createEnvelope("Person", domain.ObjectPayload{Name: "x"}), "cannot create Person"},
		{createEnvelope("", domain.ObjectPayload{Name: "x"}), "cannot create "},
		{deleteEnvelope("Document", "some-id"), "cannot delete Document"},
		{deleteEnvelope("reader:Stack", "some-id"), "cannot delete reader:Stack"},
	}
	for _, tc := range tests {
		_, appErr := d.Dispatch(reader.Id, reader, tc.env)
		if appErr == nil {
			t.Fatalf("Expected error for %s %s", tc.env.Type, tc.env.Object.Type)
		}
		if appErr.StatusCode != 400 {
			t.Errorf("Expected status 400, got %d", appErr.StatusCode)
		}
		if appErr.Message != tc.message {
			t.Errorf("Expected message '%s', got '%s'", tc.message, appErr.Message)
		}
	}
}

func TestCreatePublication(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	env := createEnvelope(domain.TypePublication, domain.ObjectPayload{
		Name:        "Moby Dick",
		Description: "A whale of a tale",
		Author:      "Herman Melville",
	})
	activity, appErr := d.Dispatch(reader.Id, reader, env)
	if appErr != nil {
		t.Fatalf("Dispatch failed: %v", appErr)
	}
	if activity.Type != domain.ActivityCreate || activity.ObjectType != domain.TypePublication {
		t.Errorf("Unexpected activity %s %s", activity.Type, activity.ObjectType)
	}
	if !strings.Contains(activity.ObjectId, "publication-") {
		t.Errorf("Expected publication url as object id, got '%s'", activity.ObjectId)
	}
	if !strings.Contains(activity.ObjectJSON, "Moby Dick") {
		t.Errorf("Expected object snapshot to carry the name, got %s", activity.ObjectJSON)
	}

	// the mutation must be visible through the library
	err, pubs := database.ReadPublicationsByReaderId(reader.Id)
	if err != nil {
		t.Fatalf("ReadPublicationsByReaderId failed: %v", err)
	}
	if len(*pubs) != 1 || (*pubs)[0].Name != "Moby Dick" {
		t.Errorf("Expected one publication named Moby Dick, got %v", *pubs)
	}
}

func TestCreatePublicationRequiresName(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	env := createEnvelope(domain.TypePublication, domain.ObjectPayload{Author: "Anonymous"})
	_, appErr := d.Dispatch(reader.Id, reader, env)
	if appErr == nil {
		t.Fatal("Expected error for missing name")
	}
	if appErr.StatusCode != 400 {
		t.Errorf("Expected status 400, got %d", appErr.StatusCode)
	}
	if !strings.Contains(appErr.Message, "create publication error") {
		t.Errorf("Expected creation error message, got '%s'", appErr.Message)
	}
}

func TestCreateStackDuplicate(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	env := createEnvelope(domain.TypeStack, domain.ObjectPayload{Name: "to-read"})
	if _, appErr := d.Dispatch(reader.Id, reader, env); appErr != nil {
		t.Fatalf("First stack create failed: %v", appErr)
	}

	_, appErr := d.Dispatch(reader.Id, reader, env)
	if appErr == nil {
		t.Fatal("Expected duplicate error")
	}
	if appErr.StatusCode != 400 {
		t.Errorf("Expected status 400, got %d", appErr.StatusCode)
	}
	if appErr.Message != "duplicate error: stack to-read already exists" {
		t.Errorf("Unexpected message '%s'", appErr.Message)
	}
}

func TestCreateNoteRequiresDocument(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	tests := []string{
		"",
		"https://reader.example.com/document-" + uuid.NewString(),
	}
	for _, inReplyTo := range tests {
		env := createEnvelope(domain.TypeNote, domain.ObjectPayload{
			Content:   "interesting",
			InReplyTo: inReplyTo,
		})
		_, appErr := d.Dispatch(reader.Id, reader, env)
		if appErr == nil {
			t.Fatalf("Expected error for inReplyTo '%s'", inReplyTo)
		}
		if appErr.StatusCode != 404 {
			t.Errorf("Expected status 404, got %d", appErr.StatusCode)
		}
		if !strings.Contains(appErr.Message, "no document found with url") {
			t.Errorf("Unexpected message '%s'", appErr.Message)
		}
		if appErr.Details.Type != domain.TypeDocument {
			t.Errorf("Expected details type Document, got '%s'", appErr.Details.Type)
		}
	}
}

// createDocumentFor drives the full chain: publication, then document in
// its context, returning the document url for note tests.
func createDocumentFor(t *testing.T, d *Dispatcher, reader *domain.Reader) string {
	t.Helper()
	pubEnv := createEnvelope(domain.TypePublication, domain.ObjectPayload{Name: "Walden"})
	pubActivity, appErr := d.Dispatch(reader.Id, reader, pubEnv)
	if appErr != nil {
		t.Fatalf("Publication create failed: %v", appErr)
	}

	// notes reference documents by their source url, not the served id
	sourceURL := "https://gutenberg.example.com/walden/" + uuid.NewString()
	docEnv := createEnvelope(domain.TypeDocument, domain.ObjectPayload{
		Name:      "Chapter 1",
		URL:       sourceURL,
		MediaType: "text/html",
		Context:   pubActivity.ObjectId,
	})
	if _, appErr := d.Dispatch(reader.Id, reader, docEnv); appErr != nil {
		t.Fatalf("Document create failed: %v", appErr)
	}
	return sourceURL
}

func TestCreateNote(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)
	docURL := createDocumentFor(t, d, reader)

	env := createEnvelope(domain.TypeNote, domain.ObjectPayload{
		Content:   "this passage is striking",
		InReplyTo: docURL,
	})
	activity, appErr := d.Dispatch(reader.Id, reader, env)
	if appErr != nil {
		t.Fatalf("Note create failed: %v", appErr)
	}
	if activity.ObjectType != domain.TypeNote {
		t.Errorf("Expected Note activity, got '%s'", activity.ObjectType)
	}
	if !strings.Contains(activity.ObjectId, "note-") {
		t.Errorf("Expected note url as object id, got '%s'", activity.ObjectId)
	}

	err, note := database.ReadNoteById(uuid.MustParse(util.URLToID(activity.ObjectId)))
	if err != nil {
		t.Fatalf("Recorded object id does not resolve to a stored note: %v", err)
	}
	if note.Content != "this passage is striking" {
		t.Errorf("Stored note content mismatch: '%s'", note.Content)
	}
	if !strings.Contains(activity.ObjectJSON, "this passage is striking") {
		t.Errorf("Expected snapshot to carry content, got %s", activity.ObjectJSON)
	}
}

func TestCreateDocumentUnresolvableContext(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	tests := []string{
		"",
		"not-a-url",
		"https://reader.example.com/publication-" + uuid.NewString(),
	}
	for _, context := range tests {
		env := createEnvelope(domain.TypeDocument, domain.ObjectPayload{
			URL:     "https://example.com/doc",
			Context: context,
		})
		_, appErr := d.Dispatch(reader.Id, reader, env)
		if appErr == nil {
			t.Fatalf("Expected error for context '%s'", context)
		}
		if appErr.StatusCode != 404 {
			t.Errorf("Expected status 404 for context '%s', got %d", context, appErr.StatusCode)
		}
		if !strings.Contains(appErr.Message, "no publication found at") {
			t.Errorf("Unexpected message '%s'", appErr.Message)
		}
	}
}

func TestDeletePublication(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	pubEnv := createEnvelope(domain.TypePublication, domain.ObjectPayload{Name: "Walden"})
	created, appErr := d.Dispatch(reader.Id, reader, pubEnv)
	if appErr != nil {
		t.Fatalf("Publication create failed: %v", appErr)
	}

	delEnv := deleteEnvelope(domain.TypePublication, created.ObjectId)
	deleted, appErr := d.Dispatch(reader.Id, reader, delEnv)
	if appErr != nil {
		t.Fatalf("Publication delete failed: %v", appErr)
	}
	if deleted.Type != domain.ActivityDelete {
		t.Errorf("Expected Delete activity, got '%s'", deleted.Type)
	}
	if !strings.Contains(deleted.ObjectJSON, "Walden") {
		t.Errorf("Expected last-known representation, got %s", deleted.ObjectJSON)
	}

	// second delete of the same id is a deterministic not-found
	_, appErr = d.Dispatch(reader.Id, reader, delEnv)
	if appErr == nil {
		t.Fatal("Expected error on second delete")
	}
	if appErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", appErr.StatusCode)
	}
	if !strings.Contains(appErr.Message, "does not exist or has already been deleted") {
		t.Errorf("Unexpected message '%s'", appErr.Message)
	}
}

func TestDeleteNoteCrossOwner(t *testing.T) {
	d, database := setupDispatcher(t)
	owner := createTestReader(t, database)
	intruder := createTestReader(t, database)

	docURL := createDocumentFor(t, d, owner)
	noteEnv := createEnvelope(domain.TypeNote, domain.ObjectPayload{
		Content:   "mine",
		InReplyTo: docURL,
	})
	created, appErr := d.Dispatch(owner.Id, owner, noteEnv)
	if appErr != nil {
		t.Fatalf("Note create failed: %v", appErr)
	}

	delEnv := deleteEnvelope(domain.TypeNote, created.ObjectId)
	_, appErr = d.Dispatch(intruder.Id, intruder, delEnv)
	if appErr == nil {
		t.Fatal("Expected denial for foreign note delete")
	}
	if appErr.StatusCode != 403 {
		t.Errorf("Expected status 403, got %d", appErr.StatusCode)
	}
	if appErr.Details.Type != domain.TypeNote {
		t.Errorf("Expected details type Note, got '%s'", appErr.Details.Type)
	}

	// owner can still delete
	if _, appErr := d.Dispatch(owner.Id, owner, delEnv); appErr != nil {
		t.Errorf("Owner delete failed: %v", appErr)
	}
}

func TestDeleteTag(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	tagEnv := createEnvelope(domain.TypeStack, domain.ObjectPayload{Name: "favorites"})
	created, appErr := d.Dispatch(reader.Id, reader, tagEnv)
	if appErr != nil {
		t.Fatalf("Stack create failed: %v", appErr)
	}

	delEnv := deleteEnvelope(domain.TypeTag, created.ObjectId)
	deleted, appErr := d.Dispatch(reader.Id, reader, delEnv)
	if appErr != nil {
		t.Fatalf("Tag delete failed: %v", appErr)
	}
	if !strings.Contains(deleted.ObjectJSON, created.ObjectId) {
		t.Errorf("Expected identifier-only snapshot to carry the tag url, got %s", deleted.ObjectJSON)
	}

	_, appErr = d.Dispatch(reader.Id, reader, delEnv)
	if appErr == nil {
		t.Fatal("Expected error on second tag delete")
	}
	if appErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", appErr.StatusCode)
	}
}

func TestOutboxRecordsCompletionOrder(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	names := []string{"First", "Second", "Third"}
	var recorded []uuid.UUID
	for _, name := range names {
		env := createEnvelope(domain.TypePublication, domain.ObjectPayload{Name: name})
		activity, appErr := d.Dispatch(reader.Id, reader, env)
		if appErr != nil {
			t.Fatalf("Dispatch failed for %s: %v", name, appErr)
		}
		recorded = append(recorded, activity.Id)
	}

	err, activities := database.ReadActivitiesByReaderId(reader.Id)
	if err != nil {
		t.Fatalf("ReadActivitiesByReaderId failed: %v", err)
	}
	if len(*activities) != len(names) {
		t.Fatalf("Expected %d activities, got %d", len(names), len(*activities))
	}
	for i, activity := range *activities {
		if activity.Id != recorded[i] {
			t.Errorf("Position %d: expected %s, got %s", i, recorded[i], activity.Id)
		}
	}
}

func TestCreateNoteForeignDocument(t *testing.T) {
	d, database := setupDispatcher(t)
	owner := createTestReader(t, database)
	intruder := createTestReader(t, database)
	docURL := createDocumentFor(t, d, owner)

	env := createEnvelope(domain.TypeNote, domain.ObjectPayload{
		Content:   "annotating someone else's library",
		InReplyTo: docURL,
	})
	_, appErr := d.Dispatch(intruder.Id, intruder, env)
	if appErr == nil {
		t.Fatal("Expected rejection for a foreign document reference")
	}
	if appErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", appErr.StatusCode)
	}
	if !strings.Contains(appErr.Message, "no document found with url") {
		t.Errorf("Unexpected message '%s'", appErr.Message)
	}

	// the rejected attempt leaves nothing behind
	err, activities := database.ReadActivitiesByReaderId(intruder.Id)
	if err != nil {
		t.Fatalf("ReadActivitiesByReaderId failed: %v", err)
	}
	if len(*activities) != 0 {
		t.Errorf("Expected empty outbox for intruder, got %d entries", len(*activities))
	}
}

func TestRecordingFailureKeepsMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	d := New(database, testConf())
	reader := createTestReader(t, database)

	// break recording only: the resource tables stay intact
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Open raw connection failed: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Exec("DROP TABLE activities"); err != nil {
		t.Fatalf("DROP TABLE failed: %v", err)
	}

	env := createEnvelope(domain.TypePublication, domain.ObjectPayload{Name: "Walden"})
	_, appErr := d.Dispatch(reader.Id, reader, env)
	if appErr == nil {
		t.Fatal("Expected recording failure")
	}
	if appErr.StatusCode != 400 {
		t.Errorf("Expected status 400, got %d", appErr.StatusCode)
	}
	if !strings.Contains(appErr.Message, "create activity error") {
		t.Errorf("Expected recording error message, got '%s'", appErr.Message)
	}

	// the mutation stands even though the record never landed
	err, pubs := database.ReadPublicationsByReaderId(reader.Id)
	if err != nil {
		t.Fatalf("ReadPublicationsByReaderId failed: %v", err)
	}
	if len(*pubs) != 1 || (*pubs)[0].Name != "Walden" {
		t.Errorf("Expected the publication to survive, got %v", *pubs)
	}
}

func TestFailedOperationLeavesNoRecord(t *testing.T) {
	d, database := setupDispatcher(t)
	reader := createTestReader(t, database)

	env := createEnvelope(domain.TypePublication, domain.ObjectPayload{})
	if _, appErr := d.Dispatch(reader.Id, reader, env); appErr == nil {
		t.Fatal("Expected failure for missing name")
	}

	err, activities := database.ReadActivitiesByReaderId(reader.Id)
	if err != nil {
		t.Fatalf("ReadActivitiesByReaderId failed: %v", err)
	}
	if len(*activities) != 0 {
		t.Errorf("Expected empty outbox after failed operation, got %d entries", len(*activities))
	}
}
