package db

import (
	"database/sql"
	"log"
)

const (
	sqlCreateReadersTable = `CREATE TABLE IF NOT EXISTS readers (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		summary TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreatePublicationsTable = `CREATE TABLE IF NOT EXISTS publications (
		id TEXT NOT NULL PRIMARY KEY,
		reader_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		author TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	)`

	sqlCreatePublicationsIndices = `
		CREATE INDEX IF NOT EXISTS idx_publications_reader_id ON publications(reader_id);
	`

	sqlCreateDocumentsTable = `CREATE TABLE IF NOT EXISTS documents (
		id TEXT NOT NULL PRIMARY KEY,
		publication_id TEXT NOT NULL,
		reader_id TEXT NOT NULL,
		name TEXT,
		url TEXT UNIQUE NOT NULL,
		media_type TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	)`

	sqlCreateDocumentsIndices = `
		CREATE INDEX IF NOT EXISTS idx_documents_publication_id ON documents(publication_id);
		CREATE INDEX IF NOT EXISTS idx_documents_url ON documents(url);
	`

	sqlCreateNotesTable = `CREATE TABLE IF NOT EXISTS notes (
		id TEXT NOT NULL PRIMARY KEY,
		reader_id TEXT NOT NULL,
		content TEXT,
		in_reply_to TEXT NOT NULL,
		context TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	)`

	sqlCreateNotesIndices = `
		CREATE INDEX IF NOT EXISTS idx_notes_reader_id ON notes(reader_id);
	`

	sqlCreateTagsTable = `CREATE TABLE IF NOT EXISTS tags (
		id TEXT NOT NULL PRIMARY KEY,
		reader_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(reader_id, name)
	)`

	sqlCreateTagsIndices = `
		CREATE INDEX IF NOT EXISTS idx_tags_reader_id ON tags(reader_id);
	`

	// Append-only; outbox read order is insertion order (rowid).
	sqlCreateActivitiesTable = `CREATE TABLE IF NOT EXISTS activities (
		id TEXT NOT NULL PRIMARY KEY,
		reader_id TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		object_type TEXT NOT NULL,
		object_id TEXT,
		object_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateActivitiesIndices = `
		CREATE INDEX IF NOT EXISTS idx_activities_reader_id ON activities(reader_id);
	`
)

// RunMigrations creates all tables and indices. Statements are idempotent,
// so running against an existing database is safe.
func (db *DB) RunMigrations() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		statements := []string{
			sqlCreateReadersTable,
			sqlCreatePublicationsTable,
			sqlCreatePublicationsIndices,
			sqlCreateDocumentsTable,
			sqlCreateDocumentsIndices,
			sqlCreateNotesTable,
			sqlCreateNotesIndices,
			sqlCreateTagsTable,
			sqlCreateTagsIndices,
			sqlCreateActivitiesTable,
			sqlCreateActivitiesIndices,
		}

		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				log.Printf("Migration statement failed: %v", err)
				return err
			}
		}
		return nil
	})
}
