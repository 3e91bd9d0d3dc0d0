package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/domain"
)

// Publications
const (
	sqlInsertPublication      = `INSERT INTO publications(id, reader_id, name, description, author, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	sqlSelectPublicationById  = `SELECT id, reader_id, name, description, author, created_at FROM publications WHERE id = ? AND deleted_at IS NULL`
	sqlSelectPublicationsByReaderId = `SELECT id, reader_id, name, description, author, created_at FROM publications
                                                            WHERE reader_id = ? AND deleted_at IS NULL
                                                            ORDER BY created_at DESC`
	sqlTombstonePublication   = `UPDATE publications SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	sqlTombstonePubDocuments  = `UPDATE documents SET deleted_at = ? WHERE publication_id = ? AND deleted_at IS NULL`
)

func (db *DB) CreatePublication(pub *domain.Publication) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertPublication,
			pub.Id.String(),
			pub.ReaderId.String(),
			pub.Name,
			pub.Description,
			pub.Author,
			pub.CreatedAt,
		)
		return err
	})
}

func (db *DB) ReadPublicationById(id uuid.UUID) (error, *domain.Publication) {
	row := db.db.QueryRow(sqlSelectPublicationById, id.String())
	return scanPublication(row)
}

func (db *DB) ReadPublicationsByReaderId(readerId uuid.UUID) (error, *[]domain.Publication) {
	rows, err := db.db.Query(sqlSelectPublicationsByReaderId, readerId.String())
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	pubs := []domain.Publication{}

	for rows.Next() {
		var pub domain.Publication
		var idStr, readerIdStr string
		if err := rows.Scan(&idStr, &readerIdStr, &pub.Name, &pub.Description, &pub.Author, &pub.CreatedAt); err != nil {
			return err, &pubs
		}
		pub.Id, _ = uuid.Parse(idStr)
		pub.ReaderId, _ = uuid.Parse(readerIdStr)
		pubs = append(pubs, pub)
	}
	if err = rows.Err(); err != nil {
		return err, &pubs
	}

	return nil, &pubs
}

// DeletePublicationById tombstones a publication and its documents, and
// returns the last-known representation. A second delete of the same id
// reads as ErrNotFound.
func (db *DB) DeletePublicationById(id uuid.UUID) (error, *domain.Publication) {
	var deleted *domain.Publication
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		row := tx.QueryRow(sqlSelectPublicationById, id.String())
		err, pub := scanPublication(row)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.Exec(sqlTombstonePublication, now, id.String()); err != nil {
			return err
		}
		if _, err := tx.Exec(sqlTombstonePubDocuments, now, id.String()); err != nil {
			return err
		}

		pub.DeletedAt = &now
		deleted = pub
		return nil
	})
	if err != nil {
		return err, nil
	}
	return nil, deleted
}

func scanPublication(row *sql.Row) (error, *domain.Publication) {
	var pub domain.Publication
	var idStr, readerIdStr string
	err := row.Scan(&idStr, &readerIdStr, &pub.Name, &pub.Description, &pub.Author, &pub.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	pub.Id, _ = uuid.Parse(idStr)
	pub.ReaderId, _ = uuid.Parse(readerIdStr)
	return nil, &pub
}

// Documents
const (
	sqlInsertDocument      = `INSERT INTO documents(id, publication_id, reader_id, name, url, media_type, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlSelectDocumentById  = `SELECT id, publication_id, reader_id, name, url, media_type, created_at FROM documents WHERE id = ? AND deleted_at IS NULL`
	sqlSelectDocumentByURL = `SELECT id, publication_id, reader_id, name, url, media_type, created_at FROM documents WHERE url = ? AND reader_id = ? AND deleted_at IS NULL`
	sqlSelectDocumentsByPublicationId = `SELECT id, publication_id, reader_id, name, url, media_type, created_at FROM documents
                                                            WHERE publication_id = ? AND deleted_at IS NULL
                                                            ORDER BY created_at ASC`
)

func (db *DB) CreateDocument(doc *domain.Document) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertDocument,
			doc.Id.String(),
			doc.PublicationId.String(),
			doc.ReaderId.String(),
			doc.Name,
			doc.URL,
			doc.MediaType,
			doc.CreatedAt,
		)
		return mapUniqueViolation(err)
	})
}

func (db *DB) ReadDocumentById(id uuid.UUID) (error, *domain.Document) {
	row := db.db.QueryRow(sqlSelectDocumentById, id.String())
	return scanDocument(row)
}

// ReadDocumentByURL resolves a document by its source url within one
// reader's collection. Another reader's document with the same url is
// indistinguishable from a missing one.
func (db *DB) ReadDocumentByURL(url string, readerId uuid.UUID) (error, *domain.Document) {
	row := db.db.QueryRow(sqlSelectDocumentByURL, url, readerId.String())
	return scanDocument(row)
}

func (db *DB) ReadDocumentsByPublicationId(publicationId uuid.UUID) (error, *[]domain.Document) {
	rows, err := db.db.Query(sqlSelectDocumentsByPublicationId, publicationId.String())
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	docs := []domain.Document{}

	for rows.Next() {
		var doc domain.Document
		var idStr, pubIdStr, readerIdStr string
		if err := rows.Scan(&idStr, &pubIdStr, &readerIdStr, &doc.Name, &doc.URL, &doc.MediaType, &doc.CreatedAt); err != nil {
			return err, &docs
		}
		doc.Id, _ = uuid.Parse(idStr)
		doc.PublicationId, _ = uuid.Parse(pubIdStr)
		doc.ReaderId, _ = uuid.Parse(readerIdStr)
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		return err, &docs
	}

	return nil, &docs
}

func scanDocument(row *sql.Row) (error, *domain.Document) {
	var doc domain.Document
	var idStr, pubIdStr, readerIdStr string
	err := row.Scan(&idStr, &pubIdStr, &readerIdStr, &doc.Name, &doc.URL, &doc.MediaType, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	doc.Id, _ = uuid.Parse(idStr)
	doc.PublicationId, _ = uuid.Parse(pubIdStr)
	doc.ReaderId, _ = uuid.Parse(readerIdStr)
	return nil, &doc
}

// Notes
const (
	sqlInsertNote     = `INSERT INTO notes(id, reader_id, content, in_reply_to, context, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	sqlSelectNoteById = `SELECT id, reader_id, content, in_reply_to, context, created_at FROM notes WHERE id = ? AND deleted_at IS NULL`
	sqlTombstoneNote  = `UPDATE notes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
)

func (db *DB) CreateNote(note *domain.Note) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertNote,
			note.Id.String(),
			note.ReaderId.String(),
			note.Content,
			note.InReplyTo,
			note.Context,
			note.CreatedAt,
		)
		return err
	})
}

func (db *DB) ReadNoteById(id uuid.UUID) (error, *domain.Note) {
	row := db.db.QueryRow(sqlSelectNoteById, id.String())
	return scanNote(row)
}

// DeleteNoteById tombstones a note and returns its last-known
// representation; ErrNotFound when missing or already deleted.
func (db *DB) DeleteNoteById(id uuid.UUID) (error, *domain.Note) {
	var deleted *domain.Note
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		row := tx.QueryRow(sqlSelectNoteById, id.String())
		err, note := scanNote(row)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.Exec(sqlTombstoneNote, now, id.String()); err != nil {
			return err
		}

		note.DeletedAt = &now
		deleted = note
		return nil
	})
	if err != nil {
		return err, nil
	}
	return nil, deleted
}

func scanNote(row *sql.Row) (error, *domain.Note) {
	var note domain.Note
	var idStr, readerIdStr string
	err := row.Scan(&idStr, &readerIdStr, &note.Content, &note.InReplyTo, &note.Context, &note.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	note.Id, _ = uuid.Parse(idStr)
	note.ReaderId, _ = uuid.Parse(readerIdStr)
	return nil, &note
}

// Tags
const (
	sqlInsertTag     = `INSERT INTO tags(id, reader_id, name, type, created_at) VALUES (?, ?, ?, ?, ?)`
	sqlDeleteTagById = `DELETE FROM tags WHERE id = ?`
)

// CreateTag inserts a tag; a second tag with the same name for the same
// reader surfaces as ErrDuplicate via the store's uniqueness constraint.
func (db *DB) CreateTag(tag *domain.Tag) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertTag,
			tag.Id.String(),
			tag.ReaderId.String(),
			tag.Name,
			tag.Type,
			tag.CreatedAt,
		)
		return mapUniqueViolation(err)
	})
}

// DeleteTagById removes a tag by identifier. No representation is retained;
// existence alone decides between success and ErrNotFound.
func (db *DB) DeleteTagById(id uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlDeleteTagById, id.String())
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
