package db

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/domain"
	"github.com/rabhiso/reader-api/util"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db *sql.DB
}

// Outcomes every caller branches on. ErrNotFound covers missing and
// already-deleted rows alike; ErrDuplicate is a store-enforced uniqueness
// violation.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

var (
	dbInstance *DB
	dbOnce     sync.Once
)

const DatabaseFileName = "reader-api.db"

const (
	//Readers
	sqlInsertReader     = `INSERT INTO readers(id, name, summary, created_at) VALUES (?, ?, ?, ?)`
	sqlSelectReaderById = `SELECT id, name, summary, created_at FROM readers WHERE id = ?`

	//Activities
	sqlInsertActivity = `INSERT INTO activities(id, reader_id, activity_type, object_type, object_id, object_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlSelectActivityById = `SELECT id, reader_id, activity_type, object_type, object_id, object_json, created_at FROM activities WHERE id = ?`
	sqlSelectActivitiesByReaderId = `SELECT id, reader_id, activity_type, object_type, object_id, object_json, created_at FROM activities
                                                            WHERE reader_id = ?
                                                            ORDER BY rowid ASC`
)

func (db *DB) CreateReader(reader *domain.Reader) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertReader,
			reader.Id.String(),
			reader.Name,
			reader.Summary,
			reader.CreatedAt,
		)
		return mapUniqueViolation(err)
	})
}

func (db *DB) ReadReaderById(id uuid.UUID) (error, *domain.Reader) {
	row := db.db.QueryRow(sqlSelectReaderById, id.String())
	var reader domain.Reader
	var idStr string
	err := row.Scan(&idStr, &reader.Name, &reader.Summary, &reader.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	reader.Id, _ = uuid.Parse(idStr)
	return nil, &reader
}

// CreateActivity appends to the actor's outbox. Activities are never
// updated or deleted afterwards.
func (db *DB) CreateActivity(activity *domain.Activity) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertActivity,
			activity.Id.String(),
			activity.ReaderId.String(),
			activity.Type,
			activity.ObjectType,
			activity.ObjectId,
			activity.ObjectJSON,
			activity.CreatedAt,
		)
		return err
	})
}

func (db *DB) ReadActivityById(id uuid.UUID) (error, *domain.Activity) {
	row := db.db.QueryRow(sqlSelectActivityById, id.String())
	var activity domain.Activity
	var idStr, readerIdStr string
	err := row.Scan(&idStr, &readerIdStr, &activity.Type, &activity.ObjectType, &activity.ObjectId, &activity.ObjectJSON, &activity.CreatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound, nil
	}
	if err != nil {
		return err, nil
	}
	activity.Id, _ = uuid.Parse(idStr)
	activity.ReaderId, _ = uuid.Parse(readerIdStr)
	return nil, &activity
}

// ReadActivitiesByReaderId returns the reader's full outbox in insertion
// order. The collection is materialized per read, not streamed.
func (db *DB) ReadActivitiesByReaderId(readerId uuid.UUID) (error, *[]domain.Activity) {
	rows, err := db.db.Query(sqlSelectActivitiesByReaderId, readerId.String())
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	activities := []domain.Activity{}

	for rows.Next() {
		var activity domain.Activity
		var idStr, readerIdStr string
		if err := rows.Scan(&idStr, &readerIdStr, &activity.Type, &activity.ObjectType, &activity.ObjectId, &activity.ObjectJSON, &activity.CreatedAt); err != nil {
			return err, &activities
		}
		activity.Id, _ = uuid.Parse(idStr)
		activity.ReaderId, _ = uuid.Parse(readerIdStr)
		activities = append(activities, activity)
	}
	if err = rows.Err(); err != nil {
		return err, &activities
	}

	return nil, &activities
}

// Open opens a database at the given path, applies connection pool and
// PRAGMA settings, and runs the schema migrations. Tests pass ":memory:".
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Configure connection pool for concurrent access
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	var journalMode string
	err = sqlDB.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode)
	if err != nil {
		log.Printf("Warning: Failed to enable WAL mode: %v", err)
	} else {
		log.Printf("Database journal mode: %s", journalMode)
	}

	// Connection defaults for a concurrent request workload
	sqlDB.Exec("PRAGMA synchronous = NORMAL")
	sqlDB.Exec("PRAGMA cache_size = -64000")
	sqlDB.Exec("PRAGMA temp_store = MEMORY")
	sqlDB.Exec("PRAGMA busy_timeout = 5000")
	sqlDB.Exec("PRAGMA foreign_keys = ON")

	db := &DB{db: sqlDB}

	if err := db.RunMigrations(); err != nil {
		return nil, err
	}

	return db, nil
}

func GetDB() *DB {
	dbOnce.Do(func() {
		db, err := Open(util.ResolveFilePath(DatabaseFileName))
		if err != nil {
			panic(err)
		}
		log.Printf("Database initialized with connection pooling (max 25 connections)")
		dbInstance = db
	})

	return dbInstance
}

func (db *DB) Close() error {
	return db.db.Close()
}

// wrapTransaction runs the given function within a transaction.
func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicate) {
				log.Printf("error in transaction: %s", err)
			}
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}

// mapUniqueViolation translates the sqlite uniqueness error codes into
// ErrDuplicate so callers never inspect driver errors themselves.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicate
		}
	}
	return err
}
