package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/metrics"
	"github.com/franckalain/wastedetect/internal/models"
	"github.com/google/uuid"
	logging "github.com/ipfs/go-log"
	_ "modernc.org/sqlite"
)

var log = logging.Logger("wastedetect")

// timeLayout is fixed width so timestamps sort correctly as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

//go:embed schema.sql
var schemaFS embed.FS

// Store is the document store waste records are written to
type Store interface {
	// AddWasteRecord creates a new record and returns its store-assigned id.
	// The timestamp is always set by the store.
	AddWasteRecord(ctx context.Context, rec *models.WasteRecord) (string, error)
	// GetRecentWasteRecords returns up to limit records, newest first
	GetRecentWasteRecords(ctx context.Context, limit int) ([]*models.WasteRecord, error)
	Close() error
}

// SQLiteDB implements the Store interface on a local file
type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}

	// Initialize database schema
	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db, now: time.Now}, nil
}

func initializeSchema(db *sql.DB) error {
	// Read schema file
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	// Execute schema
	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	log.Debug("Database schema initialized successfully")
	return nil
}

// AddWasteRecord inserts a new waste record
func (s *SQLiteDB) AddWasteRecord(ctx context.Context, rec *models.WasteRecord) (string, error) {
	query := `
		INSERT INTO waste_records (
			id, waste_type, quantity, location, date, image_data, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	id := uuid.New().String()
	ts := s.now().UTC()

	start := time.Now()
	_, err := s.db.ExecContext(ctx, query,
		id, rec.WasteType, rec.Quantity, rec.Location, rec.Date,
		rec.ImageData, ts.Format(timeLayout),
	)
	metrics.ObserveUpstream("sqlite", start, err)
	if err != nil {
		return "", apperr.New(apperr.PersistenceFailure, fmt.Errorf("error saving waste record: %w", err))
	}

	rec.ID = id
	rec.Timestamp = ts
	return id, nil
}

// GetRecentWasteRecords retrieves the most recent waste records
func (s *SQLiteDB) GetRecentWasteRecords(ctx context.Context, limit int) ([]*models.WasteRecord, error) {
	query := `
		SELECT id, waste_type, quantity, location, date, image_data, timestamp
		FROM waste_records
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperr.New(apperr.PersistenceFailure, fmt.Errorf("error listing waste records: %w", err))
	}
	defer rows.Close()

	results := []*models.WasteRecord{}
	for rows.Next() {
		var rec models.WasteRecord
		var ts string

		err := rows.Scan(
			&rec.ID, &rec.WasteType, &rec.Quantity, &rec.Location,
			&rec.Date, &rec.ImageData, &ts,
		)
		if err != nil {
			return nil, apperr.New(apperr.PersistenceFailure, err)
		}

		// Parse time string
		rec.Timestamp, _ = time.Parse(timeLayout, ts)

		results = append(results, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.New(apperr.PersistenceFailure, err)
	}

	return results, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
