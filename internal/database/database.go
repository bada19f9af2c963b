package database

import (
	"database/sql"
	"fmt"
	"strings"

	"metcm_relay/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// DB owns the SQLite connection used for the bulletin archive
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite tunes SQLite for a single writer with concurrent readers
func optimizeSQLite(db *sql.DB) error {
	pragmas := []string{
		// WAL lets the HTTP side read while the archiver writes
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// BulletinRepository returns the archive repository backed by this connection
func (d *DB) BulletinRepository() BulletinRepository {
	return NewBulletinRepository(d.db)
}

// zoneColumns lists zona0..zona31 in slot order
func zoneColumns() []string {
	cols := make([]string, models.ZoneCount)
	for i := range cols {
		cols[i] = models.ZoneTag(i)
	}
	return cols
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	zoneDefs := make([]string, 0, models.ZoneCount)
	for _, c := range zoneColumns() {
		zoneDefs = append(zoneDefs, c+" TEXT NOT NULL DEFAULT ''")
	}

	bulletinsSchema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS bulletins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		%s TEXT NOT NULL,
		%s TEXT NOT NULL,
		%s TEXT NOT NULL,
		%s TEXT NOT NULL,
		%s,
		issued_at TIMESTAMP,
		received_at TIMESTAMP NOT NULL,
		source TEXT,
		missing_zones INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`,
		models.TagStationID, models.TagLatLon, models.TagDateTime, models.TagHeightPressure,
		strings.Join(zoneDefs, ",\n\t\t"),
	)

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_bulletins_station ON bulletins(` + models.TagStationID + `)`,
		`CREATE INDEX IF NOT EXISTS idx_bulletins_received_at ON bulletins(received_at)`,
	}

	if _, err := d.db.Exec(bulletinsSchema); err != nil {
		return fmt.Errorf("failed to create bulletins table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
