package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"metcm_relay/internal/models"
)

type BulletinRepository interface {
	InsertBatch(bulletins []models.Bulletin) error
	Latest() (models.Bulletin, bool, error)
	Count() (int, error)
}

type bulletinRepository struct {
	db *sql.DB
}

func NewBulletinRepository(db *sql.DB) BulletinRepository {
	return &bulletinRepository{db: db}
}

// bulletinColumns is the column order shared by insert and select
func bulletinColumns() []string {
	cols := []string{models.TagStationID, models.TagLatLon, models.TagDateTime, models.TagHeightPressure}
	cols = append(cols, zoneColumns()...)
	return append(cols, "issued_at", "received_at", "source", "missing_zones")
}

// InsertBatch appends bulletins in a single transaction
func (r *bulletinRepository) InsertBatch(bulletins []models.Bulletin) error {
	if len(bulletins) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cols := bulletinColumns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(`INSERT INTO bulletins (` + strings.Join(cols, ", ") + `) VALUES (` + placeholders + `)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range bulletins {
		if _, err := stmt.Exec(bulletinArgs(&bulletins[i])...); err != nil {
			return fmt.Errorf("failed to insert bulletin: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func bulletinArgs(b *models.Bulletin) []any {
	args := make([]any, 0, len(bulletinColumns()))
	for _, f := range b.Header.Fields() {
		args = append(args, f)
	}
	for _, z := range b.Zones {
		args = append(args, z)
	}

	var issued any
	if !b.IssuedAt.IsZero() {
		issued = b.IssuedAt.UTC()
	}
	return append(args, issued, b.ReceivedAt.UTC(), b.Source, b.MissingZones)
}

// Latest reads back the most recently archived bulletin
func (r *bulletinRepository) Latest() (models.Bulletin, bool, error) {
	row := r.db.QueryRow(`SELECT ` + strings.Join(bulletinColumns(), ", ") + ` FROM bulletins ORDER BY id DESC LIMIT 1`)

	var (
		b        models.Bulletin
		issued   sql.NullTime
		received time.Time
		source   sql.NullString
	)

	dest := []any{&b.Header.StationID, &b.Header.LatLon, &b.Header.DateTime, &b.Header.HeightPressure}
	for i := range b.Zones {
		dest = append(dest, &b.Zones[i])
	}
	dest = append(dest, &issued, &received, &source, &b.MissingZones)

	err := row.Scan(dest...)
	if err == sql.ErrNoRows {
		return models.Bulletin{}, false, nil
	}
	if err != nil {
		return models.Bulletin{}, false, fmt.Errorf("failed to read latest bulletin: %w", err)
	}

	if issued.Valid {
		b.IssuedAt = issued.Time
	}
	b.ReceivedAt = received
	b.Source = source.String

	return b, true, nil
}

func (r *bulletinRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM bulletins").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bulletins: %w", err)
	}
	return n, nil
}
