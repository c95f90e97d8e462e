// Package sqlite stores daily records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
	"github.com/couchcryptid/crop-et-sim/internal/phenology"
)

const schema = `
	CREATE TABLE IF NOT EXISTS daily_crop_et (
		cell_id TEXT NOT NULL,
		crop_number INTEGER NOT NULL,
		date TEXT NOT NULL,
		doy INTEGER NOT NULL,
		pmeto REAL NOT NULL,
		precip REAL NOT NULL,
		t30 REAL NOT NULL,
		et_act REAL NOT NULL,
		et_pot REAL NOT NULL,
		et_bas REAL NOT NULL,
		irrigation REAL NOT NULL,
		in_season INTEGER NOT NULL,
		runoff REAL NOT NULL,
		deep_perc REAL NOT NULL,
		PRIMARY KEY (cell_id, crop_number, date)
	);
`

const insertRecord = `
	INSERT INTO daily_crop_et (
		cell_id, crop_number, date, doy, pmeto, precip, t30,
		et_act, et_pot, et_bas, irrigation, in_season, runoff, deep_perc
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const dateLayout = "2006-01-02"

// Sink writes each pair's records in a single transaction. A rerun of a pair
// replaces its previous rows. Pings and queries use a separate handle so they
// are not queued behind an open pair transaction.
type Sink struct {
	db   *sql.DB
	read *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; pairs queue for the connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating daily_crop_et table: %w", err)
	}

	// WAL lets readers proceed while the writer holds a transaction.
	read, err := sql.Open("sqlite", path)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening read handle: %w", err)
	}
	return &Sink{db: db, read: read}, nil
}

func (s *Sink) Name() string { return "sqlite" }

// Close closes both database handles.
func (s *Sink) Close() error {
	return errors.Join(s.db.Close(), s.read.Close())
}

// CheckReadiness pings the database through the read handle.
func (s *Sink) CheckReadiness(ctx context.Context) error {
	return s.read.PingContext(ctx)
}

// Open starts the pair's transaction and clears rows from an earlier run.
// The transaction is rolled back if ctx is cancelled before Close.
func (s *Sink) Open(ctx context.Context, cell *domain.Cell, crop *domain.Crop) (phenology.RecordStream, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_crop_et WHERE cell_id = ? AND crop_number = ?`,
		cell.ID, crop.Number); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("clearing previous rows: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	return &stream{tx: tx, stmt: stmt}, nil
}

// Records returns the stored records of a pair in date order.
func (s *Sink) Records(ctx context.Context, cellID string, cropNumber int) ([]domain.DailyRecord, error) {
	rows, err := s.read.QueryContext(ctx, `
		SELECT date, doy, pmeto, precip, t30, et_act, et_pot, et_bas,
			irrigation, in_season, runoff, deep_perc
		FROM daily_crop_et
		WHERE cell_id = ? AND crop_number = ?
		ORDER BY date`, cellID, cropNumber)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyRecord
	for rows.Next() {
		rec := domain.DailyRecord{CellID: cellID, CropNumber: cropNumber}
		var date string
		if err := rows.Scan(&date, &rec.DOY, &rec.ETRef, &rec.Precip, &rec.T30,
			&rec.ETAct, &rec.ETPot, &rec.ETBas,
			&rec.Irrigation, &rec.InSeason, &rec.Runoff, &rec.DeepPerc); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if rec.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parsing stored date %q: %w", date, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type stream struct {
	tx     *sql.Tx
	stmt   *sql.Stmt
	failed bool
}

func (s *stream) Write(ctx context.Context, rec domain.DailyRecord) error {
	_, err := s.stmt.ExecContext(ctx,
		rec.CellID, rec.CropNumber, rec.Date.Format(dateLayout), rec.DOY,
		rec.ETRef, rec.Precip, rec.T30,
		rec.ETAct, rec.ETPot, rec.ETBas,
		rec.Irrigation, rec.InSeason, rec.Runoff, rec.DeepPerc)
	if err != nil {
		s.failed = true
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Close commits the pair, or rolls it back after a failed write.
func (s *stream) Close() error {
	s.stmt.Close()
	if s.failed {
		return s.tx.Rollback()
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
