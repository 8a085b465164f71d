// Package sqlite keeps a snapshot of the latest corpus in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
)

// Store replaces its observations table with every published corpus.
// It implements pipeline.Sink.
type Store struct {
	conn *sql.DB
}

// Snapshot describes the corpus currently held by the store.
type Snapshot struct {
	LoadedAt time.Time
	Rows     int
}

// Open creates or opens the database at path and prepares its schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "sqlite" }

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS observations (
  region_code TEXT,
  region_name TEXT NOT NULL,
  parent_region TEXT,
  land_use TEXT,
  lon REAL NOT NULL,
  lat REAL NOT NULL,
  date TEXT NOT NULL,
  ndvi REAL,
  lst REAL,
  tvdi REAL
);
CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(date);
CREATE INDEX IF NOT EXISTS idx_observations_region ON observations(region_name, date);

CREATE TABLE IF NOT EXISTS snapshot (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  loaded_at TEXT NOT NULL,
  row_count INTEGER NOT NULL
);
`
	_, err := s.conn.Exec(schema)
	return err
}

// Publish swaps the stored corpus for ds in one transaction, so readers see
// either the old corpus or the new one in full.
func (s *Store) Publish(ctx context.Context, ds *dataset.Dataset) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations`); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO observations (
  region_code, region_name, parent_region, land_use,
  lon, lat, date, ndvi, lst, tvdi
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	obs := ds.Observations()
	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx,
			nullString(o.RegionCode), o.RegionName, nullString(o.ParentRegion), nullString(o.LandUse),
			o.Lon, o.Lat, o.Date.String(), o.NDVI, o.LST, o.TVDI,
		); err != nil {
			return fmt.Errorf("insert %s: %w", o.Key(), err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO snapshot (id, loaded_at, row_count) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET loaded_at = excluded.loaded_at, row_count = excluded.row_count`,
		domain.Now().UTC().Format(time.RFC3339), len(obs),
	); err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}

	return tx.Commit()
}

// Snapshot returns when the stored corpus was published and its size. The
// zero Snapshot means nothing has been published yet.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		loadedAt string
		snap     Snapshot
	)
	err := s.conn.QueryRowContext(ctx, `SELECT loaded_at, row_count FROM snapshot WHERE id = 1`).Scan(&loadedAt, &snap.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	if snap.LoadedAt, err = time.Parse(time.RFC3339, loadedAt); err != nil {
		return Snapshot{}, fmt.Errorf("parse loaded_at: %w", err)
	}
	return snap, nil
}

// SeriesForRegion reads one region's stored observations ordered by date.
func (s *Store) SeriesForRegion(ctx context.Context, name string) ([]domain.Observation, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT region_code, region_name, parent_region, land_use, lon, lat, date, ndvi, lst, tvdi
FROM observations WHERE region_name = ? ORDER BY date`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var (
			o                     domain.Observation
			code, parent, landUse sql.NullString
			date                  string
			ndvi, lst, tvdi       sql.NullFloat64
		)
		if err := rows.Scan(&code, &o.RegionName, &parent, &landUse, &o.Lon, &o.Lat, &date, &ndvi, &lst, &tvdi); err != nil {
			return nil, err
		}
		if o.Date, err = domain.ParseDate(date); err != nil {
			return nil, err
		}
		o.RegionCode, o.ParentRegion, o.LandUse = code.String, parent.String, landUse.String
		o.NDVI, o.LST, o.TVDI = floatPtr(ndvi), floatPtr(lst), floatPtr(tvdi)
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
