// Package storage persists refresh results: current-status snapshots to a
// local SQLite database and hourly observations to a Postgres/TimescaleDB
// archive.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/airwatchio/airwatch/pkg/monitor"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS status_snapshots (
	snapshot_id       TEXT NOT NULL,
	collection        TEXT NOT NULL,
	device_deployment TEXT NOT NULL,
	last_valid_time   TIMESTAMP,
	last_valid_value  REAL,
	recorded_at       TIMESTAMP NOT NULL,
	PRIMARY KEY (snapshot_id, device_deployment)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_collection
	ON status_snapshots (collection, recorded_at);
`

// SnapshotStore records current-status snapshots in a SQLite database.
type SnapshotStore struct {
	db     *sql.DB
	dbPath string
}

// NewSnapshotStore opens (creating if necessary) the snapshot database.
func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}

	return &SnapshotStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// RecordSnapshot writes one row per deployment for the given collection and
// returns the snapshot identifier. Deployments with no valid observations
// are recorded with null time and value.
func (s *SnapshotStore) RecordSnapshot(collection string, records []monitor.StatusRecord) (string, error) {
	snapshotID := uuid.NewString()
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO status_snapshots
		(snapshot_id, collection, device_deployment, last_valid_time, last_valid_value, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var lastTime any
		var lastValue any
		if rec.HasValid {
			lastTime = rec.LastValidTime.UTC()
			lastValue = rec.LastValidValue
		}
		if _, err := stmt.Exec(snapshotID, collection, rec.DeviceDeploymentID, lastTime, lastValue, now); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("failed to insert snapshot row for %s: %w", rec.DeviceDeploymentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snapshotID, nil
}

// LatestSnapshot returns the most recent snapshot rows for a collection.
func (s *SnapshotStore) LatestSnapshot(collection string) ([]monitor.StatusRecord, error) {
	rows, err := s.db.Query(`SELECT device_deployment, last_valid_time, last_valid_value
		FROM status_snapshots
		WHERE collection = ? AND snapshot_id = (
			SELECT snapshot_id FROM status_snapshots
			WHERE collection = ? ORDER BY recorded_at DESC LIMIT 1)
		ORDER BY device_deployment`, collection, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	defer rows.Close()

	var records []monitor.StatusRecord
	for rows.Next() {
		var rec monitor.StatusRecord
		var lastTime sql.NullTime
		var lastValue sql.NullFloat64
		if err := rows.Scan(&rec.DeviceDeploymentID, &lastTime, &lastValue); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if lastTime.Valid && lastValue.Valid {
			rec.LastValidTime = lastTime.Time.UTC()
			rec.LastValidValue = lastValue.Float64
			rec.HasValid = true
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
