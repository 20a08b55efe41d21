// Package snapshot persists exported record sets locally so the next
// reconciliation run has a prior set to compare against.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/motorgrid/lotsync/internal/model"
)

// Snapshot is one persisted record set.
type Snapshot struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	RecordCount int       `json:"record_count"`
	TakenAt     time.Time `json:"taken_at"`
}

// Store keeps snapshots in a local SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens the snapshot database at the given path and configures
// WAL mode.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "snapshot: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id           TEXT PRIMARY KEY,
	label        TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	taken_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_records (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id),
	record_id   TEXT NOT NULL,
	position    INTEGER NOT NULL,
	payload     TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);
CREATE INDEX IF NOT EXISTS idx_snapshot_records_snapshot ON snapshot_records(snapshot_id);
`

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "snapshot: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a record set as a new snapshot. Duplicate record
// identifiers keep the first occurrence, matching how reconciliation
// treats duplicated feed IDs.
func (s *Store) Save(ctx context.Context, label string, records []model.CatalogRecord) (*Snapshot, error) {
	seen := make(map[string]struct{}, len(records))
	unique := make([]model.CatalogRecord, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			zap.L().Warn("snapshot: duplicate record id, keeping first",
				zap.String("id", rec.ID))
			continue
		}
		seen[rec.ID] = struct{}{}
		unique = append(unique, rec)
	}

	snap := &Snapshot{
		ID:          uuid.New().String(),
		Label:       label,
		RecordCount: len(unique),
		TakenAt:     time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, label, record_count, taken_at) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.Label, snap.RecordCount, snap.TakenAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: insert snapshot")
	}

	for i, rec := range unique {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: marshal record %s", rec.ID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_records (snapshot_id, record_id, position, payload) VALUES (?, ?, ?, ?)`,
			snap.ID, rec.ID, i, string(payload),
		)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot: insert record %s", rec.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "snapshot: commit")
	}

	zap.L().Info("snapshot: saved",
		zap.String("id", snap.ID),
		zap.String("label", label),
		zap.Int("records", len(unique)),
	)
	return snap, nil
}

// Latest returns the most recent snapshot and its records, or
// (nil, nil, nil) when no snapshot exists yet.
func (s *Store) Latest(ctx context.Context) (*Snapshot, []model.CatalogRecord, error) {
	var snap Snapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, record_count, taken_at FROM snapshots ORDER BY taken_at DESC, rowid DESC LIMIT 1`,
	).Scan(&snap.ID, &snap.Label, &snap.RecordCount, &snap.TakenAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "snapshot: query latest")
	}

	records, err := s.Records(ctx, snap.ID)
	if err != nil {
		return nil, nil, err
	}
	return &snap, records, nil
}

// Records returns the records of one snapshot in saved order.
func (s *Store) Records(ctx context.Context, snapshotID string) ([]model.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM snapshot_records WHERE snapshot_id = ? ORDER BY position`,
		snapshotID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: query records %s", snapshotID)
	}
	defer rows.Close()

	var records []model.CatalogRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "snapshot: scan record")
		}
		var rec model.CatalogRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, eris.Wrap(err, "snapshot: unmarshal record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "snapshot: iterate records")
}

// List returns snapshot metadata, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, record_count, taken_at FROM snapshots ORDER BY taken_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: list")
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Label, &snap.RecordCount, &snap.TakenAt); err != nil {
			return nil, eris.Wrap(err, "snapshot: scan")
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "snapshot: list iterate")
}

// Prune deletes all but the newest keep snapshots.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshot_records WHERE snapshot_id NOT IN (
			SELECT id FROM snapshots ORDER BY taken_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, eris.Wrap(err, "snapshot: prune records")
	}
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY taken_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, eris.Wrap(err, "snapshot: prune snapshots")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
