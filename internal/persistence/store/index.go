package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SimulationRow is the index entry for one stored simulation document.
type SimulationRow struct {
	ID        string
	Name      string
	Path      string
	CreatedAt time.Time
	Batches   int
	Bodies    int
	Frames    int
	Duration  float64
}

// RecordingRow is the index entry for one capture file.
type RecordingRow struct {
	ID           string
	SimulationID string
	Path         string
	CreatedAt    time.Time
	Frames       int
}

// Index is the read-model over stored simulations and recordings. It never
// affects playback; losing it only loses the listing.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS simulations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	path       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	batches    INTEGER NOT NULL,
	bodies     INTEGER NOT NULL,
	frames     INTEGER NOT NULL,
	duration   REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS recordings (
	id            TEXT PRIMARY KEY,
	simulation_id TEXT NOT NULL,
	path          TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	frames        INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

func (ix *Index) PutSimulation(row SimulationRow) error {
	_, err := ix.db.Exec(`
INSERT OR REPLACE INTO simulations (id, name, path, created_at, batches, bodies, frames, duration)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Name, row.Path, row.CreatedAt.UTC().Format(time.RFC3339Nano),
		row.Batches, row.Bodies, row.Frames, row.Duration)
	return err
}

func (ix *Index) GetSimulation(id string) (SimulationRow, error) {
	var row SimulationRow
	var created string
	err := ix.db.QueryRow(`
SELECT id, name, path, created_at, batches, bodies, frames, duration
FROM simulations WHERE id = ?`, id).Scan(
		&row.ID, &row.Name, &row.Path, &created, &row.Batches, &row.Bodies, &row.Frames, &row.Duration)
	if err != nil {
		return SimulationRow{}, err
	}
	row.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return row, nil
}

func (ix *Index) ListSimulations() ([]SimulationRow, error) {
	rows, err := ix.db.Query(`
SELECT id, name, path, created_at, batches, bodies, frames, duration
FROM simulations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SimulationRow
	for rows.Next() {
		var row SimulationRow
		var created string
		if err := rows.Scan(&row.ID, &row.Name, &row.Path, &created, &row.Batches, &row.Bodies, &row.Frames, &row.Duration); err != nil {
			return nil, err
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (ix *Index) PutRecording(row RecordingRow) error {
	_, err := ix.db.Exec(`
INSERT OR REPLACE INTO recordings (id, simulation_id, path, created_at, frames)
VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.SimulationID, row.Path, row.CreatedAt.UTC().Format(time.RFC3339Nano), row.Frames)
	return err
}

func (ix *Index) ListRecordings(simulationID string) ([]RecordingRow, error) {
	rows, err := ix.db.Query(`
SELECT id, simulation_id, path, created_at, frames
FROM recordings WHERE simulation_id = ? ORDER BY created_at DESC`, simulationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecordingRow
	for rows.Next() {
		var row RecordingRow
		var created string
		if err := rows.Scan(&row.ID, &row.SimulationID, &row.Path, &created, &row.Frames); err != nil {
			return nil, err
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, row)
	}
	return out, rows.Err()
}
