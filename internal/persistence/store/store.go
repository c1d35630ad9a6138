package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store keeps simulation documents on disk (compressed JSON) with a sqlite
// read-model index over them.
type Store struct {
	dir string
	idx *Index
}

func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty store directory")
	}
	if err := os.MkdirAll(filepath.Join(dir, "sims"), 0o755); err != nil {
		return nil, err
	}
	idx, err := OpenIndex(filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, idx: idx}, nil
}

func (s *Store) Close() error { return s.idx.Close() }

// Index exposes the read model for listings.
func (s *Store) Index() *Index { return s.idx }

// RecordingsDir is where capture files belong.
func (s *Store) RecordingsDir() string { return filepath.Join(s.dir, "recordings") }

// Register saves a document under a fresh ID and indexes it.
func (s *Store) Register(name string, doc *Document) (SimulationRow, error) {
	if name == "" {
		name = "simulation"
	}
	id := uuid.NewString()
	path := filepath.Join(s.dir, "sims", id+".json.zst")
	if err := SaveDocument(path, doc); err != nil {
		return SimulationRow{}, err
	}
	row := SimulationRow{
		ID:        id,
		Name:      name,
		Path:      path,
		CreatedAt: time.Now().UTC(),
		Batches:   doc.Model.SimBatches,
		Bodies:    len(doc.Model.Bodies),
		Frames:    len(doc.States),
	}
	if len(doc.States) > 0 {
		row.Duration = doc.States[len(doc.States)-1].Time
	}
	if err := s.idx.PutSimulation(row); err != nil {
		return SimulationRow{}, err
	}
	return row, nil
}

// Load fetches a stored document by ID.
func (s *Store) Load(id string) (*Document, error) {
	row, err := s.idx.GetSimulation(id)
	if err != nil {
		return nil, err
	}
	return LoadDocument(row.Path)
}

// List returns the stored simulations, newest first.
func (s *Store) List() ([]SimulationRow, error) { return s.idx.ListSimulations() }
