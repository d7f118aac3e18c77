package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"talentlens/internal/talent"
)

// Snapshot is the on-disk shape of the whole store.
type Snapshot struct {
	Buckets    map[string]*talent.Bucket `json:"roles"`
	SeenRowIDs []string                  `json:"sheet_last_ids,omitempty"`
}

// Persister loads the snapshot at startup and saves it after every mutation.
type Persister interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// FilePersister keeps the snapshot in a single JSON file, written atomically
// and synced before a save is acknowledged.
type FilePersister struct {
	Path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

func (p *FilePersister) Load() (*Snapshot, error) {
	data, err := os.ReadFile(p.Path)
	if os.IsNotExist(err) {
		return &Snapshot{Buckets: make(map[string]*talent.Bucket)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.Path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.Path, err)
	}
	if snap.Buckets == nil {
		snap.Buckets = make(map[string]*talent.Bucket)
	}
	return &snap, nil
}

func (p *FilePersister) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		return fmt.Errorf("replace %s: %w", p.Path, err)
	}
	return nil
}
