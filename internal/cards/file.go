package cards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const fileFormatVersion = 1

type fileDocument struct {
	Version int      `yaml:"version"`
	Cards   []Record `yaml:"cards"`
}

// FileStore is a MemoryStore that writes its contents to a YAML file after
// every change.
type FileStore struct {
	path string
	mem  *MemoryStore

	// writeMu serializes mutation+flush so the file never goes backwards.
	writeMu sync.Mutex
}

// OpenFileStore loads path (a missing file is an empty store).
func OpenFileStore(path string, opts ...MemoryOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("cards: empty store path")
	}
	fs := &FileStore{path: path, mem: NewMemoryStore(opts...)}

	data, err := os.ReadFile(path) //nolint:gosec // G304: store path comes from configuration
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Card store file not found, starting empty", "path", path)
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("cards: reading %s: %w", path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cards: parsing %s: %w", path, err)
	}
	if doc.Version > fileFormatVersion {
		return nil, fmt.Errorf("cards: %s has unsupported version %d", path, doc.Version)
	}
	fs.mem.replace(doc.Cards)
	slog.Debug("Loaded card store", "path", path, "cards", len(doc.Cards))
	return fs, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Create(ctx context.Context, d Draft) (Record, error) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	rec, err := f.mem.Create(ctx, d)
	if err != nil {
		return Record{}, err
	}
	if err := f.flush(); err != nil {
		_ = f.mem.Delete(ctx, rec.ID)
		return Record{}, err
	}
	return rec, nil
}

func (f *FileStore) Get(ctx context.Context, id string) (Record, error) { return f.mem.Get(ctx, id) }

func (f *FileStore) List(ctx context.Context) ([]Record, error) { return f.mem.List(ctx) }

func (f *FileStore) Count(ctx context.Context) (int, error) { return f.mem.Count(ctx) }

func (f *FileStore) Update(ctx context.Context, r Record) (Record, error) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	prev, err := f.mem.Get(ctx, r.ID)
	if err != nil {
		return Record{}, err
	}
	rec, err := f.mem.Update(ctx, r)
	if err != nil {
		return Record{}, err
	}
	if err := f.flush(); err != nil {
		_, _ = f.mem.Update(ctx, prev)
		return Record{}, err
	}
	return rec, nil
}

func (f *FileStore) Delete(ctx context.Context, id string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	prev, err := f.mem.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := f.mem.Delete(ctx, id); err != nil {
		return err
	}
	if err := f.flush(); err != nil {
		f.mem.replace(append(f.mem.snapshot(), prev))
		return err
	}
	return nil
}

// flush writes the store atomically via a temp file and rename.
func (f *FileStore) flush() error {
	doc := fileDocument{Version: fileFormatVersion, Cards: f.mem.snapshot()}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cards: encoding store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("cards: creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".cards-*.yaml")
	if err != nil {
		return fmt.Errorf("cards: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cards: writing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cards: writing store: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("cards: replacing %s: %w", f.path, err)
	}
	return nil
}
