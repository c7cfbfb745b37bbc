package cards

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
	newID   func() string
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(f func() string) MemoryOption {
	return func(s *MemoryStore) { s.newID = f }
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores a new record built from d.
func (s *MemoryStore) Create(_ context.Context, d Draft) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := newRecord(d, s.newID(), len(s.records), s.now())
	if err != nil {
		return Record{}, err
	}
	s.records[rec.ID] = rec
	return rec, nil
}

// Get returns the record with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// List returns all records ordered by name, then creation time.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sortByName(out)
	return out, nil
}

// Update replaces the mutable fields (name, payload, type, colour) of an
// existing record. ID and CreatedAt are kept.
func (s *MemoryStore) Update(_ context.Context, r Record) (Record, error) {
	if err := validate(r.Payload, r.Type); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[r.ID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	if name := NormalizeName(r.Name); name != "" {
		cur.Name = name
	}
	cur.Payload = r.Payload
	cur.Type = r.Type
	cur.Color = r.Color
	s.records[cur.ID] = cur
	return cur, nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// snapshot returns all records in storage order.
func (s *MemoryStore) snapshot() []Record {
	out, _ := s.List(context.Background())
	return out
}

// replace swaps the store contents.
func (s *MemoryStore) replace(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record, len(records))
	for _, r := range records {
		s.records[r.ID] = r
	}
}

func sortByName(records []Record) {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(records, func(i, j int) bool {
		if c := col.CompareString(records[i].Name, records[j].Name); c != 0 {
			return c < 0
		}
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
