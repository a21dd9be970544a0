package table

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/devicebulk/internal/schema"
)

// MemoryStore is a Store backed by a map. Tables are cloned on the way in and
// out. FailWrites makes Replace fail for the named tables.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]*Table
	fail   map[string]error
	writes []string
}

// NewMemoryStore returns a store holding clones of tables.
func NewMemoryStore(tables ...*Table) *MemoryStore {
	s := &MemoryStore{
		tables: make(map[string]*Table),
		fail:   make(map[string]error),
	}
	for _, t := range tables {
		s.tables[schema.TableKey(t.Name)] = t.Clone()
	}
	return s
}

// FailWrites makes subsequent Replace calls for table return err.
func (s *MemoryStore) FailWrites(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[schema.TableKey(table)] = err
}

// Writes returns the table names passed to successful Replace calls, in order.
func (s *MemoryStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *MemoryStore) Load(ctx context.Context, name string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[schema.TableKey(name)]
	if !ok {
		return nil, &IoError{Table: schema.NormalizeTableName(name), Err: ErrTableNotFound}
	}
	return t.Clone(), nil
}

func (s *MemoryStore) Replace(ctx context.Context, t *Table) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Table: t.Name, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := schema.TableKey(t.Name)
	if err := s.fail[key]; err != nil {
		return &WriteError{Table: t.Name, Err: fmt.Errorf("replace: %w", err)}
	}
	s.tables[key] = t.Clone()
	s.writes = append(s.writes, t.Name)
	return nil
}

func (s *MemoryStore) Tables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}
