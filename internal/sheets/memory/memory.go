package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"faturamento/internal/core"
	ports "faturamento/internal/sheets"
)

// Store keeps items in process memory.
type Store struct {
	mu    sync.Mutex
	items []core.ItemRecord
}

var _ ports.ItemStore = (*Store)(nil)

// New returns a store holding seed as-is. Seed records are not validated, so
// tests can plant the malformed rows a real store may contain.
func New(seed ...core.ItemRecord) *Store {
	return &Store{items: append([]core.ItemRecord(nil), seed...)}
}

type seedFile struct {
	Items []core.ItemRecord `yaml:"items"`
}

// NewFromFile seeds the store from a YAML document with an "items" list.
// A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i := range seed.Items {
		if seed.Items[i].ID == "" {
			seed.Items[i].ID = fmt.Sprintf("seed:%d", i+1)
		}
	}
	return New(seed.Items...), nil
}

// AppendItem validates and stores rec.
func (s *Store) AppendItem(_ context.Context, rec core.ItemRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return rec.ID, nil
}

// ListItems returns the items of ledger in insertion order.
func (s *Store) ListItems(_ context.Context, ledger core.Ledger) ([]core.ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ItemRecord
	for _, it := range s.items {
		if it.Ledger == ledger {
			out = append(out, it)
		}
	}
	return out, nil
}

// Len returns the number of stored items across ledgers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
