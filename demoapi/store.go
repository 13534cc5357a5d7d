package demoapi

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists items per resource.
type Store interface {
	// List returns all items of resource ordered by id.
	List(ctx context.Context, resource string) ([]*Item, error)
	Get(ctx context.Context, resource string, id int64) (*Item, error)
	// Create assigns the next id of resource and stores fields under it.
	Create(ctx context.Context, resource string, fields map[string]any) (*Item, error)
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, resource string, id int64) error
}

// MemoryStore keeps items in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[int64]*Item
	seq   map[string]int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]map[int64]*Item),
		seq:   make(map[string]int64),
	}
}

func (s *MemoryStore) List(ctx context.Context, resource string) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*Item, 0, len(s.items[resource]))
	for _, it := range s.items[resource] {
		items = append(items, clone(it))
	}
	sortByID(items)
	return items, nil
}

func (s *MemoryStore) Get(ctx context.Context, resource string, id int64) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[resource][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(it), nil
}

func (s *MemoryStore) Create(ctx context.Context, resource string, fields map[string]any) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[resource]++
	now := time.Now().UTC()
	it := &Item{
		ID:           s.seq[resource],
		Resource:     resource,
		CreatedAt:    now,
		LastModified: now,
	}
	it.Merge(fields)
	s.put(it)
	return clone(it), nil
}

func (s *MemoryStore) Save(ctx context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID > s.seq[item.Resource] {
		s.seq[item.Resource] = item.ID
	}
	s.put(clone(item))
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, resource string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[resource][id]; !ok {
		return ErrNotFound
	}
	delete(s.items[resource], id)
	return nil
}

// put stores it; caller holds s.mu.
func (s *MemoryStore) put(it *Item) {
	m, ok := s.items[it.Resource]
	if !ok {
		m = make(map[int64]*Item)
		s.items[it.Resource] = m
	}
	m[it.ID] = it
}

func clone(it *Item) *Item {
	cp := *it
	cp.Fields = make(map[string]any, len(it.Fields))
	for k, v := range it.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

func sortByID(items []*Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
