package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/infra/storage"
)

// DefaultCapacity bounds the in-memory journal when no capacity is given.
const DefaultCapacity = 500

// MemoryStorage keeps fetch runs in process. Oldest runs are evicted once
// capacity is reached.
type MemoryStorage struct {
	runs     map[string]*domain.FetchRun
	order    []string // insertion order, oldest first
	capacity int
	mu       sync.RWMutex
}

func NewMemoryStorage(capacity int) *MemoryStorage {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStorage{
		runs:     make(map[string]*domain.FetchRun),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------
// Run Repository
// -----------------------------------------------------------------------------

type RunRepo struct {
	store *MemoryStorage
}

func NewRunRepo(store *MemoryStorage) *RunRepo {
	return &RunRepo{store: store}
}

func (r *RunRepo) Save(ctx context.Context, run *domain.FetchRun) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *run
	if _, exists := r.store.runs[run.ID]; !exists {
		r.store.order = append(r.store.order, run.ID)
	}
	r.store.runs[run.ID] = &cp

	for len(r.store.order) > r.store.capacity {
		delete(r.store.runs, r.store.order[0])
		r.store.order = r.store.order[1:]
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, id string) (*domain.FetchRun, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	run, ok := r.store.runs[id]
	if !ok {
		return nil, storage.ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

func (r *RunRepo) Recent(ctx context.Context, limit int) ([]*domain.FetchRun, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	runs := make([]*domain.FetchRun, 0, len(r.store.runs))
	for _, run := range r.store.runs {
		cp := *run
		runs = append(runs, &cp)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *RunRepo) Prune(ctx context.Context, keep int) (int64, error) {
	kept := make(map[string]bool)
	if keep > 0 {
		recent, _ := r.Recent(ctx, keep)
		for _, run := range recent {
			kept[run.ID] = true
		}
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64
	order := r.store.order[:0]
	for _, id := range r.store.order {
		if kept[id] {
			order = append(order, id)
			continue
		}
		delete(r.store.runs, id)
		removed++
	}
	r.store.order = order
	return removed, nil
}
