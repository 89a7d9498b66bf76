package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory store implementation for testing.
type MemoryStore struct {
	boards  *MemoryBoardRepository
	history *MemoryHistoryRepository
	runs    *MemoryRunRepository
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		boards:  &MemoryBoardRepository{boards: make(map[string]*BoardRecord)},
		history: &MemoryHistoryRepository{byDate: make(map[string]map[string]struct{})},
		runs:    &MemoryRunRepository{},
	}
}

func (s *MemoryStore) Boards() BoardRepository     { return s.boards }
func (s *MemoryStore) History() HistoryRepository  { return s.history }
func (s *MemoryStore) Runs() RunRepository         { return s.runs }
func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                { return nil }

// MemoryBoardRepository is an in-memory board-record repository.
type MemoryBoardRepository struct {
	mu     sync.RWMutex
	boards map[string]*BoardRecord
}

func (r *MemoryBoardRepository) Store(ctx context.Context, b *BoardRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	clone := *b
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}

	// Enforce the one-record-per-date invariant the SQLite schema gives
	// us via a UNIQUE constraint.
	for id, existing := range r.boards {
		if existing.Date == b.Date && id != b.ID {
			delete(r.boards, id)
		}
	}
	r.boards[clone.ID] = &clone
	return nil
}

func (r *MemoryBoardRepository) Get(ctx context.Context, id string) (*BoardRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.boards[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *MemoryBoardRepository) GetByDate(ctx context.Context, date string) (*BoardRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.boards {
		if b.Date == date {
			clone := *b
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryBoardRepository) List(ctx context.Context, filter BoardFilter) ([]*BoardSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*BoardSummary
	for _, b := range r.boards {
		if filter.FromDate != "" && b.Date < filter.FromDate {
			continue
		}
		if filter.ToDate != "" && b.Date > filter.ToDate {
			continue
		}
		result = append(result, &BoardSummary{
			ID: b.ID, Date: b.Date, Rows: b.Rows, Cols: b.Cols, CreatedAt: b.CreatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })

	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

func (r *MemoryBoardRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.boards[id]; !ok {
		return ErrNotFound
	}
	delete(r.boards, id)
	return nil
}

// MemoryHistoryRepository is an in-memory rolling-history repository.
type MemoryHistoryRepository struct {
	mu     sync.RWMutex
	byDate map[string]map[string]struct{}
}

func (r *MemoryHistoryRepository) RecordWords(ctx context.Context, date string, words []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	r.byDate[date] = set
	return nil
}

func (r *MemoryHistoryRepository) DropDate(ctx context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byDate, date)
	return nil
}

func (r *MemoryHistoryRepository) LoadWindow(ctx context.Context, windowStart, target string) ([]HistoryWord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []HistoryWord
	for date, words := range r.byDate {
		if date < windowStart || date >= target {
			continue
		}
		for w := range words {
			out = append(out, HistoryWord{Date: date, Word: w})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Word < out[j].Word
	})
	return out, nil
}

// MemoryRunRepository is an in-memory generation-run repository.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs []*GenerationRun
}

func (r *MemoryRunRepository) Store(ctx context.Context, run *GenerationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	clone := *run
	r.runs = append(r.runs, &clone)
	return nil
}

func (r *MemoryRunRepository) List(ctx context.Context, limit int) ([]*GenerationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*GenerationRun, len(r.runs))
	copy(out, r.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
