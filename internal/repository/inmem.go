package repository

import (
	"sync"

	"stock-screener-backend/internal/domain"
)

// InMemoryResultRepository holds the latest scan snapshot. Results are
// ephemeral: after a restart the next scan repopulates them.
type InMemoryResultRepository struct {
	snap domain.ScanSnapshot
	mu   sync.RWMutex
}

func NewInMemoryResultRepository() *InMemoryResultRepository {
	return &InMemoryResultRepository{
		snap: domain.ScanSnapshot{
			Results:  []domain.AnalysisResult{},
			Failures: []domain.ScanFailure{},
		},
	}
}

func (r *InMemoryResultRepository) SaveSnapshot(snap domain.ScanSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Replace wholesale; every scan produces a complete snapshot.
	r.snap = snap
}

func (r *InMemoryResultRepository) GetSnapshot() domain.ScanSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Copy the slices so a caller cannot mutate what the next reader sees.
	// Elements are plain values that get serialized to JSON right away, so
	// a shallow copy is enough.
	snap := r.snap
	snap.Results = make([]domain.AnalysisResult, len(r.snap.Results))
	copy(snap.Results, r.snap.Results)
	snap.Failures = make([]domain.ScanFailure, len(r.snap.Failures))
	copy(snap.Failures, r.snap.Failures)
	return snap
}

// compile-time check
var _ domain.ResultRepository = (*InMemoryResultRepository)(nil)
