package memory

import (
	"context"
	"sort"
	"sync"

	"musicstore/domain/core/entities"
)

type ActionLogRepository struct {
	mu      sync.Mutex
	entries []entities.ActionLog
}

func NewActionLogRepository() *ActionLogRepository {
	return &ActionLogRepository{}
}

func (r *ActionLogRepository) Append(ctx context.Context, entry *entities.ActionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *ActionLogRepository) List(ctx context.Context) ([]entities.ActionLog, error) {
	r.mu.Lock()
	out := make([]entities.ActionLog, len(r.entries))
	for i, e := range r.entries {
		out[len(out)-1-i] = e
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out, nil
}

func (r *ActionLogRepository) Truncate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}
