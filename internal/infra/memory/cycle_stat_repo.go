package memory

import (
	"sync"
	"time"

	"lead-manager-telegram-bot/internal/usecase"
)

type CycleStatRepo struct {
	mu    sync.RWMutex
	stats []usecase.CycleStat
}

func NewCycleStatRepo() *CycleStatRepo {
	return &CycleStatRepo{stats: make([]usecase.CycleStat, 0, 32)}
}

func (r *CycleStatRepo) Save(stat usecase.CycleStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = time.Now()
	}
	r.stats = append(r.stats, stat)
	return nil
}

// ListRecent returns the last n stats, newest first.
func (r *CycleStatRepo) ListRecent(n int) ([]usecase.CycleStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.stats) {
		n = len(r.stats)
	}
	res := make([]usecase.CycleStat, 0, n)
	for i := len(r.stats) - 1; i >= 0 && len(res) < n; i-- {
		res = append(res, r.stats[i])
	}
	return res, nil
}
