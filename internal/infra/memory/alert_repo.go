package memory

import (
	"sync"

	"lead-manager-telegram-bot/internal/domain"
)

type AlertRepo struct {
	mu      sync.RWMutex
	records map[string]domain.AlertRecord
}

func NewAlertRepo() *AlertRepo {
	return &AlertRepo{records: make(map[string]domain.AlertRecord)}
}

func (r *AlertRepo) Get(leadID string) (domain.AlertRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[leadID]
	return rec, ok, nil
}

func (r *AlertRepo) Save(rec domain.AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.LeadID] = rec
	return nil
}

func (r *AlertRepo) CountsByAction() (map[domain.ActionKind]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.ActionKind]int, 4)
	for _, rec := range r.records {
		out[rec.LastAction]++
	}
	return out, nil
}
