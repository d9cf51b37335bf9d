package usecase

import (
	"sort"
	"time"

	"lead-manager-telegram-bot/internal/domain"
)

// DetectExpired filters leads down to those still NEW and older than
// threshold, oldest first. Ties on creation time are broken by id so the
// output is deterministic for equal inputs.
func DetectExpired(leads []domain.Lead, now time.Time, threshold time.Duration) []domain.Lead {
	expired := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Expired(now, threshold) {
			expired = append(expired, l)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		if expired[i].CreatedAt.Equal(expired[j].CreatedAt) {
			return expired[i].ID < expired[j].ID
		}
		return expired[i].CreatedAt.Before(expired[j].CreatedAt)
	})
	return expired
}
