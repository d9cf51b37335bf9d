package usecase

import (
	"errors"
	"sync"
	"time"

	"lead-manager-telegram-bot/internal/domain"
)

// DedupWindow is how long a repeated action signal counts as a duplicate
// of the one that resolved the record. A manager re-clicking after the
// window is a deliberate retry and goes through.
const DedupWindow = 10 * time.Minute

// ErrNotNotified is returned by RecordAction when no alert was ever sent
// for the lead, so there is nothing to resolve.
var ErrNotNotified = errors.New("lead has no outstanding alert")

type RecordActionResult int

const (
	ActionAccepted RecordActionResult = iota
	ActionDuplicate
)

// AlertTracker is the per-lead alert state machine: Unseen → Notified →
// Resolved. It is the only shared mutable state in the system; all
// read-modify-write cycles run under a per-lead-id mutex so a detection
// cycle and an inbound click for the same lead cannot interleave.
type AlertTracker struct {
	repo   domain.AlertRepository
	window time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	seenMu sync.Mutex
	seen   map[string]time.Time
}

func NewAlertTracker(repo domain.AlertRepository, window time.Duration) *AlertTracker {
	if window <= 0 {
		window = DedupWindow
	}
	return &AlertTracker{
		repo:   repo,
		window: window,
		locks:  make(map[string]*sync.Mutex),
		seen:   make(map[string]time.Time),
	}
}

func (t *AlertTracker) leadLock(leadID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[leadID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[leadID] = l
	}
	return l
}

// Record returns a copy of the lead's alert record, if any.
func (t *AlertTracker) Record(leadID string) (domain.AlertRecord, bool, error) {
	lock := t.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()
	return t.repo.Get(leadID)
}

// ShouldNotify reports whether a freshly detected expired lead warrants a
// new alert. Leads with an outstanding alert are left alone; resolved
// leads re-arm only after quiet has elapsed since the action, so a
// postponed lead comes back when its follow-up falls due rather than on
// the very next poll.
func (t *AlertTracker) ShouldNotify(leadID string, now time.Time, quiet time.Duration) (bool, error) {
	lock := t.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	rec, ok, err := t.repo.Get(leadID)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	switch rec.State() {
	case domain.AlertNotified:
		return false, nil
	case domain.AlertResolved:
		return now.Sub(rec.ActionedAt) >= quiet, nil
	default:
		return true, nil
	}
}

// RecordNotified transitions Unseen|Resolved → Notified, stamping the
// send time and clearing any previous action.
func (t *AlertTracker) RecordNotified(lead domain.Lead, now time.Time) error {
	lock := t.leadLock(lead.ID)
	lock.Lock()
	defer lock.Unlock()

	return t.repo.Save(domain.AlertRecord{
		LeadID:     lead.ID,
		LeadTitle:  lead.Title,
		NotifiedAt: now,
	})
}

// RecordAction transitions Notified → Resolved. It is the idempotency
// gate: a request id that already produced an accepted action, or the
// same action kind re-applied while still inside the dedup window, is
// reported as a duplicate and must not reach the CRM. A different action,
// or the same one after the window, is a legitimate re-resolution.
func (t *AlertTracker) RecordAction(leadID string, kind domain.ActionKind, requestID string, now time.Time) (RecordActionResult, error) {
	if t.seenRecently(requestID, now) {
		return ActionDuplicate, nil
	}

	lock := t.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	rec, ok, err := t.repo.Get(leadID)
	if err != nil {
		return ActionAccepted, err
	}
	if !ok || rec.State() == domain.AlertUnseen {
		return ActionAccepted, ErrNotNotified
	}
	if rec.State() == domain.AlertResolved && now.Sub(rec.ActionedAt) < t.window {
		// LastRequestID survives a restart, when the seen set is empty
		if (requestID != "" && requestID == rec.LastRequestID) || kind == rec.LastAction {
			return ActionDuplicate, nil
		}
	}

	rec.LastAction = kind
	rec.ActionedAt = now
	rec.LastRequestID = requestID
	if err := t.repo.Save(rec); err != nil {
		return ActionAccepted, err
	}
	t.markSeen(requestID, now)
	return ActionAccepted, nil
}

// seenRecently reports whether requestID was accepted inside the dedup
// window. Expired entries are pruned on the way, so the set stays
// bounded by the click rate within one window.
func (t *AlertTracker) seenRecently(requestID string, now time.Time) bool {
	if requestID == "" {
		return false
	}
	t.seenMu.Lock()
	defer t.seenMu.Unlock()
	for id, at := range t.seen {
		if now.Sub(at) >= t.window {
			delete(t.seen, id)
		}
	}
	at, ok := t.seen[requestID]
	return ok && now.Sub(at) < t.window
}

func (t *AlertTracker) markSeen(requestID string, now time.Time) {
	if requestID == "" {
		return
	}
	t.seenMu.Lock()
	defer t.seenMu.Unlock()
	t.seen[requestID] = now
}
