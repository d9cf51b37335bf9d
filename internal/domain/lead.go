package domain

import "time"

type LeadStatus string

// Only NEW matters for expiration detection; everything else is resolved.
const StatusNew LeadStatus = "NEW"

type Lead struct {
	ID        string
	Title     string
	Name      string
	Phone     string
	Status    LeadStatus
	CreatedAt time.Time
}

// Expired reports whether the lead is still NEW and has been waiting at
// least threshold since creation. The boundary is inclusive.
func (l Lead) Expired(now time.Time, threshold time.Duration) bool {
	return l.Status == StatusNew && now.Sub(l.CreatedAt) >= threshold
}

// Task is a CRM follow-up task, created when the manager postpones a lead.
type Task struct {
	LeadID   string
	Title    string
	Deadline time.Time
}
