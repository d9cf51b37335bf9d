package domain

import "time"

type AlertState string

const (
	AlertUnseen   AlertState = "unseen"
	AlertNotified AlertState = "notified"
	AlertResolved AlertState = "resolved"
)

type ActionKind string

const (
	ActionNone     ActionKind = ""
	ActionCalled   ActionKind = "called"
	ActionWrote    ActionKind = "wrote"
	ActionPostpone ActionKind = "postpone"
)

// AlertRecord tracks one lead through the alert lifecycle. Records are
// created lazily on first notification and never deleted.
type AlertRecord struct {
	LeadID        string
	LeadTitle     string
	NotifiedAt    time.Time
	LastAction    ActionKind
	ActionedAt    time.Time
	LastRequestID string
}

func (r AlertRecord) State() AlertState {
	switch {
	case r.NotifiedAt.IsZero():
		return AlertUnseen
	case r.LastAction == ActionNone:
		return AlertNotified
	default:
		return AlertResolved
	}
}

// ActionRequest is one inbound button press from the messaging channel.
// RequestID comes from the channel's callback identifier and drives
// de-duplication.
type ActionRequest struct {
	LeadID    string
	Kind      ActionKind
	RequestID string
}

type AlertRepository interface {
	Get(leadID string) (AlertRecord, bool, error)
	Save(rec AlertRecord) error
	CountsByAction() (map[ActionKind]int, error)
}
