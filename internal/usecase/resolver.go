package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lead-manager-telegram-bot/internal/domain"
)

type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeIgnored OutcomeStatus = "ignored"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is what the manager-facing layer reports back after an action
// signal. Reason is human-readable for Ignored and Failed.
type Outcome struct {
	Status OutcomeStatus
	Reason string
	Err    error
}

func applied() Outcome              { return Outcome{Status: OutcomeApplied} }
func ignored(reason string) Outcome { return Outcome{Status: OutcomeIgnored, Reason: reason} }
func failed(err error) Outcome {
	return Outcome{Status: OutcomeFailed, Reason: FailReason(err), Err: err}
}

// ActionResolver turns an inbound action signal into at most one CRM
// mutation, consulting the tracker before and after.
type ActionResolver struct {
	tracker        *AlertTracker
	gateway        CRMGateway
	postponeWindow time.Duration
	logger         *slog.Logger
}

func NewActionResolver(tracker *AlertTracker, gateway CRMGateway, postponeWindow time.Duration, logger *slog.Logger) *ActionResolver {
	return &ActionResolver{
		tracker:        tracker,
		gateway:        gateway,
		postponeWindow: postponeWindow,
		logger:         logger,
	}
}

func (r *ActionResolver) Resolve(ctx context.Context, req domain.ActionRequest, now time.Time) Outcome {
	switch req.Kind {
	case domain.ActionCalled, domain.ActionWrote, domain.ActionPostpone:
	default:
		return ignored("unsupported action")
	}

	rec, ok, err := r.tracker.Record(req.LeadID)
	if err != nil {
		return failed(err)
	}
	if !ok || rec.State() == domain.AlertUnseen {
		return ignored("unknown or unnotified lead")
	}

	res, err := r.tracker.RecordAction(req.LeadID, req.Kind, req.RequestID, now)
	if errors.Is(err, ErrNotNotified) {
		return ignored("unknown or unnotified lead")
	}
	if err != nil {
		return failed(err)
	}
	if res == ActionDuplicate {
		r.logger.Info("duplicate action ignored", "lead_id", req.LeadID, "action", req.Kind, "request_id", req.RequestID)
		return ignored("duplicate action")
	}

	switch req.Kind {
	case domain.ActionCalled:
		err = r.gateway.AppendLeadComment(ctx, req.LeadID, "manager called")
	case domain.ActionWrote:
		err = r.gateway.AppendLeadComment(ctx, req.LeadID, "manager wrote")
	case domain.ActionPostpone:
		_, err = r.gateway.CreateTask(ctx, req.LeadID, fmt.Sprintf("Follow up: %s", rec.LeadTitle), now.Add(r.postponeWindow))
	}
	if err != nil {
		// The Resolved transition stays: retrying a partially applied
		// append would risk a duplicate comment. The manager re-clicks
		// after the dedup window if the CRM write really did not land.
		r.logger.Error("crm action failed", "lead_id", req.LeadID, "action", req.Kind, "error", err)
		return failed(err)
	}

	r.logger.Info("action applied", "lead_id", req.LeadID, "action", req.Kind)
	return applied()
}

func FailReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "lead no longer exists"
	case errors.Is(err, domain.ErrAuth):
		return "CRM rejected the credentials"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "unexpected CRM response"
	case errors.Is(err, domain.ErrTransport):
		return "CRM request failed, try again"
	default:
		return "internal error"
	}
}
