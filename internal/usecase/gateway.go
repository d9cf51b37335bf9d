package usecase

import (
	"context"
	"time"

	"lead-manager-telegram-bot/internal/domain"
)

// CRMGateway is the outbound CRM port (Bitrix24 in production). Every call
// is a network round-trip; failures come back as the domain error kinds.
type CRMGateway interface {
	ListNewLeads(ctx context.Context) ([]domain.Lead, error)
	AppendLeadComment(ctx context.Context, leadID, text string) error
	CreateTask(ctx context.Context, leadID, title string, deadline time.Time) (string, error)
}
