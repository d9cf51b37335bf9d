package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-manager-telegram-bot/internal/domain"
	"lead-manager-telegram-bot/internal/infra/memory"
	"lead-manager-telegram-bot/internal/usecase"
)

type fakeGateway struct {
	mu         sync.Mutex
	leads      []domain.Lead
	listErr    error
	commentErr error
	taskErr    error
	comments   []string
	tasks      []domain.Task
}

func (g *fakeGateway) ListNewLeads(context.Context) ([]domain.Lead, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.leads, nil
}

func (g *fakeGateway) AppendLeadComment(_ context.Context, leadID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.commentErr != nil {
		return g.commentErr
	}
	g.comments = append(g.comments, leadID+":"+text)
	return nil
}

func (g *fakeGateway) CreateTask(_ context.Context, leadID, title string, deadline time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.taskErr != nil {
		return "", g.taskErr
	}
	g.tasks = append(g.tasks, domain.Task{LeadID: leadID, Title: title, Deadline: deadline})
	return "1", nil
}

func (g *fakeGateway) commentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.comments)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newResolver(t *testing.T, gw *fakeGateway) (*usecase.ActionResolver, *usecase.AlertTracker) {
	t.Helper()
	tracker := usecase.NewAlertTracker(memory.NewAlertRepo(), usecase.DedupWindow)
	return usecase.NewActionResolver(tracker, gw, 2*time.Hour, testLogger()), tracker
}

func TestResolveAppliesCalledAction(t *testing.T) {
	gw := &fakeGateway{}
	resolver, tracker := newResolver(t, gw)
	now := time.Now()

	require.NoError(t, tracker.RecordNotified(domain.Lead{ID: "1", Title: "Lead"}, now))

	out := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "1", Kind: domain.ActionCalled, RequestID: "r1"}, now.Add(time.Minute))

	assert.Equal(t, usecase.OutcomeApplied, out.Status)
	assert.Equal(t, []string{"1:manager called"}, gw.comments)
}

func TestResolveDuplicateRequestMakesNoSecondCRMCall(t *testing.T) {
	gw := &fakeGateway{}
	resolver, tracker := newResolver(t, gw)
	now := time.Now()

	require.NoError(t, tracker.RecordNotified(domain.Lead{ID: "1"}, now))

	req := domain.ActionRequest{LeadID: "1", Kind: domain.ActionCalled, RequestID: "r1"}
	first := resolver.Resolve(context.Background(), req, now.Add(time.Minute))
	second := resolver.Resolve(context.Background(), req, now.Add(2*time.Minute))

	assert.Equal(t, usecase.OutcomeApplied, first.Status)
	assert.Equal(t, usecase.OutcomeIgnored, second.Status)
	assert.Equal(t, "duplicate action", second.Reason)
	assert.Equal(t, 1, gw.commentCount())
}

func TestResolveRedeliveredRequestAfterReResolutionIsIgnored(t *testing.T) {
	gw := &fakeGateway{}
	resolver, tracker := newResolver(t, gw)
	now := time.Now()

	require.NoError(t, tracker.RecordNotified(domain.Lead{ID: "1"}, now))

	first := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "1", Kind: domain.ActionCalled, RequestID: "r1"}, now.Add(time.Minute))
	second := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "1", Kind: domain.ActionWrote, RequestID: "r2"}, now.Add(2*time.Minute))
	// r1 comes back after r2 re-resolved the record
	replay := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "1", Kind: domain.ActionCalled, RequestID: "r1"}, now.Add(3*time.Minute))

	assert.Equal(t, usecase.OutcomeApplied, first.Status)
	assert.Equal(t, usecase.OutcomeApplied, second.Status)
	assert.Equal(t, usecase.OutcomeIgnored, replay.Status)
	assert.Equal(t, "duplicate action", replay.Reason)
	assert.Equal(t, []string{"1:manager called", "1:manager wrote"}, gw.comments)
}

func TestResolvePostponeCreatesTaskWithDeadline(t *testing.T) {
	gw := &fakeGateway{}
	resolver, tracker := newResolver(t, gw)
	now := time.Now()

	require.NoError(t, tracker.RecordNotified(domain.Lead{ID: "1", Title: "Ivan"}, now))

	out := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "1", Kind: domain.ActionPostpone, RequestID: "r2"}, now)

	require.Equal(t, usecase.OutcomeApplied, out.Status)
	require.Len(t, gw.tasks, 1)
	assert.Equal(t, "1", gw.tasks[0].LeadID)
	assert.Equal(t, "Follow up: Ivan", gw.tasks[0].Title)
	assert.Equal(t, now.Add(2*time.Hour), gw.tasks[0].Deadline)
	assert.Empty(t, gw.comments)
}

func TestResolveUnknownLeadIsIgnoredWithoutCRMCall(t *testing.T) {
	gw := &fakeGateway{}
	resolver, _ := newResolver(t, gw)

	out := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "99", Kind: domain.ActionCalled, RequestID: "r1"}, time.Now())

	assert.Equal(t, usecase.OutcomeIgnored, out.Status)
	assert.Equal(t, "unknown or unnotified lead", out.Reason)
	assert.Empty(t, gw.comments)
	assert.Empty(t, gw.tasks)
}

func TestResolveGatewayFailureKeepsResolvedState(t *testing.T) {
	gw := &fakeGateway{commentErr: fmt.Errorf("%w: boom", domain.ErrTransport)}
	resolver, tracker := newResolver(t, gw)
	now := time.Now()

	require.NoError(t, tracker.RecordNotified(domain.Lead{ID: "1"}, now))

	out := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "1", Kind: domain.ActionWrote, RequestID: "r1"}, now)

	assert.Equal(t, usecase.OutcomeFailed, out.Status)
	assert.Equal(t, "CRM request failed, try again", out.Reason)
	assert.ErrorIs(t, out.Err, domain.ErrTransport)

	rec, _, err := tracker.Record("1")
	require.NoError(t, err)
	assert.Equal(t, domain.AlertResolved, rec.State())
}

func TestResolveNotFoundReportsLeadGone(t *testing.T) {
	gw := &fakeGateway{commentErr: fmt.Errorf("%w: lead 1", domain.ErrNotFound)}
	resolver, tracker := newResolver(t, gw)
	now := time.Now()

	require.NoError(t, tracker.RecordNotified(domain.Lead{ID: "1"}, now))

	out := resolver.Resolve(context.Background(), domain.ActionRequest{LeadID: "1", Kind: domain.ActionCalled, RequestID: "r1"}, now)

	assert.Equal(t, usecase.OutcomeFailed, out.Status)
	assert.Equal(t, "lead no longer exists", out.Reason)
}
