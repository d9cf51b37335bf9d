package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-manager-telegram-bot/internal/domain"
	"lead-manager-telegram-bot/internal/infra/memory"
	"lead-manager-telegram-bot/internal/usecase"
)

func seedStats(t *testing.T) *usecase.ActionStats {
	t.Helper()
	alerts := memory.NewAlertRepo()
	now := time.Now()
	require.NoError(t, alerts.Save(domain.AlertRecord{LeadID: "1", NotifiedAt: now, LastAction: domain.ActionCalled, ActionedAt: now}))
	require.NoError(t, alerts.Save(domain.AlertRecord{LeadID: "2", NotifiedAt: now, LastAction: domain.ActionCalled, ActionedAt: now}))
	require.NoError(t, alerts.Save(domain.AlertRecord{LeadID: "3", NotifiedAt: now, LastAction: domain.ActionPostpone, ActionedAt: now}))
	require.NoError(t, alerts.Save(domain.AlertRecord{LeadID: "4", NotifiedAt: now}))

	cycles := memory.NewCycleStatRepo()
	require.NoError(t, cycles.Save(usecase.CycleStat{Detected: 4, Notified: 4, CreatedAt: now}))

	return usecase.NewActionStats(alerts, cycles)
}

func TestStatsSummary(t *testing.T) {
	stats := seedStats(t)

	out := stats.Summary(5)

	assert.Contains(t, out, "- Called: 2")
	assert.Contains(t, out, "- Postponed: 1")
	assert.Contains(t, out, "- Pending: 1")
	assert.Contains(t, out, "- Wrote: 0")
	assert.Contains(t, out, "detected: 4, notified: 4")
}

func TestStatsGraphDataFixedOrder(t *testing.T) {
	stats := seedStats(t)

	labels, values, err := stats.GraphData()
	require.NoError(t, err)

	assert.Equal(t, []string{"Pending", "Called", "Wrote", "Postponed"}, labels)
	assert.Equal(t, []int{1, 2, 0, 1}, values)
}

func TestStatsCounts(t *testing.T) {
	stats := seedStats(t)

	counts, err := stats.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.ActionCalled])
	assert.Equal(t, 1, counts[domain.ActionNone])
}
