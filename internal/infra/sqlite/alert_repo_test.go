package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-manager-telegram-bot/internal/domain"
	"lead-manager-telegram-bot/internal/infra/sqlite"
	"lead-manager-telegram-bot/internal/usecase"
)

func testDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestAlertRepoRoundTrip(t *testing.T) {
	repo, err := sqlite.NewAlertRepo(testDSN(t))
	require.NoError(t, err)

	_, ok, err := repo.Get("1")
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now().UTC().Truncate(time.Second)
	rec := domain.AlertRecord{
		LeadID:        "1",
		LeadTitle:     "Website form",
		NotifiedAt:    now,
		LastAction:    domain.ActionCalled,
		ActionedAt:    now.Add(time.Minute),
		LastRequestID: "r1",
	}
	require.NoError(t, repo.Save(rec))

	got, ok, err := repo.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.LeadID, got.LeadID)
	assert.Equal(t, rec.LeadTitle, got.LeadTitle)
	assert.Equal(t, rec.LastAction, got.LastAction)
	assert.Equal(t, rec.LastRequestID, got.LastRequestID)
	assert.True(t, rec.NotifiedAt.Equal(got.NotifiedAt))
	assert.True(t, rec.ActionedAt.Equal(got.ActionedAt))
	assert.Equal(t, domain.AlertResolved, got.State())
}

func TestAlertRepoUpsertOverwrites(t *testing.T) {
	repo, err := sqlite.NewAlertRepo(testDSN(t))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Save(domain.AlertRecord{LeadID: "1", NotifiedAt: now, LastAction: domain.ActionCalled, ActionedAt: now}))
	// re-arm: fresh notification clears the action
	require.NoError(t, repo.Save(domain.AlertRecord{LeadID: "1", NotifiedAt: now.Add(time.Hour)}))

	got, ok, err := repo.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.AlertNotified, got.State())
	assert.Equal(t, domain.ActionNone, got.LastAction)
	assert.True(t, got.ActionedAt.IsZero())
}

func TestAlertRepoCountsByAction(t *testing.T) {
	repo, err := sqlite.NewAlertRepo(testDSN(t))
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, repo.Save(domain.AlertRecord{LeadID: "1", NotifiedAt: now, LastAction: domain.ActionCalled, ActionedAt: now}))
	require.NoError(t, repo.Save(domain.AlertRecord{LeadID: "2", NotifiedAt: now, LastAction: domain.ActionCalled, ActionedAt: now}))
	require.NoError(t, repo.Save(domain.AlertRecord{LeadID: "3", NotifiedAt: now}))

	counts, err := repo.CountsByAction()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.ActionCalled])
	assert.Equal(t, 1, counts[domain.ActionNone])
}

func TestCycleStatRepoListRecentNewestFirst(t *testing.T) {
	repo, err := sqlite.NewCycleStatRepo(testDSN(t))
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(usecase.CycleStat{Detected: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	recent, err := repo.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 2, recent[0].Detected)
	assert.Equal(t, 1, recent[1].Detected)
}
