package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-manager-telegram-bot/internal/domain"
	"lead-manager-telegram-bot/internal/usecase"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data   string
		kind   domain.ActionKind
		leadID string
		ok     bool
	}{
		{"called_12", domain.ActionCalled, "12", true},
		{"wrote_7", domain.ActionWrote, "7", true},
		{"postpone_7", domain.ActionPostpone, "7", true},
		{"unknown_7", domain.ActionNone, "", false},
		{"called_", domain.ActionNone, "", false},
		{"garbage", domain.ActionNone, "", false},
		{"", domain.ActionNone, "", false},
	}
	for _, tc := range cases {
		kind, leadID, ok := parseCallbackData(tc.data)
		assert.Equal(t, tc.ok, ok, tc.data)
		assert.Equal(t, tc.kind, kind, tc.data)
		assert.Equal(t, tc.leadID, leadID, tc.data)
	}
}

func TestActionKeyboardLayout(t *testing.T) {
	p := usecase.FormatNotification(domain.Lead{ID: "5", Name: "Ivan"}, time.Now())

	kb := actionKeyboard(p.Actions)

	// first two actions share a row, postpone sits alone
	require.Len(t, kb.InlineKeyboard, 2)
	require.Len(t, kb.InlineKeyboard[0], 2)
	require.Len(t, kb.InlineKeyboard[1], 1)
	assert.Equal(t, "called_5", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "wrote_5", *kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "postpone_5", *kb.InlineKeyboard[1][0].CallbackData)
}

func TestAppliedText(t *testing.T) {
	assert.Equal(t, "✅ Lead updated: marked as called", appliedText(domain.ActionCalled))
	assert.Equal(t, "✅ Lead updated: marked as wrote", appliedText(domain.ActionWrote))
	assert.Equal(t, "✅ Task created for 2 hours from now", appliedText(domain.ActionPostpone))
}
