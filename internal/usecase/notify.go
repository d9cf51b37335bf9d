package usecase

import (
	"fmt"
	"strings"
	"time"

	"lead-manager-telegram-bot/internal/domain"
)

// ActionButton is a transport-agnostic action descriptor; the Telegram
// adapter turns it into an inline keyboard button.
type ActionButton struct {
	Kind  domain.ActionKind
	Label string
	Data  string
}

type NotificationPayload struct {
	LeadID  string
	Text    string
	Actions []ActionButton
}

// FormatNotification renders one expired lead into an alert payload.
// Pure and deterministic for a given lead and clock reading.
func FormatNotification(lead domain.Lead, now time.Time) NotificationPayload {
	name := lead.Name
	if strings.TrimSpace(name) == "" {
		name = lead.Title
	}
	if strings.TrimSpace(name) == "" {
		name = "Unknown"
	}
	phone := lead.Phone
	if strings.TrimSpace(phone) == "" {
		phone = "N/A"
	}
	overdue := now.Sub(lead.CreatedAt).Truncate(time.Minute)

	text := fmt.Sprintf("🔹 *%s*\n📞 %s\n⏳ waiting %s", name, phone, overdue)

	return NotificationPayload{
		LeadID: lead.ID,
		Text:   text,
		Actions: []ActionButton{
			{Kind: domain.ActionCalled, Label: "✅ Called", Data: "called_" + lead.ID},
			{Kind: domain.ActionWrote, Label: "💬 Wrote", Data: "wrote_" + lead.ID},
			{Kind: domain.ActionPostpone, Label: "⏳ Postpone for 2 hours", Data: "postpone_" + lead.ID},
		},
	}
}
