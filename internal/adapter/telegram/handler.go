package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	chart "github.com/wcharczuk/go-chart/v2"

	"lead-manager-telegram-bot/internal/domain"
	"lead-manager-telegram-bot/internal/usecase"
)

const crmCallTimeout = 30 * time.Second

type Handler struct {
	bot           *tgbotapi.BotAPI
	watcher       *usecase.LeadWatcher
	resolver      *usecase.ActionResolver
	stats         *usecase.ActionStats
	managerChatID int64
	logger        *slog.Logger
}

func NewHandler(bot *tgbotapi.BotAPI, watcher *usecase.LeadWatcher, resolver *usecase.ActionResolver, stats *usecase.ActionStats, managerChatID int64, logger *slog.Logger) *Handler {
	return &Handler{
		bot:           bot,
		watcher:       watcher,
		resolver:      resolver,
		stats:         stats,
		managerChatID: managerChatID,
		logger:        logger,
	}
}

// Run consumes the update channel until it closes. Each update is handled
// in its own goroutine so one slow CRM call cannot stall the others.
func (h *Handler) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			go h.handleCallback(update.CallbackQuery)
		case update.Message != nil:
			go h.handleMessage(update.Message)
		}
	}
}

func (h *Handler) handleMessage(m *tgbotapi.Message) {
	chatID := m.Chat.ID
	if chatID != h.managerChatID {
		h.logger.Warn("message from unknown chat ignored", "chat_id", chatID)
		return
	}

	switch m.Command() {
	case "start":
		h.sendText(chatID, "👋 Welcome to Lead Manager Bot!\n\nUse /leads to see expired leads\nUse /help for more info")
	case "help":
		h.sendText(chatID, "📚 Available Commands:\n\n/start - Start the bot\n/leads - Get list of expired leads\n/stats - Alert statistics\n/help - Show this help\n\nUse inline buttons to manage leads")
	case "leads":
		h.runCheck(chatID)
	case "stats":
		h.sendText(chatID, h.stats.Summary(5))
		if err := h.sendStatsChart(chatID); err != nil {
			h.logger.Error("stats chart failed", "error", err)
		}
	default:
		h.sendText(chatID, "Unknown command, see /help")
	}
}

// runCheck triggers an on-demand detection cycle; alerts go out as part
// of the cycle, the reply here is just the summary.
func (h *Handler) runCheck(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), crmCallTimeout)
	defer cancel()

	stat, err := h.watcher.CheckOnce(ctx, time.Now())
	if err != nil {
		h.logger.Error("on-demand check failed", "error", err)
		h.sendText(chatID, "❌ Could not fetch leads: "+usecase.FailReason(err))
		return
	}
	if stat.Detected == 0 {
		h.sendText(chatID, "✅ No expired leads. All good!")
		return
	}
	if stat.Notified == 0 {
		h.sendText(chatID, fmt.Sprintf("%d expired leads, all already alerted.", stat.Detected))
		return
	}
	h.sendText(chatID, fmt.Sprintf("Found %d expired leads, sent %d new alerts.", stat.Detected, stat.Notified))
}

func (h *Handler) handleCallback(cb *tgbotapi.CallbackQuery) {
	kind, leadID, ok := parseCallbackData(cb.Data)
	if !ok {
		h.answerCallback(cb.ID, "Unknown action", false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), crmCallTimeout)
	defer cancel()

	req := domain.ActionRequest{LeadID: leadID, Kind: kind, RequestID: cb.ID}
	outcome := h.resolver.Resolve(ctx, req, time.Now())

	switch outcome.Status {
	case usecase.OutcomeApplied:
		h.answerCallback(cb.ID, appliedText(kind), true)
		h.clearKeyboard(cb)
	case usecase.OutcomeIgnored:
		h.answerCallback(cb.ID, "Ignored: "+outcome.Reason, false)
	case usecase.OutcomeFailed:
		h.answerCallback(cb.ID, "❌ "+outcome.Reason, true)
	}
}

func parseCallbackData(data string) (domain.ActionKind, string, bool) {
	prefix, leadID, found := strings.Cut(data, "_")
	if !found || leadID == "" {
		return domain.ActionNone, "", false
	}
	switch prefix {
	case "called":
		return domain.ActionCalled, leadID, true
	case "wrote":
		return domain.ActionWrote, leadID, true
	case "postpone":
		return domain.ActionPostpone, leadID, true
	}
	return domain.ActionNone, "", false
}

func appliedText(kind domain.ActionKind) string {
	switch kind {
	case domain.ActionCalled:
		return "✅ Lead updated: marked as called"
	case domain.ActionWrote:
		return "✅ Lead updated: marked as wrote"
	case domain.ActionPostpone:
		return "✅ Task created for 2 hours from now"
	default:
		return "✅ Done"
	}
}

func (h *Handler) answerCallback(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := h.bot.Request(cfg); err != nil {
		h.logger.Error("answer callback failed", "error", err)
	}
}

// clearKeyboard drops the buttons from an alert message once its action
// has been applied.
func (h *Handler) clearKeyboard(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	markup := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, markup)
	if _, err := h.bot.Request(edit); err != nil {
		h.logger.Error("clear keyboard failed", "error", err)
	}
}

func (h *Handler) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("send message failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendStatsChart(chatID int64) error {
	labels, values, err := h.stats.GraphData()
	if err != nil {
		return err
	}
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		v := values[i]
		if v > maxVal {
			maxVal = v
		}
		bars = append(bars, chart.Value{Value: float64(v), Label: labels[i]})
	}
	// go-chart rejects an all-zero Y range
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    1100,
		Height:   600,
		BarWidth: 56,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return err
	}
	fname := "alerts_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fname, Bytes: buf.Bytes()})
	_, err = h.bot.Send(photo)
	return err
}

// Sender delivers alert payloads for the watcher.
type Sender struct{ bot *tgbotapi.BotAPI }

func NewSender(bot *tgbotapi.BotAPI) *Sender { return &Sender{bot: bot} }

func (s *Sender) SendAlert(chatID int64, p usecase.NotificationPayload) error {
	msg := tgbotapi.NewMessage(chatID, p.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = actionKeyboard(p.Actions)
	_, err := s.bot.Send(msg)
	return err
}

// actionKeyboard lays out the first two actions side by side and the rest
// on their own rows, matching the alert button layout managers expect.
func actionKeyboard(actions []usecase.ActionButton) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(actions))
	var pair []tgbotapi.InlineKeyboardButton
	for i, a := range actions {
		btn := tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data)
		if i < 2 {
			pair = append(pair, btn)
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}
	if len(pair) > 0 {
		rows = append([][]tgbotapi.InlineKeyboardButton{pair}, rows...)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
