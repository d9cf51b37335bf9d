package usecase

import (
	"context"
	"log/slog"
	"time"
)

// AlertSender delivers one alert payload to the manager (implemented by
// the Telegram adapter).
type AlertSender interface {
	SendAlert(chatID int64, p NotificationPayload) error
}

// CycleStat summarizes one detection cycle.
type CycleStat struct {
	Detected  int
	Notified  int
	Failed    int
	CreatedAt time.Time
}

type CycleStatRepository interface {
	Save(stat CycleStat) error
	ListRecent(n int) ([]CycleStat, error)
}

// LeadWatcher runs detection cycles: pull NEW leads from the CRM, filter
// to expired ones, alert the manager about each and mark it notified.
type LeadWatcher struct {
	gateway   CRMGateway
	tracker   *AlertTracker
	sender    AlertSender
	stats     CycleStatRepository
	chatID    int64
	threshold time.Duration
	quiet     time.Duration
	logger    *slog.Logger
}

func NewLeadWatcher(gateway CRMGateway, tracker *AlertTracker, sender AlertSender, stats CycleStatRepository, chatID int64, threshold, quiet time.Duration, logger *slog.Logger) *LeadWatcher {
	return &LeadWatcher{
		gateway:   gateway,
		tracker:   tracker,
		sender:    sender,
		stats:     stats,
		chatID:    chatID,
		threshold: threshold,
		quiet:     quiet,
		logger:    logger,
	}
}

// CheckOnce runs a single detection cycle. A gateway failure aborts the
// whole cycle before any notification goes out; per-lead failures are
// counted and the cycle continues. A lead is marked notified only after
// its alert was actually sent, so a failed send is retried next cycle.
func (w *LeadWatcher) CheckOnce(ctx context.Context, now time.Time) (CycleStat, error) {
	leads, err := w.gateway.ListNewLeads(ctx)
	if err != nil {
		return CycleStat{}, err
	}

	expired := DetectExpired(leads, now, w.threshold)
	stat := CycleStat{Detected: len(expired), CreatedAt: now}

	for _, lead := range expired {
		notify, err := w.tracker.ShouldNotify(lead.ID, now, w.quiet)
		if err != nil {
			w.logger.Error("alert state lookup failed", "lead_id", lead.ID, "error", err)
			stat.Failed++
			continue
		}
		if !notify {
			continue
		}
		if err := w.sender.SendAlert(w.chatID, FormatNotification(lead, now)); err != nil {
			w.logger.Error("alert send failed", "lead_id", lead.ID, "error", err)
			stat.Failed++
			continue
		}
		if err := w.tracker.RecordNotified(lead, now); err != nil {
			w.logger.Error("record notified failed", "lead_id", lead.ID, "error", err)
			stat.Failed++
			continue
		}
		stat.Notified++
	}

	if err := w.stats.Save(stat); err != nil {
		// stats are advisory, the cycle result stands either way
		w.logger.Error("cycle stat save failed", "error", err)
	}
	w.logger.Info("detection cycle done", "detected", stat.Detected, "notified", stat.Notified, "failed", stat.Failed)
	return stat, nil
}

// Run polls on a fixed interval until ctx is cancelled.
func (w *LeadWatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.CheckOnce(ctx, time.Now()); err != nil {
				w.logger.Error("detection cycle failed", "error", err)
			}
		}
	}
}
