package usecase

import (
	"fmt"
	"strings"

	"lead-manager-telegram-bot/internal/domain"
)

// ActionStats aggregates alert outcomes and recent detection cycles for
// the /stats command and the status endpoint.
type ActionStats struct {
	alerts domain.AlertRepository
	cycles CycleStatRepository
	order  []domain.ActionKind
}

func NewActionStats(alerts domain.AlertRepository, cycles CycleStatRepository) *ActionStats {
	return &ActionStats{
		alerts: alerts,
		cycles: cycles,
		order: []domain.ActionKind{
			domain.ActionNone,
			domain.ActionCalled,
			domain.ActionWrote,
			domain.ActionPostpone,
		},
	}
}

func (s *ActionStats) Counts() (map[domain.ActionKind]int, error) {
	return s.alerts.CountsByAction()
}

// Summary renders alert outcomes and the n most recent cycles as text.
func (s *ActionStats) Summary(n int) string {
	counts, err := s.alerts.CountsByAction()
	if err != nil {
		return "Stats unavailable"
	}

	var total int
	for _, c := range counts {
		total += c
	}

	var b strings.Builder
	b.WriteString("Alert outcomes:\n")
	for _, k := range s.order {
		c := counts[k]
		fmt.Fprintf(&b, "- %s: %d %s\n", actionLabel(k), c, bar20(c, total))
	}

	cycles, err := s.cycles.ListRecent(n)
	if err != nil || len(cycles) == 0 {
		return b.String()
	}
	b.WriteString("\nRecent checks:\n")
	for i, c := range cycles {
		fmt.Fprintf(&b, "%d) %s — detected: %d, notified: %d, failed: %d\n",
			i+1, c.CreatedAt.Format("2006-01-02 15:04"), c.Detected, c.Notified, c.Failed)
	}
	return b.String()
}

// GraphData returns labels and values in a fixed order for chart rendering.
func (s *ActionStats) GraphData() ([]string, []int, error) {
	counts, err := s.alerts.CountsByAction()
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(s.order))
	values := make([]int, 0, len(s.order))
	for _, k := range s.order {
		labels = append(labels, actionLabel(k))
		values = append(values, counts[k])
	}
	return labels, values, nil
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func actionLabel(k domain.ActionKind) string {
	switch k {
	case domain.ActionCalled:
		return "Called"
	case domain.ActionWrote:
		return "Wrote"
	case domain.ActionPostpone:
		return "Postponed"
	case domain.ActionNone:
		return "Pending"
	default:
		return string(k)
	}
}
