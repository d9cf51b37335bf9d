package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"lead-manager-telegram-bot/internal/domain"
)

type AlertRepo struct {
	db *sql.DB
}

func NewAlertRepo(dsn string) (*AlertRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateAlerts(db); err != nil {
		return nil, err
	}
	return &AlertRepo{db: db}, nil
}

func migrateAlerts(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS alerts (
    lead_id TEXT PRIMARY KEY,
    lead_title TEXT NOT NULL DEFAULT '',
    notified_at TIMESTAMP,
    last_action TEXT NOT NULL DEFAULT '',
    actioned_at TIMESTAMP,
    last_request_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_alerts_last_action ON alerts(last_action);
`)
	return err
}

func (r *AlertRepo) Get(leadID string) (domain.AlertRecord, bool, error) {
	row := r.db.QueryRow(`SELECT lead_id, lead_title, notified_at, actioned_at, last_action, last_request_id FROM alerts WHERE lead_id = ?`, leadID)

	var rec domain.AlertRecord
	var notifiedAt, actionedAt sql.NullTime
	var lastAction string
	err := row.Scan(&rec.LeadID, &rec.LeadTitle, &notifiedAt, &actionedAt, &lastAction, &rec.LastRequestID)
	if err == sql.ErrNoRows {
		return domain.AlertRecord{}, false, nil
	}
	if err != nil {
		return domain.AlertRecord{}, false, err
	}
	if notifiedAt.Valid {
		rec.NotifiedAt = notifiedAt.Time
	}
	if actionedAt.Valid {
		rec.ActionedAt = actionedAt.Time
	}
	rec.LastAction = domain.ActionKind(lastAction)
	return rec, true, nil
}

func (r *AlertRepo) Save(rec domain.AlertRecord) error {
	var notifiedAt, actionedAt sql.NullTime
	if !rec.NotifiedAt.IsZero() {
		notifiedAt = sql.NullTime{Time: rec.NotifiedAt, Valid: true}
	}
	if !rec.ActionedAt.IsZero() {
		actionedAt = sql.NullTime{Time: rec.ActionedAt, Valid: true}
	}
	_, err := r.db.Exec(`
INSERT INTO alerts(lead_id, lead_title, notified_at, actioned_at, last_action, last_request_id)
VALUES(?,?,?,?,?,?)
ON CONFLICT(lead_id) DO UPDATE SET
    lead_title = excluded.lead_title,
    notified_at = excluded.notified_at,
    actioned_at = excluded.actioned_at,
    last_action = excluded.last_action,
    last_request_id = excluded.last_request_id`,
		rec.LeadID, rec.LeadTitle, notifiedAt, actionedAt, string(rec.LastAction), rec.LastRequestID)
	return err
}

func (r *AlertRepo) CountsByAction() (map[domain.ActionKind]int, error) {
	rows, err := r.db.Query(`SELECT last_action, COUNT(*) FROM alerts GROUP BY last_action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[domain.ActionKind]int, 4)
	for rows.Next() {
		var action string
		var cnt int
		if err := rows.Scan(&action, &cnt); err != nil {
			return nil, err
		}
		out[domain.ActionKind(action)] = cnt
	}
	return out, rows.Err()
}
