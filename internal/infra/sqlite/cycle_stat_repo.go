package sqlite

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"lead-manager-telegram-bot/internal/usecase"
)

type CycleStatRepo struct {
	db *sql.DB
}

func NewCycleStatRepo(dsn string) (*CycleStatRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateCycleStats(db); err != nil {
		return nil, err
	}
	return &CycleStatRepo{db: db}, nil
}

func migrateCycleStats(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS cycle_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    detected INTEGER NOT NULL,
    notified INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`)
	return err
}

func (r *CycleStatRepo) Save(stat usecase.CycleStat) error {
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO cycle_stats(detected, notified, failed, created_at) VALUES(?,?,?,?)`,
		stat.Detected, stat.Notified, stat.Failed, stat.CreatedAt)
	return err
}

func (r *CycleStatRepo) ListRecent(n int) ([]usecase.CycleStat, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := r.db.Query(`SELECT detected, notified, failed, created_at FROM cycle_stats ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]usecase.CycleStat, 0, n)
	for rows.Next() {
		var s usecase.CycleStat
		if err := rows.Scan(&s.Detected, &s.Notified, &s.Failed, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
