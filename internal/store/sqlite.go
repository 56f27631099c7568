package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fraudcheck-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS checks (
	id         TEXT PRIMARY KEY,
	ip         TEXT NOT NULL,
	risk_score REAL NOT NULL,
	maxmind_id TEXT,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_checks_ip ON checks(ip);
CREATE INDEX IF NOT EXISTS idx_checks_created_at ON checks(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveCheck(ctx context.Context, ip string, result model.CheckResult) (*model.Check, error) {
	check := &model.Check{
		ID:        uuid.New().String(),
		IP:        ip,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checks (id, ip, risk_score, maxmind_id, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		check.ID, check.IP, result.RiskScore, result.MaxmindID, string(resultJSON), check.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert check")
	}

	return check, nil
}

func (s *SQLiteStore) RecentChecks(ctx context.Context, limit int) ([]model.Check, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ip, result, created_at FROM checks ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query checks")
	}
	defer rows.Close() //nolint:errcheck

	var checks []model.Check
	for rows.Next() {
		var c model.Check
		var resultJSON string
		if err := rows.Scan(&c.ID, &c.IP, &resultJSON, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan check")
		}
		if err := json.Unmarshal([]byte(resultJSON), &c.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		checks = append(checks, c)
	}
	return checks, eris.Wrap(rows.Err(), "sqlite: iterate checks")
}
