package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"

	_ "modernc.org/sqlite"
)

const defaultJudgmentLimit = 50

// judgmentRepo implements the judgment audit log on SQLite
type judgmentRepo struct {
	db *sql.DB
}

// NewJudgmentRepo opens (and creates if needed) the judgment database
func NewJudgmentRepo(dbPath string) (repo.JudgmentRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Concurrent gate passes write here; serialize them instead of hitting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS judgments (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			message_id TEXT,
			sender TEXT,
			text TEXT NOT NULL,
			outcome TEXT NOT NULL,
			verdict TEXT NOT NULL,
			raw TEXT,
			cause TEXT,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create judgments table: %w", err)
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_judgments_group_created ON judgments(group_id, created_at)`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_judgments_created ON judgments(created_at)`)

	log.Info().Str("path", dbPath).Msg("judgment database initialized")
	return &judgmentRepo{db: db}, nil
}

// Save stores a judgment
func (r *judgmentRepo) Save(ctx context.Context, j *domain.Judgment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO judgments (id, group_id, message_id, sender, text, outcome, verdict, raw, cause, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.GroupID, j.MessageID, j.Sender, j.Text, string(j.Outcome), j.Verdict.String(),
		j.Raw, j.Cause, j.Latency.Milliseconds(), j.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save judgment: %w", err)
	}
	return nil
}

// List returns judgments newest first
func (r *judgmentRepo) List(ctx context.Context, filter repo.JudgmentFilter) ([]*domain.Judgment, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultJudgmentLimit
	}

	query := `
		SELECT id, group_id, message_id, sender, text, outcome, verdict, raw, cause, latency_ms, created_at
		FROM judgments`
	args := []interface{}{}
	if filter.GroupID != "" {
		query += ` WHERE group_id = ?`
		args = append(args, filter.GroupID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query judgments: %w", err)
	}
	defer rows.Close()

	var judgments []*domain.Judgment
	for rows.Next() {
		var (
			j                           domain.Judgment
			messageID, sender, raw, cse sql.NullString
			outcome, verdict            string
			latencyMs, createdAt        int64
		)
		if err := rows.Scan(&j.ID, &j.GroupID, &messageID, &sender, &j.Text, &outcome, &verdict,
			&raw, &cse, &latencyMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan judgment: %w", err)
		}
		j.MessageID = messageID.String
		j.Sender = sender.String
		j.Raw = raw.String
		j.Cause = cse.String
		j.Outcome = domain.Outcome(outcome)
		if err := j.Verdict.UnmarshalText([]byte(verdict)); err != nil {
			j.Verdict = domain.VerdictIndeterminate
		}
		j.Latency = time.Duration(latencyMs) * time.Millisecond
		j.CreatedAt = time.UnixMilli(createdAt)
		judgments = append(judgments, &j)
	}
	return judgments, rows.Err()
}

// Close closes the database
func (r *judgmentRepo) Close() error {
	return r.db.Close()
}
