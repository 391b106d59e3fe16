// Package store persists briefs, plans, and iteration records in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fyrsmithlabs/planforge/internal/plan"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = fmt.Errorf("record not found")

// Store manages planforge state in SQLite.
type Store struct {
	DBPath string
	db     *sql.DB
}

// Open opens or creates the database. ":memory:" keeps state in
// process, used by tests and the CLI.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("ensure db dir: %w", err)
		}
		dsn = absPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	store := &Store{DBPath: dsn, db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS briefs (
	id TEXT PRIMARY KEY,
	document_json TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	brief_id TEXT NOT NULL,
	document_json TEXT NOT NULL,
	status TEXT NOT NULL,
	quality_score REAL,
	iteration_count INTEGER NOT NULL,
	generated_at TEXT NOT NULL,
	FOREIGN KEY (brief_id) REFERENCES briefs(id)
);

CREATE INDEX IF NOT EXISTS idx_plans_brief_generated ON plans(brief_id, generated_at);

CREATE TABLE IF NOT EXISTS iteration_records (
	plan_id TEXT NOT NULL,
	iteration INTEGER NOT NULL,
	quality_score REAL,
	regenerated_json TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	PRIMARY KEY (plan_id, iteration)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveBrief inserts or replaces a brief.
func (s *Store) SaveBrief(ctx context.Context, brief plan.ProductBrief) error {
	doc, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("marshal brief: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO briefs (id, document_json, created_at)
		VALUES (?, ?, ?)
	`, brief.BriefID, string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert brief: %w", err)
	}
	return nil
}

// GetBrief retrieves a brief by ID.
func (s *Store) GetBrief(ctx context.Context, briefID string) (*plan.ProductBrief, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document_json FROM briefs WHERE id = ?", briefID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("brief %s: %w", briefID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get brief: %w", err)
	}

	var brief plan.ProductBrief
	if err := json.Unmarshal([]byte(doc), &brief); err != nil {
		return nil, fmt.Errorf("unmarshal brief: %w", err)
	}
	return &brief, nil
}

// ListBriefs returns all brief IDs ordered by creation time, newest
// first.
func (s *Store) ListBriefs(ctx context.Context, limit int) ([]plan.ProductBrief, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_json FROM briefs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}
	defer rows.Close()

	var briefs []plan.ProductBrief
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan brief: %w", err)
		}
		var brief plan.ProductBrief
		if err := json.Unmarshal([]byte(doc), &brief); err != nil {
			return nil, fmt.Errorf("unmarshal brief: %w", err)
		}
		briefs = append(briefs, brief)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate briefs: %w", err)
	}
	return briefs, nil
}

// SavePlan inserts a plan and its iteration records in one
// transaction.
func (s *Store) SavePlan(ctx context.Context, p *plan.MarketingPlan, iterations []plan.IterationRecord) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var score sql.NullFloat64
	if p.QualityScore != nil {
		score = sql.NullFloat64{Float64: *p.QualityScore, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (id, brief_id, document_json, status, quality_score, iteration_count, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.BriefID, string(doc), string(p.Status), score,
		p.IterationCount, p.GeneratedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	for _, rec := range iterations {
		regen, err := json.Marshal(rec.RegeneratedSections)
		if err != nil {
			return fmt.Errorf("marshal iteration record: %w", err)
		}
		var recScore sql.NullFloat64
		if rec.QualityScore != nil {
			recScore = sql.NullFloat64{Float64: *rec.QualityScore, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO iteration_records (plan_id, iteration, quality_score, regenerated_json, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, rec.Iteration, recScore, string(regen),
			rec.StartedAt.UTC().Format(time.RFC3339),
			rec.FinishedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert iteration record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LatestPlan returns the most recently generated plan for a brief.
func (s *Store) LatestPlan(ctx context.Context, briefID string) (*plan.MarketingPlan, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT document_json FROM plans
		WHERE brief_id = ?
		ORDER BY generated_at DESC
		LIMIT 1
	`, briefID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plan for brief %s: %w", briefID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var p plan.MarketingPlan
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return &p, nil
}

// Iterations returns the iteration records for a plan in order.
func (s *Store) Iterations(ctx context.Context, planID string) ([]plan.IterationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT iteration, quality_score, regenerated_json, started_at, finished_at
		FROM iteration_records
		WHERE plan_id = ?
		ORDER BY iteration ASC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("query iteration records: %w", err)
	}
	defer rows.Close()

	var records []plan.IterationRecord
	for rows.Next() {
		var (
			rec       plan.IterationRecord
			score     sql.NullFloat64
			regen     string
			startedAt string
			endedAt   string
		)
		if err := rows.Scan(&rec.Iteration, &score, &regen, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan iteration record: %w", err)
		}
		if score.Valid {
			v := score.Float64
			rec.QualityScore = &v
		}
		if err := json.Unmarshal([]byte(regen), &rec.RegeneratedSections); err != nil {
			return nil, fmt.Errorf("unmarshal iteration record: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		rec.FinishedAt, _ = time.Parse(time.RFC3339, endedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
