// CLAUDE:SUMMARY SQLite persistence: seen-domain recency window, bandit arm state, discovery run log.
// Package store persists the small amount of state that must survive a
// process restart: which candidate domains were already surfaced (and
// when), learned bandit arms, and a log of discovery runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/prospect/dbopen"
	"github.com/hazyhaar/prospect/leads/internal/bandit"
)

// Schema is applied through dbopen.WithSchema when the service opens
// its database.
const Schema = `
CREATE TABLE IF NOT EXISTS seen_domains (
	domain       TEXT PRIMARY KEY,
	last_seen_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bandit_arms (
	segment   TEXT NOT NULL,
	channel   TEXT NOT NULL,
	trials    INTEGER NOT NULL DEFAULT 0,
	successes INTEGER NOT NULL DEFAULT 0,
	last_at   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (segment, channel)
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	queries     INTEGER NOT NULL,
	results     INTEGER NOT NULL,
	candidates  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

// Store wraps the database handle. Timestamps are stored as unix
// seconds; the clock is injectable for tests. Writes run through
// dbopen.RunTx: crawl workers and tool calls share one handle, so a
// SQLITE_BUSY must retry rather than drop state.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a Store over an opened database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock replaces the store clock.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// MarkSeen records that a domain was surfaced now. Upsert keeps the
// most recent sighting.
func (s *Store) MarkSeen(ctx context.Context, domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return fmt.Errorf("store: empty domain")
	}
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO seen_domains (domain, last_seen_at) VALUES (?, ?)
			ON CONFLICT(domain) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
			domain, s.now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("store: mark seen: %w", err)
	}
	return nil
}

// SeenWithin reports whether a domain was surfaced inside the recency
// window.
func (s *Store) SeenWithin(ctx context.Context, domain string, window time.Duration) (bool, error) {
	cutoff := s.now().Add(-window).Unix()
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM seen_domains WHERE domain = ? AND last_seen_at >= ?`,
		strings.ToLower(strings.TrimSpace(domain)), cutoff).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: seen within: %w", err)
	}
	return n > 0, nil
}

// FilterUnseen returns the subset of domains not surfaced within the
// window, preserving input order.
func (s *Store) FilterUnseen(ctx context.Context, domains []string, window time.Duration) ([]string, error) {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		seen, err := s.SeenWithin(ctx, d, window)
		if err != nil {
			return nil, err
		}
		if !seen {
			out = append(out, d)
		}
	}
	return out, nil
}

// SaveArm upserts one bandit arm.
func (s *Store) SaveArm(ctx context.Context, segment, channel string, a bandit.Arm) error {
	var lastAt int64
	if !a.LastAt.IsZero() {
		lastAt = a.LastAt.Unix()
	}
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bandit_arms (segment, channel, trials, successes, last_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(segment, channel) DO UPDATE SET
				trials = excluded.trials,
				successes = excluded.successes,
				last_at = excluded.last_at`,
			segment, channel, a.Trials, a.Successes, lastAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: save arm: %w", err)
	}
	return nil
}

// LoadArms returns all arms for a segment.
func (s *Store) LoadArms(ctx context.Context, segment string) (map[string]bandit.Arm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel, trials, successes, last_at FROM bandit_arms WHERE segment = ?`,
		segment)
	if err != nil {
		return nil, fmt.Errorf("store: load arms: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bandit.Arm)
	for rows.Next() {
		var (
			channel string
			a       bandit.Arm
			lastAt  int64
		)
		if err := rows.Scan(&channel, &a.Trials, &a.Successes, &lastAt); err != nil {
			return nil, fmt.Errorf("store: scan arm: %w", err)
		}
		if lastAt > 0 {
			a.LastAt = time.Unix(lastAt, 0).UTC()
		}
		out[channel] = a
	}
	return out, rows.Err()
}

// Run is one discovery run log entry.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Queries    int           `json:"queries"`
	Results    int           `json:"results"`
	Candidates int           `json:"candidates"`
}

// RecordRun appends a run log entry.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return fmt.Errorf("store: run without id")
	}
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, started_at, duration_ms, queries, results, candidates)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.StartedAt.Unix(), r.Duration.Milliseconds(), r.Queries, r.Results, r.Candidates)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	return nil
}

// RecentRuns lists the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, queries, results, candidates
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			durationMs int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &durationMs, &r.Queries, &r.Results, &r.Candidates); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0).UTC()
		r.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
