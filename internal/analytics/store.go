// Package analytics records usage events and maintains per-day aggregates.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/manoa-its/helpdesk-assistant/internal/model"
	"github.com/manoa-its/helpdesk-assistant/pkg/logger"
	"github.com/manoa-its/helpdesk-assistant/pkg/metrics"
)

// ErrNoSummary is returned when no aggregate row exists for a date.
var ErrNoSummary = errors.New("no summary for date")

// hst is the fixed timezone used for all date bucketing. Hawaii does not
// observe daylight saving time.
var hst = time.FixedZone("HST", -10*60*60)

// DateKey buckets a timestamp into the HST calendar day.
func DateKey(t time.Time) string {
	return t.In(hst).Format("2006-01-02")
}

// Store is the relational analytics sink: an append-only event log and one
// mutable aggregate row per calendar day.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (creating if necessary) the sqlite database at path.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite pragmas: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			session_id TEXT NOT NULL,
			quick_action_type TEXT,
			day TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_day ON events(day, type);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, day, type);`,
		`CREATE TABLE IF NOT EXISTS daily_summaries (
			day TEXT PRIMARY KEY,
			total_sessions INTEGER NOT NULL DEFAULT 0,
			unique_sessions INTEGER NOT NULL DEFAULT 0,
			total_messages INTEGER NOT NULL DEFAULT 0,
			quick_action_clicks TEXT NOT NULL DEFAULT '{}',
			completed_sessions INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate analytics schema: %w", err)
		}
	}
	return nil
}

// Record appends an event and updates the daily aggregate for its HST day
// inside one transaction. Counters are mutated with increments, never
// overwritten, so concurrent writers cannot lose updates; the uniqueness
// of the day key makes racing upserts idempotent.
func (s *Store) Record(ctx context.Context, event model.AnalyticsEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	day := DateKey(event.CreatedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin analytics tx: %w", err)
	}
	defer tx.Rollback()

	firstForSession, err := s.isFirstSessionStart(ctx, tx, event, day)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (id, type, session_id, quick_action_type, day, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Type), event.SessionID, event.QuickActionType,
		day, event.CreatedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if err := s.applyToSummary(ctx, tx, event, day, firstForSession); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit analytics tx: %w", err)
	}

	metrics.AnalyticsEventsTotal.WithLabelValues(string(event.Type)).Inc()
	return nil
}

func (s *Store) isFirstSessionStart(ctx context.Context, tx *sql.Tx, event model.AnalyticsEvent, day string) (bool, error) {
	if event.Type != model.EventSessionStart {
		return false, nil
	}
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE session_id = ? AND day = ? AND type = ?`,
		event.SessionID, day, string(model.EventSessionStart),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count session starts: %w", err)
	}
	return n == 0, nil
}

func (s *Store) applyToSummary(ctx context.Context, tx *sql.Tx, event model.AnalyticsEvent, day string, firstForSession bool) error {
	var sessions, unique, messages, completed int
	switch event.Type {
	case model.EventSessionStart:
		sessions = 1
		if firstForSession {
			unique = 1
		}
	case model.EventMessageSent, model.EventMessageReceived:
		messages = 1
	case model.EventSessionCompleted:
		completed = 1
	case model.EventQuickActionClicked:
		// handled below against the JSON tally
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO daily_summaries (day, total_sessions, unique_sessions, total_messages, completed_sessions)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(day) DO UPDATE SET
			total_sessions = total_sessions + excluded.total_sessions,
			unique_sessions = unique_sessions + excluded.unique_sessions,
			total_messages = total_messages + excluded.total_messages,
			completed_sessions = completed_sessions + excluded.completed_sessions`,
		day, sessions, unique, messages, completed,
	); err != nil {
		return fmt.Errorf("upsert daily summary: %w", err)
	}

	if event.Type == model.EventQuickActionClicked {
		if err := s.bumpQuickAction(ctx, tx, day, event.QuickActionType); err != nil {
			return err
		}
	}
	return nil
}

// bumpQuickAction increments one key of the per-day click tally. The
// read-modify-write runs inside the caller's transaction, which serializes
// against the single-writer sqlite connection.
func (s *Store) bumpQuickAction(ctx context.Context, tx *sql.Tx, day, actionType string) error {
	if actionType == "" {
		actionType = "unknown"
	}

	var raw string
	if err := tx.QueryRowContext(ctx,
		`SELECT quick_action_clicks FROM daily_summaries WHERE day = ?`, day,
	).Scan(&raw); err != nil {
		return fmt.Errorf("read quick action clicks: %w", err)
	}

	clicks := map[string]int{}
	if err := json.Unmarshal([]byte(raw), &clicks); err != nil {
		s.logger.Warn("resetting undecodable quick action tally")
		clicks = map[string]int{}
	}
	clicks[actionType]++

	updated, err := json.Marshal(clicks)
	if err != nil {
		return fmt.Errorf("encode quick action clicks: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE daily_summaries SET quick_action_clicks = ? WHERE day = ?`,
		string(updated), day,
	); err != nil {
		return fmt.Errorf("write quick action clicks: %w", err)
	}
	return nil
}

// Summary returns the aggregate for one HST date. The average is computed
// on read rather than stored, so it is always consistent with the counters.
func (s *Store) Summary(ctx context.Context, day string) (model.DailySummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT day, total_sessions, unique_sessions, total_messages, quick_action_clicks, completed_sessions
		 FROM daily_summaries WHERE day = ?`, day)
	return scanSummary(row)
}

// Range returns aggregates for the inclusive [from, to] date range.
func (s *Store) Range(ctx context.Context, from, to string) ([]model.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, total_sessions, unique_sessions, total_messages, quick_action_clicks, completed_sessions
		 FROM daily_summaries WHERE day >= ? AND day <= ? ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query summary range: %w", err)
	}
	defer rows.Close()

	summaries := []model.DailySummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (model.DailySummary, error) {
	var summary model.DailySummary
	var clicksRaw string
	err := row.Scan(
		&summary.Date,
		&summary.TotalSessions,
		&summary.UniqueSessions,
		&summary.TotalMessages,
		&clicksRaw,
		&summary.CompletedSessions,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailySummary{}, ErrNoSummary
	}
	if err != nil {
		return model.DailySummary{}, fmt.Errorf("scan daily summary: %w", err)
	}

	summary.QuickActionClicks = map[string]int{}
	_ = json.Unmarshal([]byte(clicksRaw), &summary.QuickActionClicks)

	if summary.TotalSessions > 0 {
		summary.AvgMessagesPerSession = float64(summary.TotalMessages) / float64(summary.TotalSessions)
	}
	return summary, nil
}

// Ping reports store reachability for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
