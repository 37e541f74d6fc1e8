package audit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/themislegal/themis/internal/db"
	"github.com/themislegal/themis/internal/dispatch"
)

// Store provides persistence for audit entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	success := 0
	if entry.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatch_log (
			id, timestamp, session_id, call_id, tool, args,
			success, error_kind, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.DateTime),
		entry.SessionID,
		entry.CallID,
		entry.Tool,
		entry.Args,
		success,
		entry.ErrKind,
		entry.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// LogUsage records one model call.
func (s *Store) LogUsage(ctx context.Context, u Usage) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_log (id, timestamp, session_id, model, input_tokens, output_tokens)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Timestamp.UTC().Format(time.DateTime), u.SessionID,
		u.Model, u.InputTokens, u.OutputTokens,
	)
	if err != nil {
		return fmt.Errorf("inserting usage entry: %w", err)
	}
	return nil
}

// LogModelCall records one model call's token usage. Best effort: a
// failed insert never blocks the turn.
func (s *Store) LogModelCall(ctx context.Context, sessionID, model string, inputTokens, outputTokens int) {
	err := s.LogUsage(ctx, Usage{
		SessionID:    sessionID,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	})
	if err != nil {
		log.Printf("audit: recording usage: %v", err)
	}
}

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	SessionID string
	Tool      string
	ErrKind   string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Tool != "" {
		clauses = append(clauses, "tool = ?")
		args = append(args, filter.Tool)
	}
	if filter.ErrKind != "" {
		clauses = append(clauses, "error_kind = ?")
		args = append(args, filter.ErrKind)
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT id, timestamp, session_id, call_id, tool, args, success, error_kind, duration_ms FROM dispatch_log"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			ts      string
			success int
		)
		if err := rows.Scan(&e.ID, &ts, &e.SessionID, &e.CallID, &e.Tool,
			&e.Args, &success, &e.ErrKind, &e.DurationMS); err != nil {
			return nil, err
		}
		e.Success = success == 1
		if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
			e.Timestamp = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ToolStats aggregates dispatch counts, failures and mean duration per
// tool over the whole log.
func (s *Store) ToolStats(ctx context.Context) ([]ToolStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tool, COUNT(*), SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), AVG(duration_ms)
		FROM dispatch_log GROUP BY tool ORDER BY tool`)
	if err != nil {
		return nil, fmt.Errorf("querying tool stats: %w", err)
	}
	defer rows.Close()

	var stats []ToolStat
	for rows.Next() {
		var st ToolStat
		if err := rows.Scan(&st.Tool, &st.Calls, &st.Failures, &st.AvgMillis); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM dispatch_log WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// Recorder returns a dispatch recorder that persists each dispatch
// under the session id the dispatcher attached to it. Recording is best
// effort: a failed insert never blocks a dispatch.
func (s *Store) Recorder() dispatch.Recorder {
	return &sessionRecorder{store: s}
}

type sessionRecorder struct {
	store *Store
}

func (r *sessionRecorder) RecordDispatch(ctx context.Context, e dispatch.Entry) {
	err := r.store.Log(ctx, Entry{
		Timestamp:  e.At,
		SessionID:  e.SessionID,
		CallID:     e.CallID,
		Tool:       e.Tool,
		Args:       e.Args,
		Success:    e.Success,
		ErrKind:    e.ErrKind,
		DurationMS: e.Duration.Milliseconds(),
	})
	if err != nil {
		log.Printf("audit: recording dispatch: %v", err)
	}
}
