/*
Package sqlite provides a SQLite-backed implementation of the gateway interfaces.

PURPOSE:
  Implements the persistence side of the planning engine (PlanStore,
  CertificationSource, CapacityProvider, AuditLog) using SQLite. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  planning.PlanStore:           Plan entry persistence and lifecycle
  planning.CertificationSource: Due certification reads
  planning.CapacityProvider:    Roster capacity reads
  planning.AuditLog:            Append-only audit trail

ATOMICITY:
  BulkInsert wraps the whole batch in one database transaction. A
  uniqueness violation on any row rolls back every row; the allocator
  trusts nothing partially committed.

KEY TABLES:
  plan_entries:        Renewal plan entries (the engine's output)
  certifications_due:  Due certifications (the engine's input)
  roster_capacity:     Per-period, per-category renewal limits
  plan_audit:          Append-only audit trail

INPUT ORDERING:
  DueWithin orders by expiry date, then pilot, then category. This ordering
  is the allocator's de facto tie-break, so it must be deterministic.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/renewals.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - planning/store.go: Interface definitions and contracts
  - planning/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/skyfleet/renewal-engine/planning"
)

const dateFormat = "2006-01-02"

// Store implements all gateway interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: writes are serialized anyway, and :memory: databases
	// are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Renewal plan entries (engine output)
	CREATE TABLE IF NOT EXISTS plan_entries (
		id TEXT PRIMARY KEY,
		pilot_id TEXT NOT NULL,
		category TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		planned_at TEXT NOT NULL,
		period_code TEXT NOT NULL,
		window_start TEXT NOT NULL,
		window_end TEXT NOT NULL,
		status TEXT NOT NULL,
		priority INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One active plan per due certification
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_due_cert
		ON plan_entries(pilot_id, category, expires_at);

	CREATE INDEX IF NOT EXISTS idx_plan_entries_period
		ON plan_entries(period_code);
	CREATE INDEX IF NOT EXISTS idx_plan_entries_pilot
		ON plan_entries(pilot_id);

	-- Due certifications (engine input)
	CREATE TABLE IF NOT EXISTS certifications_due (
		pilot_id TEXT NOT NULL,
		category TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		PRIMARY KEY (pilot_id, category, expires_at)
	);

	CREATE INDEX IF NOT EXISTS idx_certs_due_expiry
		ON certifications_due(expires_at);

	-- Roster period capacity
	CREATE TABLE IF NOT EXISTS roster_capacity (
		period_code TEXT NOT NULL,
		category TEXT NOT NULL,
		max_count INTEGER NOT NULL,
		PRIMARY KEY (period_code, category)
	);

	-- Audit trail (append-only)
	CREATE TABLE IF NOT EXISTS plan_audit (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		payload_json TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PLAN STORE (planning.PlanStore interface)
// =============================================================================

// BulkInsert writes all entries in one database transaction.
func (s *Store) BulkInsert(ctx context.Context, entries []planning.RenewalPlanEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO plan_entries
		(id, pilot_id, category, expires_at, planned_at, period_code,
		 window_start, window_end, status, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, e := range entries {
		_, err := sqlTx.ExecContext(ctx, query,
			e.ID,
			e.PilotID,
			e.Category,
			e.ExpiresAt.String(),
			e.PlannedAt.String(),
			e.PeriodCode,
			e.WindowStart.String(),
			e.WindowEnd.String(),
			e.Status,
			e.Priority,
			e.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return planning.ErrDuplicatePlan
			}
			return fmt.Errorf("failed to insert plan entry: %w", err)
		}
	}

	return sqlTx.Commit()
}

// List returns entries matching the filter, ordered by planned date.
func (s *Store) List(ctx context.Context, filter planning.PlanFilter) ([]planning.RenewalPlanEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, pilot_id, category, expires_at, planned_at, period_code,
		       window_start, window_end, status, priority, created_at
		FROM plan_entries
		WHERE 1=1
	`
	var args []any
	if filter.PeriodCode != "" {
		query += " AND period_code = ?"
		args = append(args, filter.PeriodCode)
	}
	if filter.PilotID != "" {
		query += " AND pilot_id = ?"
		args = append(args, filter.PilotID)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY planned_at ASC, pilot_id ASC"

	return s.queryEntries(ctx, query, args...)
}

// Get returns one entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*planning.RenewalPlanEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getLocked(ctx, id)
}

func (s *Store) getLocked(ctx context.Context, id string) (*planning.RenewalPlanEntry, error) {
	entries, err := s.queryEntries(ctx, `
		SELECT id, pilot_id, category, expires_at, planned_at, period_code,
		       window_start, window_end, status, priority, created_at
		FROM plan_entries WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, planning.ErrPlanNotFound
	}
	return &entries[0], nil
}

// UpdateStatus applies a lifecycle transition, re-validating the window
// invariant against the stored window when rescheduling.
func (s *Store) UpdateStatus(ctx context.Context, id string, status planning.PlanStatus, plannedAt *planning.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getLocked(ctx, id)
	if err != nil {
		return err
	}

	if !current.Status.CanTransitionTo(status) {
		return &planning.TransitionError{EntryID: id, From: current.Status, To: status}
	}

	newPlanned := current.PlannedAt
	if plannedAt != nil {
		if !current.Window().Contains(*plannedAt) {
			return planning.ErrDateOutsideWindow
		}
		newPlanned = *plannedAt
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE plan_entries SET status = ?, planned_at = ? WHERE id = ?",
		status, newPlanned.String(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan entry: %w", err)
	}
	return nil
}

// ClearAll deletes every plan entry.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM plan_entries")
	if err != nil {
		return 0, fmt.Errorf("failed to clear plan entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]planning.RenewalPlanEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan entries: %w", err)
	}
	defer rows.Close()

	var entries []planning.RenewalPlanEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (planning.RenewalPlanEntry, error) {
	var (
		e           planning.RenewalPlanEntry
		expiresAt   string
		plannedAt   string
		windowStart string
		windowEnd   string
		createdAt   string
	)

	err := rows.Scan(
		&e.ID, &e.PilotID, &e.Category, &expiresAt, &plannedAt, &e.PeriodCode,
		&windowStart, &windowEnd, &e.Status, &e.Priority, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan plan entry: %w", err)
	}

	e.ExpiresAt = parseDate(expiresAt)
	e.PlannedAt = parseDate(plannedAt)
	e.WindowStart = parseDate(windowStart)
	e.WindowEnd = parseDate(windowEnd)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

// =============================================================================
// CERTIFICATION SOURCE (planning.CertificationSource interface)
// =============================================================================

// DueWithin returns certifications expiring on or before cutoff.
// Ordered by expiry, pilot, category so planning runs are deterministic.
func (s *Store) DueWithin(ctx context.Context, cutoff planning.TimePoint) ([]planning.CertificationDue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT pilot_id, category, expires_at
		FROM certifications_due
		WHERE expires_at <= ?
		ORDER BY expires_at ASC, pilot_id ASC, category ASC
	`, cutoff.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query due certifications: %w", err)
	}
	defer rows.Close()

	var out []planning.CertificationDue
	for rows.Next() {
		var c planning.CertificationDue
		var expiresAt string
		if err := rows.Scan(&c.PilotID, &c.Category, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		c.ExpiresAt = parseDate(expiresAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCertification registers a due certification. Idempotent.
func (s *Store) SaveCertification(ctx context.Context, cert planning.CertificationDue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO certifications_due (pilot_id, category, expires_at)
		VALUES (?, ?, ?)
	`, cert.PilotID, cert.Category, cert.ExpiresAt.String())
	if err != nil {
		return fmt.Errorf("failed to save certification: %w", err)
	}
	return nil
}

// =============================================================================
// CAPACITY PROVIDER (planning.CapacityProvider interface)
// =============================================================================

func (s *Store) CapacityFor(ctx context.Context, periodCode string) (planning.CapacityMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, max_count FROM roster_capacity WHERE period_code = ?",
		periodCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query capacity: %w", err)
	}
	defer rows.Close()

	out := make(planning.CapacityMap)
	for rows.Next() {
		var cat planning.Category
		var max int
		if err := rows.Scan(&cat, &max); err != nil {
			return nil, fmt.Errorf("failed to scan capacity: %w", err)
		}
		out[cat] = max
	}
	return out, rows.Err()
}

func (s *Store) Capacities(ctx context.Context) (map[string]planning.CapacityMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT period_code, category, max_count FROM roster_capacity",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query capacities: %w", err)
	}
	defer rows.Close()

	out := make(map[string]planning.CapacityMap)
	for rows.Next() {
		var code string
		var cat planning.Category
		var max int
		if err := rows.Scan(&code, &cat, &max); err != nil {
			return nil, fmt.Errorf("failed to scan capacity: %w", err)
		}
		if out[code] == nil {
			out[code] = make(planning.CapacityMap)
		}
		out[code][cat] = max
	}
	return out, rows.Err()
}

// SaveCapacity sets the capacity for one period and category.
func (s *Store) SaveCapacity(ctx context.Context, periodCode string, cat planning.Category, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO roster_capacity (period_code, category, max_count)
		VALUES (?, ?, ?)
	`, periodCode, cat, max)
	if err != nil {
		return fmt.Errorf("failed to save capacity: %w", err)
	}
	return nil
}

// =============================================================================
// AUDIT LOG (planning.AuditLog interface)
// =============================================================================

func (s *Store) Append(ctx context.Context, entry planning.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payloadJSON, _ := json.Marshal(entry.Payload)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plan_audit (id, at, actor_id, action, payload_json)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.At.Format(time.RFC3339), entry.ActorID, entry.Action, string(payloadJSON))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) Entries(ctx context.Context, limit int) ([]planning.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, at, actor_id, action, payload_json FROM plan_audit ORDER BY at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var out []planning.AuditEntry
	for rows.Next() {
		var e planning.AuditEntry
		var at string
		var actor sql.NullString
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &at, &actor, &e.Action, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			e.At = t
		}
		e.ActorID = actor.String
		if payload.Valid && payload.String != "" {
			json.Unmarshal([]byte(payload.String), &e.Payload)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all tables. Used by scenario loading in dev.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"plan_entries", "certifications_due", "roster_capacity", "plan_audit"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func parseDate(s string) planning.TimePoint {
	t, _ := time.Parse(dateFormat, s)
	return planning.DateOf(t)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
