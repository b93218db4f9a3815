/*
Package sqlite provides a SQLite-backed store for incentive policies and
computed allocation sets.

PURPOSE:
  The allocation engine is a pure function; this store is the thin
  boundary around it. It keeps policy documents (with exactly one active
  policy per publication type / conference sub-type) and the allocation
  sets produced at final submit time, so the approval workflow can read
  back what was computed.

KEY TABLES:
  policies:         Policy documents (factory JSON), versioned, one active per key
  allocation_sets:  One row per computed set (pool, totals, condition)
  allocations:      Per-author rows of a set

ACTIVE POLICY INVARIANT:
  SavePolicy with Active=true deactivates every other policy for the
  same (publication_type, conference_sub_type) in the same database
  transaction. idx_policies_one_active enforces it at the schema level.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, as SQLite allows a single writer.

USAGE:
  store, err := sqlite.New("./data/incentives.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  rec, err := store.GetActivePolicy(ctx, incentive.PolicyKey{PublicationType: incentive.Book})

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - factory/policy.go: ConfigJSON format
  - api/handlers.go: Uses this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/research-incentives/incentive"
)

// Store implements policy and allocation persistence using SQLite.
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
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

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
	-- Policies
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		publication_type TEXT NOT NULL,
		conference_sub_type TEXT NOT NULL DEFAULT '',
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		active INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_policies_key
		ON policies(publication_type, conference_sub_type);

	-- Exactly one active policy per publication type / conference sub-type
	CREATE UNIQUE INDEX IF NOT EXISTS idx_policies_one_active
		ON policies(publication_type, conference_sub_type)
		WHERE active = 1;

	-- Allocation sets (one per final submit)
	CREATE TABLE IF NOT EXISTS allocation_sets (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL,
		policy_id TEXT,
		publication_type TEXT NOT NULL,
		conference_sub_type TEXT NOT NULL DEFAULT '',
		split_mode TEXT NOT NULL DEFAULT '',
		pool_incentive TEXT NOT NULL,
		pool_points TEXT NOT NULL,
		total_incentive INTEGER NOT NULL,
		total_points INTEGER NOT NULL,
		forfeited_percentage TEXT NOT NULL,
		pool_resolved INTEGER NOT NULL,
		condition TEXT NOT NULL DEFAULT '',
		computed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocation_sets_submission
		ON allocation_sets(submission_id, computed_at DESC);

	-- Per-author rows
	CREATE TABLE IF NOT EXISTS allocations (
		set_id TEXT NOT NULL REFERENCES allocation_sets(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		author_name TEXT NOT NULL,
		affiliation TEXT,
		email TEXT,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		role TEXT NOT NULL,
		percentage TEXT NOT NULL,
		points_percentage TEXT NOT NULL,
		incentive INTEGER NOT NULL,
		points INTEGER NOT NULL,
		PRIMARY KEY (set_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// POLICY STORE
// =============================================================================

// PolicyRecord is a stored policy with its JSON config.
type PolicyRecord struct {
	ID                string
	Name              string
	PublicationType   string
	ConferenceSubType string
	ConfigJSON        string
	Version           int
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Key returns the active-policy slot of the record.
func (p PolicyRecord) Key() incentive.PolicyKey {
	return incentive.PolicyKey{
		PublicationType:   incentive.PublicationType(p.PublicationType),
		ConferenceSubType: incentive.ConferenceSubType(p.ConferenceSubType),
	}
}

const policyColumns = "id, name, publication_type, conference_sub_type, config_json, version, active, created_at, updated_at"

// SavePolicy inserts or updates a policy. When policy.Active is set, every
// other policy for the same key is deactivated first.
func (s *Store) SavePolicy(ctx context.Context, policy PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if policy.Active {
		_, err := sqlTx.ExecContext(ctx,
			"UPDATE policies SET active = 0 WHERE publication_type = ? AND conference_sub_type = ? AND id != ?",
			policy.PublicationType, policy.ConferenceSubType, policy.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to deactivate policies: %w", err)
		}
	}

	query := `
		INSERT INTO policies (` + policyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			publication_type = excluded.publication_type,
			conference_sub_type = excluded.conference_sub_type,
			config_json = excluded.config_json,
			active = excluded.active,
			version = policies.version + 1,
			updated_at = excluded.updated_at
	`

	version := policy.Version
	if version == 0 {
		version = 1
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = sqlTx.ExecContext(ctx, query,
		policy.ID, policy.Name, policy.PublicationType, policy.ConferenceSubType, policy.ConfigJSON,
		version, boolToInt(policy.Active), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}

	return sqlTx.Commit()
}

// GetPolicy retrieves a policy by ID. Returns nil, nil when absent.
func (s *Store) GetPolicy(ctx context.Context, id string) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+policyColumns+" FROM policies WHERE id = ?", id)
	return scanPolicy(row)
}

// GetActivePolicy returns the active policy for key, or nil, nil.
func (s *Store) GetActivePolicy(ctx context.Context, key incentive.PolicyKey) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+policyColumns+" FROM policies WHERE publication_type = ? AND conference_sub_type = ? AND active = 1",
		string(key.PublicationType), string(key.ConferenceSubType),
	)
	return scanPolicy(row)
}

// ListPolicies returns all policies.
func (s *Store) ListPolicies(ctx context.Context) ([]PolicyRecord, error) {
	return s.queryPolicies(ctx, "SELECT "+policyColumns+" FROM policies ORDER BY publication_type, conference_sub_type, name")
}

// ListActivePolicies returns one record per active slot.
func (s *Store) ListActivePolicies(ctx context.Context) ([]PolicyRecord, error) {
	return s.queryPolicies(ctx, "SELECT "+policyColumns+" FROM policies WHERE active = 1 ORDER BY publication_type, conference_sub_type")
}

func (s *Store) queryPolicies(ctx context.Context, query string, args ...any) ([]PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []PolicyRecord
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

// DeletePolicy removes a policy.
func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM policies WHERE id = ?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row scanner) (*PolicyRecord, error) {
	var p PolicyRecord
	var active int
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.PublicationType, &p.ConferenceSubType, &p.ConfigJSON,
		&p.Version, &active, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan policy: %w", err)
	}

	p.Active = active == 1
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

// AllocationSetRecord is a persisted incentive.AllocationSet.
type AllocationSetRecord struct {
	ID                  string
	SubmissionID        string
	PolicyID            string
	PublicationType     string
	ConferenceSubType   string
	SplitMode           string
	PoolIncentive       decimal.Decimal
	PoolPoints          decimal.Decimal
	TotalIncentive      int64
	TotalPoints         int64
	ForfeitedPercentage decimal.Decimal
	PoolResolved        bool
	Condition           string
	ComputedAt          time.Time
	Allocations         []AllocationRecord
}

// AllocationRecord is one author's persisted allocation.
type AllocationRecord struct {
	Position         int
	AuthorName       string
	Affiliation      string
	Email            string
	Category         string
	Kind             string
	Role             string
	Percentage       decimal.Decimal
	PointsPercentage decimal.Decimal
	Incentive        int64
	Points           int64
}

// NewAllocationSetRecord snapshots an engine result for persistence.
func NewAllocationSetRecord(submissionID, policyID string, set incentive.AllocationSet) AllocationSetRecord {
	rec := AllocationSetRecord{
		ID:                  uuid.NewString(),
		SubmissionID:        submissionID,
		PolicyID:            policyID,
		PublicationType:     string(set.PublicationType),
		ConferenceSubType:   string(set.ConferenceSubType),
		SplitMode:           string(set.Split),
		PoolIncentive:       set.Pool.Incentive,
		PoolPoints:          set.Pool.Points,
		TotalIncentive:      set.TotalIncentive,
		TotalPoints:         set.TotalPoints,
		ForfeitedPercentage: set.ForfeitedPercentage,
		PoolResolved:        set.PoolResolved,
		Condition:           string(set.Condition),
		ComputedAt:          time.Now().UTC(),
	}
	for _, a := range set.Allocations {
		rec.Allocations = append(rec.Allocations, AllocationRecord{
			Position:         a.Position,
			AuthorName:       a.Author.Name,
			Affiliation:      a.Author.Affiliation,
			Email:            a.Author.Email,
			Category:         string(a.Author.Category),
			Kind:             string(a.Author.Kind),
			Role:             string(a.Author.Role),
			Percentage:       a.Percentage,
			PointsPercentage: a.PointsPercentage,
			Incentive:        a.Incentive,
			Points:           a.Points,
		})
	}
	return rec
}

// SaveAllocationSet writes the set and its rows atomically.
func (s *Store) SaveAllocationSet(ctx context.Context, rec AllocationSetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ComputedAt.IsZero() {
		rec.ComputedAt = time.Now().UTC()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO allocation_sets
		(id, submission_id, policy_id, publication_type, conference_sub_type, split_mode,
		 pool_incentive, pool_points, total_incentive, total_points, forfeited_percentage,
		 pool_resolved, condition, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SubmissionID, nullString(rec.PolicyID), rec.PublicationType, rec.ConferenceSubType,
		rec.SplitMode, rec.PoolIncentive.String(), rec.PoolPoints.String(), rec.TotalIncentive,
		rec.TotalPoints, rec.ForfeitedPercentage.String(), boolToInt(rec.PoolResolved), rec.Condition,
		rec.ComputedAt.UTC().Format(computedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save allocation set: %w", err)
	}

	for _, a := range rec.Allocations {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO allocations
			(set_id, position, author_name, affiliation, email, category, kind, role,
			 percentage, points_percentage, incentive, points)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, a.Position, a.AuthorName, nullString(a.Affiliation), nullString(a.Email),
			a.Category, a.Kind, a.Role, a.Percentage.String(), a.PointsPercentage.String(),
			a.Incentive, a.Points,
		)
		if err != nil {
			return fmt.Errorf("failed to save allocation row %d: %w", a.Position, err)
		}
	}

	return sqlTx.Commit()
}

// computedAtLayout is fixed width so computed_at sorts as text.
const computedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

const allocationSetColumns = `id, submission_id, policy_id, publication_type, conference_sub_type, split_mode,
	pool_incentive, pool_points, total_incentive, total_points, forfeited_percentage,
	pool_resolved, condition, computed_at`

// GetLatestAllocationSet returns the most recent set for a submission, or nil, nil.
func (s *Store) GetLatestAllocationSet(ctx context.Context, submissionID string) (*AllocationSetRecord, error) {
	sets, err := s.queryAllocationSets(ctx,
		"SELECT "+allocationSetColumns+" FROM allocation_sets WHERE submission_id = ? ORDER BY computed_at DESC LIMIT 1",
		submissionID,
	)
	if err != nil || len(sets) == 0 {
		return nil, err
	}
	return &sets[0], nil
}

// ListAllocationSets returns every set for a submission, newest first.
func (s *Store) ListAllocationSets(ctx context.Context, submissionID string) ([]AllocationSetRecord, error) {
	return s.queryAllocationSets(ctx,
		"SELECT "+allocationSetColumns+" FROM allocation_sets WHERE submission_id = ? ORDER BY computed_at DESC",
		submissionID,
	)
}

func (s *Store) queryAllocationSets(ctx context.Context, query string, args ...any) ([]AllocationSetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation sets: %w", err)
	}

	var sets []AllocationSetRecord
	for rows.Next() {
		var r AllocationSetRecord
		var policyID sql.NullString
		var poolIncentive, poolPoints, forfeited, computedAt string
		var resolved int
		if err := rows.Scan(&r.ID, &r.SubmissionID, &policyID, &r.PublicationType, &r.ConferenceSubType,
			&r.SplitMode, &poolIncentive, &poolPoints, &r.TotalIncentive, &r.TotalPoints, &forfeited,
			&resolved, &r.Condition, &computedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan allocation set: %w", err)
		}
		r.PolicyID = policyID.String
		r.PoolIncentive = parseDecimal(poolIncentive)
		r.PoolPoints = parseDecimal(poolPoints)
		r.ForfeitedPercentage = parseDecimal(forfeited)
		r.PoolResolved = resolved == 1
		r.ComputedAt, _ = time.Parse(computedAtLayout, computedAt)
		sets = append(sets, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows are loaded after the set cursor is closed: :memory: stores run
	// on a single connection.
	for i := range sets {
		allocations, err := s.loadAllocations(ctx, sets[i].ID)
		if err != nil {
			return nil, err
		}
		sets[i].Allocations = allocations
	}
	return sets, nil
}

func (s *Store) loadAllocations(ctx context.Context, setID string) ([]AllocationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, author_name, affiliation, email, category, kind, role,
		       percentage, points_percentage, incentive, points
		FROM allocations WHERE set_id = ? ORDER BY position`, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var out []AllocationRecord
	for rows.Next() {
		var a AllocationRecord
		var affiliation, email sql.NullString
		var pct, pointsPct string
		if err := rows.Scan(&a.Position, &a.AuthorName, &affiliation, &email, &a.Category, &a.Kind,
			&a.Role, &pct, &pointsPct, &a.Incentive, &a.Points); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.Affiliation = affiliation.String
		a.Email = email.String
		a.Percentage = parseDecimal(pct)
		a.PointsPercentage = parseDecimal(pointsPct)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"allocations", "allocation_sets", "policies"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
