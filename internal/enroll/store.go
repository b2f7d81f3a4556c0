package enroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mrcodeacademy/enrollbot/internal/logger"
	"log/slog"
)

// Store reads and writes enrollments and group limits. All admission writes
// go through TryEnroll in admission.go; everything here is read-only or
// idempotent seeding.
type Store struct {
	db           *sqlx.DB
	defaultLimit int
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB, defaultLimit int) *Store {
	return &Store{db: db, defaultLimit: defaultLimit}
}

// SeedLimits inserts a group_limits row for every known age group that does
// not have one yet, using the configured default. Safe to call on every start.
func (s *Store) SeedLimits(ctx context.Context) error {
	seeded := 0
	for _, group := range Groups {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO group_limits (age_group, limit_value)
			 SELECT ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM group_limits WHERE age_group = ?)`,
			group, s.defaultLimit, group,
		)
		if err != nil {
			return fmt.Errorf("seed limit for %s: %w", group, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seeded++
		}
	}
	logger.SEED.Info("group limits seeded",
		slog.String("event", "db.seed"),
		slog.Int("groups", len(Groups)),
		slog.Int("inserted", seeded),
		slog.Int("limit", s.defaultLimit),
	)
	return nil
}

// CountEnrollments returns the number of accepted enrollments for a group.
func (s *Store) CountEnrollments(ctx context.Context, group string) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM enrollments WHERE age_group = ?`, group); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// GroupLimit returns the configured seat limit for a group, falling back to
// the process default when no row exists.
func (s *Store) GroupLimit(ctx context.Context, group string) (int, error) {
	var limit int
	err := s.db.GetContext(ctx, &limit,
		`SELECT limit_value FROM group_limits WHERE age_group = ?`, group)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaultLimit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get group limit: %w", err)
	}
	return limit, nil
}

// Remaining returns limit minus count for a group, clamped at zero. The value
// is advisory: it is only used for display, and TryEnroll re-checks inside
// its transaction.
func (s *Store) Remaining(ctx context.Context, group string) (int, error) {
	count, err := s.CountEnrollments(ctx, group)
	if err != nil {
		return 0, err
	}
	limit, err := s.GroupLimit(ctx, group)
	if err != nil {
		return 0, err
	}
	if limit <= count {
		return 0, nil
	}
	return limit - count, nil
}

// RemainingAll returns advisory remaining seats for every known group.
func (s *Store) RemainingAll(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(Groups))
	for _, group := range Groups {
		left, err := s.Remaining(ctx, group)
		if err != nil {
			return nil, err
		}
		out[group] = left
	}
	return out, nil
}

// AnySeatsLeft reports whether at least one group still has a free seat.
func AnySeatsLeft(remaining map[string]int) bool {
	for _, left := range remaining {
		if left > 0 {
			return true
		}
	}
	return false
}
