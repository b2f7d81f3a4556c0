package enroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mrcodeacademy/enrollbot/internal/logger"
	"log/slog"
)

// TryEnroll is the only place enrollment rows are created. It opens a
// write transaction (the connection is configured with _txlock=immediate, so
// a second concurrent caller blocks until this one commits or rolls back),
// re-reads the count and limit inside it, and inserts only when a seat is
// free. A count read before the lock was taken is never trusted.
//
// Returns (false, nil) when the group is full, (false, err) when storage
// failed; an error always means no row was inserted.
func (s *Store) TryEnroll(ctx context.Context, req Request) (bool, error) {
	start := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin admission tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var count int
	if err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM enrollments WHERE age_group = ?`, req.AgeGroup); err != nil {
		return false, fmt.Errorf("count inside admission tx: %w", err)
	}

	limit := s.defaultLimit
	err = tx.GetContext(ctx, &limit,
		`SELECT limit_value FROM group_limits WHERE age_group = ?`, req.AgeGroup)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("limit inside admission tx: %w", err)
	}

	if count >= limit {
		logger.SVCEnroll.Info("admission denied",
			slog.String("event", "enroll.denied"),
			slog.String("age_group", req.AgeGroup),
			slog.Int("count", count),
			slog.Int("limit", limit),
			slog.Int64("user_id", req.UserID),
			slog.Duration("duration", logger.Took(start)),
		)
		return false, nil
	}

	createdAt := time.Now().UTC().Format(TimeLayout)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO enrollments (child_full, age_group, phone, tg_user_id, tg_username, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		req.ChildFull, req.AgeGroup,
		nullString(req.Phone), req.UserID, nullString(req.Username), createdAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert enrollment: %w", err)
	}
	id, _ := res.LastInsertId()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit admission tx: %w", err)
	}

	logger.SVCEnroll.Info("admission accepted",
		slog.String("event", "enroll.accepted"),
		slog.String("age_group", req.AgeGroup),
		slog.Int64("enrollment_id", id),
		slog.Int("count", count+1),
		slog.Int("limit", limit),
		slog.Int64("user_id", req.UserID),
		slog.Duration("duration", logger.Took(start)),
	)
	return true, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
