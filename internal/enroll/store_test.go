package enroll

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrcodeacademy/enrollbot/internal/config"
	"github.com/mrcodeacademy/enrollbot/internal/database"
	"github.com/mrcodeacademy/enrollbot/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(nil)
	os.Exit(m.Run())
}

const testSchema = `
CREATE TABLE IF NOT EXISTS enrollments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    child_full TEXT NOT NULL,
    age_group TEXT NOT NULL,
    phone TEXT,
    tg_user_id INTEGER,
    tg_username TEXT,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS group_limits (
    age_group TEXT PRIMARY KEY,
    limit_value INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_enrollments_age ON enrollments(age_group);
`

// openTestStore returns a Store over an isolated temp-file SQLite database.
func openTestStore(t *testing.T, defaultLimit int) *Store {
	t.Helper()
	cfg := config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "test.db"),
		BusyTimeoutMS:  5000,
		MaxConnections: 4,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Schema creation is declared idempotent; run it twice on purpose.
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewStore(db, defaultLimit)
}

func TestSeedLimitsIdempotent(t *testing.T) {
	s := openTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, s.SeedLimits(ctx))
	require.NoError(t, s.SeedLimits(ctx))

	var rows int
	require.NoError(t, s.db.Get(&rows, `SELECT COUNT(*) FROM group_limits`))
	assert.Equal(t, len(Groups), rows)

	for _, g := range Groups {
		limit, err := s.GroupLimit(ctx, g)
		require.NoError(t, err)
		assert.Equal(t, 10, limit)
	}
}

func TestSeedKeepsExistingLimit(t *testing.T) {
	s := openTestStore(t, 10)
	ctx := context.Background()

	_, err := s.db.Exec(
		`INSERT INTO group_limits (age_group, limit_value) VALUES (?, ?)`,
		GroupJunior, 3)
	require.NoError(t, err)

	require.NoError(t, s.SeedLimits(ctx))

	limit, err := s.GroupLimit(ctx, GroupJunior)
	require.NoError(t, err)
	assert.Equal(t, 3, limit, "seeding must not overwrite an existing limit")
}

func TestGroupLimitFallsBackToDefault(t *testing.T) {
	s := openTestStore(t, 7)
	ctx := context.Background()

	limit, err := s.GroupLimit(ctx, GroupSenior)
	require.NoError(t, err)
	assert.Equal(t, 7, limit)
}

func TestRemainingClampedAtZero(t *testing.T) {
	s := openTestStore(t, 1)
	ctx := context.Background()
	require.NoError(t, s.SeedLimits(ctx))

	// Two rows against a limit of one: remaining must clamp, not go negative.
	for i := 0; i < 2; i++ {
		_, err := s.db.Exec(
			`INSERT INTO enrollments (child_full, age_group, created_at) VALUES (?, ?, ?)`,
			"Ivan Petrov", GroupJunior, "2026-01-01T00:00:00")
		require.NoError(t, err)
	}

	left, err := s.Remaining(ctx, GroupJunior)
	require.NoError(t, err)
	assert.Equal(t, 0, left)
}

func TestRemainingAll(t *testing.T) {
	s := openTestStore(t, 2)
	ctx := context.Background()
	require.NoError(t, s.SeedLimits(ctx))

	_, err := s.db.Exec(
		`INSERT INTO enrollments (child_full, age_group, created_at) VALUES (?, ?, ?)`,
		"Ivan Petrov", GroupSenior, "2026-01-01T00:00:00")
	require.NoError(t, err)

	all, err := s.RemainingAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{GroupJunior: 2, GroupSenior: 1}, all)
	assert.True(t, AnySeatsLeft(all))

	assert.False(t, AnySeatsLeft(map[string]int{GroupJunior: 0, GroupSenior: 0}))
}
