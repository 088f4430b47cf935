package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATIONS
// Embedded schema migrations, applied in order inside transactions.
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator handles database migrations.
type Migrator struct {
	conn      *Connection
	tableName string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, tableName: "schema_migrations"}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// AppliedMigrations returns versions of all applied migrations.
func (m *Migrator) AppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}
	return applied, rows.Err()
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range Migrations() {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			insertQuery := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}
	return nil
}

// Migrations returns all embedded migrations.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users_competitions",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_challenges_solves",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_weight_retries",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS competitions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	logo_url TEXT NOT NULL DEFAULT '',
	weight DOUBLE PRECISION NOT NULL DEFAULT 0,
	finished_at TIMESTAMP WITH TIME ZONE
);
`

const migration001Down = `
DROP TABLE IF EXISTS competitions;
DROP TABLE IF EXISTS users;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS challenges (
	id TEXT PRIMARY KEY,
	competition_id TEXT NOT NULL REFERENCES competitions(id),
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT 'misc',
	points INTEGER NOT NULL,
	solve_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_challenges_competition ON challenges(competition_id);

CREATE TABLE IF NOT EXISTS solves (
	id BIGSERIAL PRIMARY KEY,
	competition_id TEXT NOT NULL REFERENCES competitions(id),
	challenge_ref TEXT NOT NULL,
	solved_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_solves_competition ON solves(competition_id);
CREATE INDEX IF NOT EXISTS idx_solves_solved_at ON solves(solved_at);

CREATE TABLE IF NOT EXISTS solve_participants (
	solve_id BIGINT NOT NULL REFERENCES solves(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id),
	PRIMARY KEY (solve_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_solve_participants_user ON solve_participants(user_id);
`

const migration002Down = `
DROP TABLE IF EXISTS solve_participants;
DROP TABLE IF EXISTS solves;
DROP TABLE IF EXISTS challenges;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS weight_retries (
	competition_id TEXT PRIMARY KEY REFERENCES competitions(id),
	retry_until TIMESTAMP WITH TIME ZONE NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0
);
`

const migration003Down = `
DROP TABLE IF EXISTS weight_retries;
`
