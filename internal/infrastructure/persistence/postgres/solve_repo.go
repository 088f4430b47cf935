package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
	"github.com/ctfhub/ctf-community-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SOLVE REPOSITORY IMPLEMENTATION
// Read-only view over solves, challenges and competitions. Challenge data
// is joined in with LEFT JOIN: a solve whose challenge was deleted comes
// back with Challenge == nil so the calculator can skip it with a reason.
// ══════════════════════════════════════════════════════════════════════════════

// SolveRepository implements scoring.SolveRepository for PostgreSQL.
// Transient query failures are retried with the shared database policy.
type SolveRepository struct {
	conn *Connection
}

// NewSolveRepository creates a new SolveRepository.
func NewSolveRepository(conn *Connection) *SolveRepository {
	return &SolveRepository{conn: conn}
}

const solveColumns = `
	s.competition_id,
	s.challenge_ref,
	s.solved_at,
	c.name,
	c.category,
	c.points,
	c.solve_count,
	ARRAY(
		SELECT sp.user_id FROM solve_participants sp
		WHERE sp.solve_id = s.id
		ORDER BY sp.user_id
	)
`

// FindSolves returns solves matching the filter in chronological order.
func (r *SolveRepository) FindSolves(ctx context.Context, filter scoring.SolveFilter) ([]scoring.SolveRecord, error) {
	filter = filter.Normalize()

	query := `
		SELECT ` + solveColumns + `
		FROM solves s
		LEFT JOIN challenges c ON c.id = s.challenge_ref AND c.competition_id = s.competition_id
		WHERE ($1 = '' OR s.competition_id = $1)
		  AND ($2::timestamptz IS NULL OR s.solved_at >= $2)
		  AND ($3::timestamptz IS NULL OR s.solved_at < $3)
		ORDER BY s.solved_at, s.id
	`

	return dbQuery(ctx, func(ctx context.Context) ([]scoring.SolveRecord, error) {
		rows, err := r.conn.Query(ctx, query,
			filter.CompetitionID.String(),
			nullableTime(filter.From),
			nullableTime(filter.To),
		)
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("failed to query solves: %w", err))
		}
		defer rows.Close()
		return scanSolveRecords(rows)
	})
}

// UserSolveHistory returns the full chronological history of one user.
func (r *SolveRepository) UserSolveHistory(ctx context.Context, userID shared.UserID, competitionID shared.CompetitionID) ([]scoring.SolveRecord, error) {
	query := `
		SELECT ` + solveColumns + `
		FROM solves s
		LEFT JOIN challenges c ON c.id = s.challenge_ref AND c.competition_id = s.competition_id
		WHERE EXISTS (
			SELECT 1 FROM solve_participants sp
			WHERE sp.solve_id = s.id AND sp.user_id = $1
		)
		  AND ($2 = '' OR s.competition_id = $2)
		ORDER BY s.solved_at, s.id
	`

	return dbQuery(ctx, func(ctx context.Context) ([]scoring.SolveRecord, error) {
		rows, err := r.conn.Query(ctx, query, userID.String(), competitionID.String())
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("failed to query user solve history: %w", err))
		}
		defer rows.Close()
		return scanSolveRecords(rows)
	})
}

// CompetitionStats returns normalization aggregates for the listed competitions.
func (r *SolveRepository) CompetitionStats(ctx context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]scoring.CompetitionStats, error) {
	if len(ids) == 0 {
		return map[shared.CompetitionID]scoring.CompetitionStats{}, nil
	}

	query := `
		SELECT competition_id, MAX(points), MAX(solve_count)
		FROM challenges
		WHERE competition_id = ANY($1)
		GROUP BY competition_id
	`

	return dbQuery(ctx, func(ctx context.Context) (map[shared.CompetitionID]scoring.CompetitionStats, error) {
		rows, err := r.conn.Query(ctx, query, competitionIDStrings(ids))
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("failed to query competition stats: %w", err))
		}
		defer rows.Close()

		stats := make(map[shared.CompetitionID]scoring.CompetitionStats, len(ids))
		for rows.Next() {
			var id string
			var maxPoints, maxSolves int
			if err := rows.Scan(&id, &maxPoints, &maxSolves); err != nil {
				return nil, fmt.Errorf("failed to scan competition stats: %w", err)
			}
			stats[shared.CompetitionID(id)] = scoring.CompetitionStats{
				MaxPoints: shared.Points(maxPoints),
				MaxSolves: maxSolves,
			}
		}
		return stats, rows.Err()
	})
}

// CompetitionsByID returns competition metadata for the listed competitions.
func (r *SolveRepository) CompetitionsByID(ctx context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]scoring.CompetitionInfo, error) {
	if len(ids) == 0 {
		return map[shared.CompetitionID]scoring.CompetitionInfo{}, nil
	}

	query := `
		SELECT id, title, logo_url, weight, finished_at
		FROM competitions
		WHERE id = ANY($1)
	`

	return dbQuery(ctx, func(ctx context.Context) (map[shared.CompetitionID]scoring.CompetitionInfo, error) {
		rows, err := r.conn.Query(ctx, query, competitionIDStrings(ids))
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("failed to query competitions: %w", err))
		}
		defer rows.Close()

		infos := make(map[shared.CompetitionID]scoring.CompetitionInfo, len(ids))
		for rows.Next() {
			var info scoring.CompetitionInfo
			var id string
			var weight float64
			var finishedAt *time.Time
			if err := rows.Scan(&id, &info.Title, &info.LogoURL, &weight, &finishedAt); err != nil {
				return nil, fmt.Errorf("failed to scan competition: %w", err)
			}
			info.ID = shared.CompetitionID(id)
			info.Weight = shared.Weight(weight)
			if finishedAt != nil {
				info.FinishedAt = finishedAt.UTC()
			}
			infos[info.ID] = info
		}
		return infos, rows.Err()
	})
}

// UserJoinedAt returns the community join date of a user.
func (r *SolveRepository) UserJoinedAt(ctx context.Context, userID shared.UserID) (time.Time, error) {
	return dbQuery(ctx, func(ctx context.Context) (time.Time, error) {
		var joinedAt time.Time
		err := r.conn.QueryRow(ctx,
			"SELECT joined_at FROM users WHERE id = $1",
			userID.String(),
		).Scan(&joinedAt)
		if IsNoRows(err) {
			return time.Time{}, shared.WrapError("postgres", "UserJoinedAt", shared.ErrNotFound, "user not found", err)
		}
		if err != nil {
			return time.Time{}, retry.Retryable(fmt.Errorf("failed to query user: %w", err))
		}
		return joinedAt.UTC(), nil
	})
}

// SolveTimeBounds returns the earliest and latest solve timestamps.
func (r *SolveRepository) SolveTimeBounds(ctx context.Context) (scoring.SolveTimeBounds, error) {
	return dbQuery(ctx, func(ctx context.Context) (scoring.SolveTimeBounds, error) {
		var first, last *time.Time
		err := r.conn.QueryRow(ctx,
			"SELECT MIN(solved_at), MAX(solved_at) FROM solves",
		).Scan(&first, &last)
		if err != nil {
			return scoring.SolveTimeBounds{}, retry.Retryable(fmt.Errorf("failed to query solve bounds: %w", err))
		}
		if first == nil || last == nil {
			return scoring.SolveTimeBounds{Empty: true}, nil
		}
		return scoring.SolveTimeBounds{First: first.UTC(), Last: last.UTC()}, nil
	})
}

// CompetitionActivity returns participation aggregates per competition,
// most recently active first.
func (r *SolveRepository) CompetitionActivity(ctx context.Context) ([]scoring.CompetitionActivity, error) {
	query := `
		SELECT
			s.competition_id,
			COALESCE(c.title, s.competition_id),
			COUNT(DISTINCT s.id),
			COUNT(DISTINCT sp.user_id),
			MIN(s.solved_at),
			MAX(s.solved_at)
		FROM solves s
		JOIN solve_participants sp ON sp.solve_id = s.id
		LEFT JOIN competitions c ON c.id = s.competition_id
		GROUP BY s.competition_id, c.title
		ORDER BY MAX(s.solved_at) DESC
	`

	return dbQuery(ctx, func(ctx context.Context) ([]scoring.CompetitionActivity, error) {
		rows, err := r.conn.Query(ctx, query)
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("failed to query competition activity: %w", err))
		}
		defer rows.Close()

		var activity []scoring.CompetitionActivity
		for rows.Next() {
			var a scoring.CompetitionActivity
			var id string
			if err := rows.Scan(&id, &a.Title, &a.TotalSolves, &a.UniqueUsers, &a.FirstSolve, &a.LastSolve); err != nil {
				return nil, fmt.Errorf("failed to scan competition activity: %w", err)
			}
			a.CompetitionID = shared.CompetitionID(id)
			a.FirstSolve = a.FirstSolve.UTC()
			a.LastSolve = a.LastSolve.UTC()
			activity = append(activity, a)
		}
		return activity, rows.Err()
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// SCAN HELPERS
// ─────────────────────────────────────────────────────────────────────────────

// scanSolveRecords reads solve rows with optional challenge data.
func scanSolveRecords(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]scoring.SolveRecord, error) {
	var records []scoring.SolveRecord
	for rows.Next() {
		var rec scoring.SolveRecord
		var compID string
		var solvedAt time.Time
		var name, category *string
		var points, solveCount *int
		var userIDs []string

		if err := rows.Scan(&compID, &rec.ChallengeRef, &solvedAt, &name, &category, &points, &solveCount, &userIDs); err != nil {
			return nil, fmt.Errorf("failed to scan solve: %w", err)
		}

		rec.CompetitionID = shared.CompetitionID(compID)
		rec.SolvedAt = solvedAt.UTC()
		rec.UserIDs = make([]shared.UserID, 0, len(userIDs))
		for _, id := range userIDs {
			rec.UserIDs = append(rec.UserIDs, shared.UserID(id))
		}
		if name != nil && points != nil {
			cat := "misc"
			if category != nil {
				cat = *category
			}
			solves := 0
			if solveCount != nil {
				solves = *solveCount
			}
			rec.Challenge = &scoring.ChallengeInfo{
				Name:       *name,
				Category:   shared.Category(cat).Normalize(),
				Points:     shared.Points(*points),
				SolveCount: solves,
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// competitionIDStrings converts typed ids for array binding.
func competitionIDStrings(ids []shared.CompetitionID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// dbQuery runs a read with the shared database retry policy.
func dbQuery[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.DoWithData(ctx, fn, retry.DatabaseOptions()...)
}

var _ scoring.SolveRepository = (*SolveRepository)(nil)
