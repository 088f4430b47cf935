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
// COMPETITION REPOSITORY IMPLEMENTATION
// Weight retry bookkeeping plus curator-side weight assignment. The read
// side (FindRetry) feeds the weight resolver; the write side is used by
// the maintenance job and admin tooling.
// ══════════════════════════════════════════════════════════════════════════════

// CompetitionRepository implements scoring.WeightRetryRepository and the
// maintenance operations around competition weights.
type CompetitionRepository struct {
	conn *Connection
}

// NewCompetitionRepository creates a new CompetitionRepository.
func NewCompetitionRepository(conn *Connection) *CompetitionRepository {
	return &CompetitionRepository{conn: conn}
}

// FindRetry returns the weight retry record for a competition.
func (r *CompetitionRepository) FindRetry(ctx context.Context, id shared.CompetitionID) (*scoring.WeightRetryRecord, error) {
	return dbQuery(ctx, func(ctx context.Context) (*scoring.WeightRetryRecord, error) {
		var rec scoring.WeightRetryRecord
		var compID string
		err := r.conn.QueryRow(ctx,
			"SELECT competition_id, retry_until, attempts FROM weight_retries WHERE competition_id = $1",
			id.String(),
		).Scan(&compID, &rec.RetryUntil, &rec.Attempts)
		if IsNoRows(err) {
			return nil, shared.WrapError("postgres", "FindRetry", shared.ErrNotFound, "no retry record", err)
		}
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("failed to query weight retry: %w", err))
		}
		rec.CompetitionID = shared.CompetitionID(compID)
		rec.RetryUntil = rec.RetryUntil.UTC()
		return &rec, nil
	})
}

// ScheduleRetry opens or extends the weight retry window for a competition.
// Each call bumps the attempt counter.
func (r *CompetitionRepository) ScheduleRetry(ctx context.Context, id shared.CompetitionID, retryUntil time.Time) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO weight_retries (competition_id, retry_until, attempts)
		VALUES ($1, $2, 1)
		ON CONFLICT (competition_id)
		DO UPDATE SET retry_until = EXCLUDED.retry_until, attempts = weight_retries.attempts + 1
	`, id.String(), retryUntil.UTC())
	if err != nil {
		return fmt.Errorf("failed to schedule weight retry: %w", err)
	}
	return nil
}

// ClearRetry removes the retry record once a weight has been assigned.
func (r *CompetitionRepository) ClearRetry(ctx context.Context, id shared.CompetitionID) error {
	_, err := r.conn.Exec(ctx, "DELETE FROM weight_retries WHERE competition_id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to clear weight retry: %w", err)
	}
	return nil
}

// AssignWeight stores the curator-assigned weight and clears the retry record.
func (r *CompetitionRepository) AssignWeight(ctx context.Context, id shared.CompetitionID, weight shared.Weight) error {
	tag, err := r.conn.Exec(ctx,
		"UPDATE competitions SET weight = $2 WHERE id = $1",
		id.String(), float64(weight),
	)
	if err != nil {
		return fmt.Errorf("failed to assign weight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.WrapError("postgres", "AssignWeight", shared.ErrNotFound, "competition not found", nil)
	}
	return r.ClearRetry(ctx, id)
}

// UnweightedFinished returns finished competitions that still have no weight
// and no open retry window. The maintenance job opens windows for them.
func (r *CompetitionRepository) UnweightedFinished(ctx context.Context, before time.Time) ([]shared.CompetitionID, error) {
	return dbQuery(ctx, func(ctx context.Context) ([]shared.CompetitionID, error) {
		rows, err := r.conn.Query(ctx, `
			SELECT c.id
			FROM competitions c
			LEFT JOIN weight_retries wr ON wr.competition_id = c.id
			WHERE c.weight = 0
			  AND c.finished_at IS NOT NULL
			  AND c.finished_at < $1
			  AND wr.competition_id IS NULL
			ORDER BY c.finished_at
		`, before.UTC())
		if err != nil {
			return nil, retry.Retryable(fmt.Errorf("failed to query unweighted competitions: %w", err))
		}
		defer rows.Close()

		var ids []shared.CompetitionID
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, fmt.Errorf("failed to scan competition id: %w", err)
			}
			ids = append(ids, shared.CompetitionID(id))
		}
		return ids, rows.Err()
	})
}

var _ scoring.WeightRetryRepository = (*CompetitionRepository)(nil)
