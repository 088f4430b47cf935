package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/persistence/postgres"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEIGHT MAINTENANCE JOB
// ══════════════════════════════════════════════════════════════════════════════

// WeightMaintenanceJob opens weight retry windows for finished competitions
// that still have no curator-assigned weight. While a window is open the
// competition scores as zero; after the window expires the resolver applies
// the fallback weight.
type WeightMaintenanceJob struct {
	competitions *postgres.CompetitionRepository
	logger       *slog.Logger

	// GracePeriod is how long curators get before the fallback kicks in.
	GracePeriod time.Duration
}

// NewWeightMaintenanceJob creates a new weight maintenance job.
func NewWeightMaintenanceJob(repo *postgres.CompetitionRepository, logger *slog.Logger) *WeightMaintenanceJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeightMaintenanceJob{
		competitions: repo,
		logger:       logger,
		GracePeriod:  14 * 24 * time.Hour,
	}
}

// Name returns the unique name of the job.
func (j *WeightMaintenanceJob) Name() string {
	return "weight_maintenance"
}

// Description returns a human-readable description of the job.
func (j *WeightMaintenanceJob) Description() string {
	return "Opens weight retry windows for finished unweighted competitions"
}

// Run executes the maintenance pass.
func (j *WeightMaintenanceJob) Run(ctx context.Context) error {
	runID := uuid.NewString()
	now := time.Now().UTC()

	ids, err := j.competitions.UnweightedFinished(ctx, now)
	if err != nil {
		return err
	}

	opened := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.competitions.ScheduleRetry(ctx, id, now.Add(j.GracePeriod)); err != nil {
			j.logger.Error("failed to open retry window",
				"run_id", runID,
				"competition_id", id.String(),
				"error", err,
			)
			continue
		}
		opened++
	}

	j.logger.Info("weight maintenance completed",
		"run_id", runID,
		"candidates", len(ids),
		"windows_opened", opened,
	)
	return nil
}
