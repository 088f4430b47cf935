package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARM MONTHLY RANKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// WarmMonthlyRanksJob precomputes monthly rank universes so that extended
// metrics and /top month views hit the 24h cache instead of recalculating.
// Fully elapsed months never change, which makes them ideal warmup targets.
type WarmMonthlyRanksJob struct {
	scores *scores.Service
	logger *slog.Logger

	// MaxMonths limits how far back the warmup reaches per run.
	MaxMonths int
}

// NewWarmMonthlyRanksJob creates a new monthly rank warmup job.
func NewWarmMonthlyRanksJob(svc *scores.Service, logger *slog.Logger) *WarmMonthlyRanksJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &WarmMonthlyRanksJob{
		scores:    svc,
		logger:    logger,
		MaxMonths: 12,
	}
}

// Name returns the unique name of the job.
func (j *WarmMonthlyRanksJob) Name() string {
	return "warm_monthly_ranks"
}

// Description returns a human-readable description of the job.
func (j *WarmMonthlyRanksJob) Description() string {
	return "Precomputes monthly rank universes into the 24h cache"
}

// Run executes the warmup, most recent months first.
func (j *WarmMonthlyRanksJob) Run(ctx context.Context) error {
	runID := uuid.NewString()
	startedAt := time.Now()

	ranges := j.scores.GetAvailableTimeRanges(ctx)
	months := ranges.Months
	if len(months) > j.MaxMonths {
		months = months[len(months)-j.MaxMonths:]
	}

	warmed := 0
	for i := len(months) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		ranks := j.scores.CalculateMonthlyRanks(ctx, months[i])
		j.logger.Debug("monthly ranks warmed",
			"run_id", runID,
			"month", months[i].String(),
			"users", len(ranks),
		)
		warmed++
	}

	j.logger.Info("monthly rank warmup completed",
		"run_id", runID,
		"months", warmed,
		"duration", time.Since(startedAt).String(),
	)
	return nil
}
