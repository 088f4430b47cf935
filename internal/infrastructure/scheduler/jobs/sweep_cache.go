// Package jobs contains implementations of scheduled jobs for CTF Community Hub.
package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/cache"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWEEP CACHE JOB
// ══════════════════════════════════════════════════════════════════════════════

// SweepCacheJob evicts expired score cache entries. Expired entries are
// already invisible to readers; the sweep only reclaims the memory.
type SweepCacheJob struct {
	cache  *cache.ScoreCache
	logger *slog.Logger
}

// NewSweepCacheJob creates a new cache sweep job.
func NewSweepCacheJob(scoreCache *cache.ScoreCache, logger *slog.Logger) *SweepCacheJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepCacheJob{cache: scoreCache, logger: logger}
}

// Name returns the unique name of the job.
func (j *SweepCacheJob) Name() string {
	return "sweep_cache"
}

// Description returns a human-readable description of the job.
func (j *SweepCacheJob) Description() string {
	return "Evicts expired entries from the in-process score cache"
}

// Run executes the sweep.
func (j *SweepCacheJob) Run(ctx context.Context) error {
	runID := uuid.NewString()

	removed := j.cache.SweepOnce()
	j.logger.Info("cache sweep completed",
		"run_id", runID,
		"removed", removed,
		"remaining", j.cache.Len(),
	)
	return ctx.Err()
}
