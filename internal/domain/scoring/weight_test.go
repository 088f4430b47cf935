package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// stubRetryRepo - тестовый дублёр хранилища записей повторных попыток.
type stubRetryRepo struct {
	records map[shared.CompetitionID]*WeightRetryRecord
	err     error
}

func (s *stubRetryRepo) FindRetry(ctx context.Context, id shared.CompetitionID) (*WeightRetryRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, shared.WrapError("test", "FindRetry", shared.ErrNotFound, "no record", nil)
	}
	return rec, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEffectiveWeight_AssignedWeightWins(t *testing.T) {
	resolver := NewWeightResolver(&stubRetryRepo{})

	got := resolver.EffectiveWeight(context.Background(), "ctf-a", 42.5)
	assert.Equal(t, shared.Weight(42.5), got)
}

func TestEffectiveWeight_NoRecordMeansZero(t *testing.T) {
	resolver := NewWeightResolver(&stubRetryRepo{records: map[shared.CompetitionID]*WeightRetryRecord{}})

	got := resolver.EffectiveWeight(context.Background(), "ctf-a", 0)
	assert.Equal(t, shared.Weight(0), got)
}

func TestEffectiveWeight_GraceStillOpenMeansZero(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubRetryRepo{records: map[shared.CompetitionID]*WeightRetryRecord{
		"ctf-a": {CompetitionID: "ctf-a", RetryUntil: now.Add(24 * time.Hour)},
	}}
	resolver := NewWeightResolver(repo).WithClock(fixedClock(now))

	got := resolver.EffectiveWeight(context.Background(), "ctf-a", 0)
	assert.Equal(t, shared.Weight(0), got)
}

func TestEffectiveWeight_ExpiredGraceFallsBack(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubRetryRepo{records: map[shared.CompetitionID]*WeightRetryRecord{
		"ctf-a": {CompetitionID: "ctf-a", RetryUntil: now.Add(-time.Minute)},
	}}
	resolver := NewWeightResolver(repo).WithClock(fixedClock(now))

	got := resolver.EffectiveWeight(context.Background(), "ctf-a", 0)
	assert.Equal(t, FallbackWeight, got)
}

func TestEffectiveWeight_StoreErrorIsConservativeZero(t *testing.T) {
	resolver := NewWeightResolver(&stubRetryRepo{err: errors.New("connection refused")})

	got := resolver.EffectiveWeight(context.Background(), "ctf-a", 0)
	assert.Equal(t, shared.Weight(0), got)
}

func TestWeightRetryRecord_GraceExpired(t *testing.T) {
	deadline := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	rec := &WeightRetryRecord{RetryUntil: deadline}

	assert.False(t, rec.GraceExpired(deadline.Add(-time.Second)))
	assert.False(t, rec.GraceExpired(deadline))
	assert.True(t, rec.GraceExpired(deadline.Add(time.Second)))
}
