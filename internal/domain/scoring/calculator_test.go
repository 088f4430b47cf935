package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// fakeSolveRepo - хранилище в памяти для тестов калькулятора.
type fakeSolveRepo struct {
	solves []SolveRecord
	stats  map[shared.CompetitionID]CompetitionStats
	infos  map[shared.CompetitionID]CompetitionInfo

	findErr  error
	statsErr error

	findCalls int
}

func (f *fakeSolveRepo) FindSolves(_ context.Context, filter SolveFilter) ([]SolveRecord, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]SolveRecord, 0, len(f.solves))
	for i := range f.solves {
		if filter.Matches(&f.solves[i]) {
			out = append(out, f.solves[i])
		}
	}
	return out, nil
}

func (f *fakeSolveRepo) CompetitionStats(_ context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]CompetitionStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	out := make(map[shared.CompetitionID]CompetitionStats)
	for _, id := range ids {
		if st, ok := f.stats[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (f *fakeSolveRepo) CompetitionsByID(_ context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]CompetitionInfo, error) {
	out := make(map[shared.CompetitionID]CompetitionInfo)
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func (f *fakeSolveRepo) UserSolveHistory(_ context.Context, userID shared.UserID, competitionID shared.CompetitionID) ([]SolveRecord, error) {
	out := make([]SolveRecord, 0)
	for i := range f.solves {
		rec := &f.solves[i]
		if competitionID != "" && rec.CompetitionID != competitionID {
			continue
		}
		for _, id := range rec.UserIDs {
			if id == userID {
				out = append(out, *rec)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSolveRepo) UserJoinedAt(context.Context, shared.UserID) (time.Time, error) {
	return time.Time{}, shared.ErrNotFound
}

func (f *fakeSolveRepo) SolveTimeBounds(context.Context) (SolveTimeBounds, error) {
	return SolveTimeBounds{Empty: true}, nil
}

func (f *fakeSolveRepo) CompetitionActivity(context.Context) ([]CompetitionActivity, error) {
	return nil, nil
}

func solveAt(comp shared.CompetitionID, name string, category shared.Category, points shared.Points, solveCount int, at time.Time, users ...shared.UserID) SolveRecord {
	return SolveRecord{
		CompetitionID: comp,
		Challenge: &ChallengeInfo{
			Name:       name,
			Category:   category,
			Points:     points,
			SolveCount: solveCount,
		},
		ChallengeRef: name,
		UserIDs:      users,
		SolvedAt:     at,
	}
}

func newTestCalculator(repo *fakeSolveRepo) *Calculator {
	resolver := NewWeightResolver(&stubRetryRepo{})
	return NewCalculator(repo, resolver)
}

func TestCalculate_SingleSolveScore(t *testing.T) {
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ctf-a", "rsa-oracle", "crypto", 500, 2, at, "alice"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 50},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 40},
		},
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)
	require.Len(t, outcome.Aggregates, 1)
	assert.Empty(t, outcome.Skipped)

	agg := outcome.Aggregates["alice"]
	require.NotNil(t, agg)

	// 500/500 * 40 * множитель редкости.
	want := 1.0 * 40 * Multiplier(2, 50)
	assert.InDelta(t, want, agg.TotalScore, 1e-9)
	assert.Equal(t, 1, agg.SolveCount)
	assert.True(t, agg.Categories.Contains("crypto"))

	res := agg.Competitions["ctf-a"]
	require.NotNil(t, res)
	assert.Equal(t, "CTF A", res.Title)
	assert.Equal(t, 1, res.Solves)
	assert.Equal(t, 500, res.RawPoints)
	assert.InDelta(t, want, res.Score, 1e-9)
}

func TestCalculate_CompetitionScoresSumToTotal(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ctf-a", "web-1", "web", 100, 40, base, "alice"),
			solveAt("ctf-a", "pwn-1", "pwn", 300, 8, base.Add(time.Hour), "alice"),
			solveAt("ctf-b", "rev-1", "rev", 250, 3, base.Add(2*time.Hour), "alice"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 60},
			"ctf-b": {MaxPoints: 400, MaxSolves: 20},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 50},
			"ctf-b": {ID: "ctf-b", Title: "CTF B", Weight: 25},
		},
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)

	agg := outcome.Aggregates["alice"]
	require.NotNil(t, agg)
	require.Len(t, agg.Competitions, 2)

	sum := 0.0
	for _, res := range agg.Competitions {
		sum += res.Score
	}
	assert.InDelta(t, agg.TotalScore, sum, 1e-9)
	assert.Equal(t, 3, agg.SolveCount)
}

func TestCalculate_Deterministic(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 100},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 33},
		},
	}
	for i := 0; i < 50; i++ {
		repo.solves = append(repo.solves, solveAt(
			"ctf-a", "chal", "misc", shared.Points(100+i), i+1, base.Add(time.Duration(i)*time.Minute), "alice"))
	}

	calc := newTestCalculator(repo)
	first, err := calc.Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)

	assert.Equal(t, first.Aggregates["alice"].TotalScore, second.Aggregates["alice"].TotalScore)
}

func TestCalculate_CoSolversEachGetFullCredit(t *testing.T) {
	at := time.Date(2026, 4, 5, 20, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ctf-a", "heap-feng-shui", "pwn", 450, 1, at, "alice", "bob"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 30},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 60},
		},
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)
	require.Len(t, outcome.Aggregates, 2)

	alice := outcome.Aggregates["alice"]
	bob := outcome.Aggregates["bob"]
	require.NotNil(t, alice)
	require.NotNil(t, bob)
	assert.Equal(t, alice.TotalScore, bob.TotalScore)

	require.Len(t, alice.RecentSolves, 1)
	assert.Equal(t, []shared.UserID{"bob"}, alice.RecentSolves[0].CoSolvers)
}

func TestCalculate_UnresolvedChallengeIsSkipped(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	broken := SolveRecord{
		CompetitionID: "ctf-a",
		Challenge:     nil,
		ChallengeRef:  "deleted-chal",
		UserIDs:       []shared.UserID{"alice"},
		SolvedAt:      at,
	}
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			broken,
			solveAt("ctf-a", "ok-chal", "web", 200, 5, at.Add(time.Hour), "alice"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 50},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 40},
		},
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)

	require.Len(t, outcome.Skipped, 1)
	assert.Equal(t, SkipReasonChallengeUnresolved, outcome.Skipped[0].Reason)
	assert.Equal(t, "deleted-chal", outcome.Skipped[0].ChallengeRef)

	// Одна плохая запись не мешает учёту остальных.
	agg := outcome.Aggregates["alice"]
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.SolveCount)
}

func TestCalculate_UnresolvedCompetitionIsSkipped(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ghost-ctf", "chal", "web", 200, 5, at, "alice"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{},
		infos: map[shared.CompetitionID]CompetitionInfo{},
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)

	assert.Empty(t, outcome.Aggregates)
	require.Len(t, outcome.Skipped, 1)
	assert.Equal(t, SkipReasonCompetitionUnresolved, outcome.Skipped[0].Reason)
}

func TestCalculate_StatsBatchFailureSkipsEverything(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ctf-a", "chal", "web", 200, 5, at, "alice"),
		},
		statsErr: errors.New("statement timeout"),
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 40},
		},
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)
	assert.Empty(t, outcome.Aggregates)
	assert.Len(t, outcome.Skipped, 1)
}

func TestCalculate_FindSolvesFailureIsStoreError(t *testing.T) {
	repo := &fakeSolveRepo{findErr: errors.New("connection refused")}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	assert.Nil(t, outcome)
	require.Error(t, err)
	assert.True(t, shared.IsStoreUnavailable(err))
}

func TestCalculate_RecentSolvesTruncatedAndOrdered(t *testing.T) {
	base := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 100},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 30},
		},
	}
	for i := 0; i < 15; i++ {
		repo.solves = append(repo.solves, solveAt(
			"ctf-a", "chal", "misc", shared.Points(100+i*10), 10, base.Add(time.Duration(i)*time.Hour), "alice"))
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)

	agg := outcome.Aggregates["alice"]
	require.NotNil(t, agg)
	assert.Equal(t, 15, agg.SolveCount)
	require.Len(t, agg.RecentSolves, RecentSolvesLimit)
	assert.False(t, agg.HasFullSample())

	// Выборка идёт по убыванию стоимости задания.
	for i := 1; i < len(agg.RecentSolves); i++ {
		assert.GreaterOrEqual(t, agg.RecentSolves[i-1].Points, agg.RecentSolves[i].Points)
	}
	assert.Equal(t, shared.Points(240), agg.RecentSolves[0].Points)
}

func TestCalculate_MaxPointsClampedToOne(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ctf-a", "chal", "web", 200, 5, at, "alice"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 0, MaxSolves: 50},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 40},
		},
	}

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)

	agg := outcome.Aggregates["alice"]
	require.NotNil(t, agg)
	want := 200.0 / 1.0 * 40 * Multiplier(5, 50)
	assert.InDelta(t, want, agg.TotalScore, 1e-9)
}

func TestCalculate_FilterScopesRecords(t *testing.T) {
	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ctf-a", "march-chal", "web", 100, 5, march, "alice"),
			solveAt("ctf-a", "april-chal", "web", 100, 5, april, "alice"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 50},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 40},
		},
	}

	key, err := shared.NewMonthKey("2026-03")
	require.NoError(t, err)

	outcome, err := newTestCalculator(repo).Calculate(context.Background(), MonthFilter(key))
	require.NoError(t, err)

	agg := outcome.Aggregates["alice"]
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.SolveCount)
	assert.Equal(t, "march-chal", agg.RecentSolves[0].Challenge)
}

func TestCalculate_UnweightedCompetitionAfterGraceUsesFallback(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	at := now.Add(-30 * 24 * time.Hour)
	repo := &fakeSolveRepo{
		solves: []SolveRecord{
			solveAt("ctf-a", "chal", "web", 500, 5, at, "alice"),
		},
		stats: map[shared.CompetitionID]CompetitionStats{
			"ctf-a": {MaxPoints: 500, MaxSolves: 50},
		},
		infos: map[shared.CompetitionID]CompetitionInfo{
			"ctf-a": {ID: "ctf-a", Title: "CTF A", Weight: 0},
		},
	}
	retries := &stubRetryRepo{records: map[shared.CompetitionID]*WeightRetryRecord{
		"ctf-a": {CompetitionID: "ctf-a", RetryUntil: now.Add(-24 * time.Hour)},
	}}
	resolver := NewWeightResolver(retries).WithClock(fixedClock(now))
	calc := NewCalculator(repo, resolver)

	outcome, err := calc.Calculate(context.Background(), GlobalFilter())
	require.NoError(t, err)

	agg := outcome.Aggregates["alice"]
	require.NotNil(t, agg)
	want := 1.0 * FallbackWeight.Float64() * Multiplier(5, 50)
	assert.InDelta(t, want, agg.TotalScore, 1e-9)
	assert.InDelta(t, FallbackWeight.Float64(), agg.Competitions["ctf-a"].Weight, 1e-9)
}
