package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// fakeHistoryRepo отдаёт заранее заданную историю решений по пользователям.
type fakeHistoryRepo struct {
	histories map[shared.UserID][]scoring.SolveRecord
	joined    map[shared.UserID]time.Time

	historyErr   error
	historyCalls int
}

func (f *fakeHistoryRepo) FindSolves(context.Context, scoring.SolveFilter) ([]scoring.SolveRecord, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) CompetitionStats(context.Context, []shared.CompetitionID) (map[shared.CompetitionID]scoring.CompetitionStats, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) CompetitionsByID(context.Context, []shared.CompetitionID) (map[shared.CompetitionID]scoring.CompetitionInfo, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) UserSolveHistory(_ context.Context, userID shared.UserID, _ shared.CompetitionID) ([]scoring.SolveRecord, error) {
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.histories[userID], nil
}

func (f *fakeHistoryRepo) UserJoinedAt(_ context.Context, userID shared.UserID) (time.Time, error) {
	at, ok := f.joined[userID]
	if !ok {
		return time.Time{}, shared.ErrNotFound
	}
	return at, nil
}

func (f *fakeHistoryRepo) SolveTimeBounds(context.Context) (scoring.SolveTimeBounds, error) {
	return scoring.SolveTimeBounds{Empty: true}, nil
}

func (f *fakeHistoryRepo) CompetitionActivity(context.Context) ([]scoring.CompetitionActivity, error) {
	return nil, nil
}

// fakeRankHistory отдаёт фиксированные месячные вселенные рангов.
type fakeRankHistory struct {
	months []shared.MonthKey
	ranks  map[shared.MonthKey]map[shared.UserID]int

	monthsCalls int
}

func (f *fakeRankHistory) AvailableMonths(context.Context) ([]shared.MonthKey, error) {
	f.monthsCalls++
	return f.months, nil
}

func (f *fakeRankHistory) MonthlyRanks(_ context.Context, key shared.MonthKey) (map[shared.UserID]int, error) {
	ranks, ok := f.ranks[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return ranks, nil
}

func historySolve(points shared.Points, category shared.Category, at time.Time, users ...shared.UserID) scoring.SolveRecord {
	return scoring.SolveRecord{
		CompetitionID: "ctf-a",
		Challenge: &scoring.ChallengeInfo{
			Name:     "chal",
			Category: category,
			Points:   points,
		},
		UserIDs:  users,
		SolvedAt: at,
	}
}

func aggregatesFor(users ...shared.UserID) map[shared.UserID]*scoring.UserScoreAggregate {
	out := make(map[shared.UserID]*scoring.UserScoreAggregate, len(users))
	for _, id := range users {
		out[id] = scoring.NewUserScoreAggregate(id)
	}
	return out
}

func TestCalculateForUsers_ExcludedMeansNoStoreCalls(t *testing.T) {
	repo := &fakeHistoryRepo{}
	ranks := &fakeRankHistory{}
	engine := NewEngine(repo, ranks)

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice", "bob"), false)
	require.NoError(t, err)
	require.Len(t, deltas, 2)

	assert.False(t, deltas["alice"].Computed)
	assert.False(t, deltas["bob"].Computed)
	assert.Zero(t, repo.historyCalls)
	assert.Zero(t, ranks.monthsCalls)
}

func TestCalculateForUsers_PointThresholds(t *testing.T) {
	// Среда, днём: ни ночь, ни утро, ни выходные.
	at := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	repo := &fakeHistoryRepo{
		histories: map[shared.UserID][]scoring.SolveRecord{
			"alice": {
				historySolve(40, "web", at, "alice"),
				historySolve(100, "web", at.Add(time.Minute), "alice"),
				historySolve(300, "pwn", at.Add(2*time.Minute), "alice"),
				historySolve(450, "crypto", at.Add(3*time.Minute), "alice"),
				historySolve(500, "crypto", at.Add(4*time.Minute), "alice"),
			},
		},
	}
	engine := NewEngine(repo, &fakeRankHistory{})

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice"), true)
	require.NoError(t, err)

	d := deltas["alice"]
	require.True(t, d.Computed)
	assert.Equal(t, 1, d.UltraFastSolves)
	assert.Equal(t, 2, d.FastSolves)
	assert.Equal(t, 2, d.HardSolves)
	assert.Equal(t, 1, d.ExpertSolves)
	assert.Equal(t, 2, d.FirstBloods)
	assert.Equal(t, map[shared.Category]int{"web": 2, "pwn": 1, "crypto": 2}, d.CategorySolves)
	assert.Zero(t, d.NightSolves)
	assert.Zero(t, d.WeekendSolves)
	assert.Zero(t, d.TeamSolves)
}

func TestCalculateForUsers_TimeWindows(t *testing.T) {
	night := time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC)
	morning := time.Date(2026, 3, 5, 6, 30, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	noon := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	repo := &fakeHistoryRepo{
		histories: map[shared.UserID][]scoring.SolveRecord{
			"alice": {
				historySolve(100, "web", night, "alice"),
				historySolve(100, "web", morning, "alice"),
				historySolve(100, "web", saturday, "alice"),
				historySolve(100, "web", noon, "alice"),
			},
		},
	}
	engine := NewEngine(repo, &fakeRankHistory{})

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice"), true)
	require.NoError(t, err)

	d := deltas["alice"]
	assert.Equal(t, 1, d.NightSolves)
	assert.Equal(t, 1, d.MorningSolves)
	assert.Equal(t, 1, d.WeekendSolves)
	assert.InDelta(t, 0.25, d.NightRatio, 1e-9)
	assert.InDelta(t, 0.25, d.WeekendRatio, 1e-9)
}

func TestCalculateForUsers_StreakRules(t *testing.T) {
	day := func(d, hour int) time.Time {
		return time.Date(2026, 3, d, hour, 0, 0, 0, time.UTC)
	}
	repo := &fakeHistoryRepo{
		histories: map[shared.UserID][]scoring.SolveRecord{
			"alice": {
				historySolve(100, "web", day(2, 10), "alice"),
				historySolve(100, "web", day(3, 10), "alice"),
				// Повтор в тот же день серию не длит и не рвёт.
				historySolve(100, "web", day(3, 20), "alice"),
				historySolve(100, "web", day(4, 10), "alice"),
				// Пропуск дня рвёт серию.
				historySolve(100, "web", day(6, 10), "alice"),
				historySolve(100, "web", day(7, 10), "alice"),
			},
		},
	}
	engine := NewEngine(repo, &fakeRankHistory{})

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice"), true)
	require.NoError(t, err)
	assert.Equal(t, 3, deltas["alice"].LongestStreakDays)
}

func TestCalculateForUsers_TeamSolves(t *testing.T) {
	at := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	repo := &fakeHistoryRepo{
		histories: map[shared.UserID][]scoring.SolveRecord{
			"alice": {
				historySolve(100, "web", at, "alice", "bob"),
				historySolve(100, "web", at.Add(time.Hour), "alice"),
			},
		},
	}
	engine := NewEngine(repo, &fakeRankHistory{})

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice"), true)
	require.NoError(t, err)
	assert.Equal(t, 1, deltas["alice"].TeamSolves)
}

func TestCalculateForUsers_MembershipDays(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeHistoryRepo{
		joined: map[shared.UserID]time.Time{
			"alice": now.AddDate(0, 0, -100),
		},
	}
	engine := NewEngine(repo, &fakeRankHistory{}).WithClock(func() time.Time { return now })

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice"), true)
	require.NoError(t, err)
	assert.Equal(t, 100, deltas["alice"].MembershipDays)
}

func TestCalculateForUsers_RankImprovement(t *testing.T) {
	ranks := &fakeRankHistory{
		months: []shared.MonthKey{"2026-01", "2026-02", "2026-03"},
		ranks: map[shared.MonthKey]map[shared.UserID]int{
			"2026-01": {"alice": 10, "bob": 2},
			"2026-02": {"alice": 7},
			"2026-03": {"alice": 4, "bob": 9},
		},
	}
	repo := &fakeHistoryRepo{}
	engine := NewEngine(repo, ranks)

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice", "bob"), true)
	require.NoError(t, err)

	// С 10-го места на 4-е: улучшение на 6 позиций.
	assert.Equal(t, 6, deltas["alice"].RankImprovement)
	// Ухудшение сообщается как ноль.
	assert.Zero(t, deltas["bob"].RankImprovement)
	// История рангов выгружается один раз на вызов, не на пользователя.
	assert.Equal(t, 1, ranks.monthsCalls)
}

func TestCalculateForUsers_HistoryFailureGivesEmptyDelta(t *testing.T) {
	repo := &fakeHistoryRepo{historyErr: errors.New("connection reset")}
	engine := NewEngine(repo, &fakeRankHistory{})

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice"), true)
	require.NoError(t, err)
	assert.False(t, deltas["alice"].Computed)
}

func TestCalculateForUsers_UnresolvedSolvesIgnored(t *testing.T) {
	at := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	repo := &fakeHistoryRepo{
		histories: map[shared.UserID][]scoring.SolveRecord{
			"alice": {
				{CompetitionID: "ctf-a", Challenge: nil, UserIDs: []shared.UserID{"alice"}, SolvedAt: at},
				historySolve(500, "pwn", at.Add(time.Hour), "alice"),
			},
		},
	}
	engine := NewEngine(repo, &fakeRankHistory{})

	deltas, err := engine.CalculateForUsers(context.Background(), aggregatesFor("alice"), true)
	require.NoError(t, err)

	d := deltas["alice"]
	assert.Equal(t, 1, d.ExpertSolves)
	assert.Equal(t, map[shared.Category]int{"pwn": 1}, d.CategorySolves)
}

func TestDelta_ApplyTo(t *testing.T) {
	agg := scoring.NewUserScoreAggregate("alice")

	EmptyDelta().ApplyTo(agg)
	assert.Nil(t, agg.Extended)

	d := Delta{
		Computed:          true,
		CategorySolves:    map[shared.Category]int{"web": 3},
		HardSolves:        2,
		LongestStreakDays: 5,
	}
	d.ApplyTo(agg)
	require.NotNil(t, agg.Extended)
	assert.Equal(t, 2, agg.Extended.HardSolves)
	assert.Equal(t, 5, agg.Extended.LongestStreakDays)
	assert.Equal(t, map[shared.Category]int{"web": 3}, agg.Extended.CategorySolves)
}

func TestDelta_Merge(t *testing.T) {
	computed := Delta{Computed: true, HardSolves: 2}

	assert.Equal(t, computed, computed.Merge(EmptyDelta()))
	assert.Equal(t, computed, EmptyDelta().Merge(computed))

	fresher := Delta{Computed: true, HardSolves: 7}
	assert.Equal(t, fresher, computed.Merge(fresher))
}
