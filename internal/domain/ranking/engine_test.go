package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

func snapshotOf(scores map[shared.UserID]float64) map[shared.UserID]*scoring.UserScoreAggregate {
	out := make(map[shared.UserID]*scoring.UserScoreAggregate, len(scores))
	for id, score := range scores {
		agg := scoring.NewUserScoreAggregate(id)
		agg.TotalScore = score
		agg.SolveCount = 1
		out[id] = agg
	}
	return out
}

func TestOrder_DescendingByScore(t *testing.T) {
	snapshot := snapshotOf(map[shared.UserID]float64{
		"alice":   120.5,
		"bob":     300.0,
		"charlie": 42.0,
	})

	ordered := NewEngine().Order(snapshot)
	require.Len(t, ordered, 3)
	assert.Equal(t, shared.UserID("bob"), ordered[0].UserID)
	assert.Equal(t, shared.UserID("alice"), ordered[1].UserID)
	assert.Equal(t, shared.UserID("charlie"), ordered[2].UserID)
}

func TestOrder_TieBrokenByUserID(t *testing.T) {
	snapshot := snapshotOf(map[shared.UserID]float64{
		"zeta":  100.0,
		"alpha": 100.0,
		"mid":   100.0,
	})

	ordered := NewEngine().Order(snapshot)
	require.Len(t, ordered, 3)
	assert.Equal(t, shared.UserID("alpha"), ordered[0].UserID)
	assert.Equal(t, shared.UserID("mid"), ordered[1].UserID)
	assert.Equal(t, shared.UserID("zeta"), ordered[2].UserID)
}

func TestLeaderboard_LimitApplied(t *testing.T) {
	snapshot := snapshotOf(map[shared.UserID]float64{
		"a": 5, "b": 4, "c": 3, "d": 2, "e": 1,
	})
	engine := NewEngine()

	top := engine.Leaderboard(snapshot, 2)
	require.Len(t, top, 2)
	assert.Equal(t, shared.UserID("a"), top[0].UserID)

	// Неположительный лимит возвращает всех.
	assert.Len(t, engine.Leaderboard(snapshot, 0), 5)
	assert.Len(t, engine.Leaderboard(snapshot, -1), 5)
	assert.Len(t, engine.Leaderboard(snapshot, 100), 5)
}

func TestRank_PositionsAndPercentiles(t *testing.T) {
	snapshot := snapshotOf(map[shared.UserID]float64{
		"first": 300, "second": 200, "third": 100, "last": 50,
	})
	engine := NewEngine()

	info, ok := engine.Rank("first", snapshot)
	require.True(t, ok)
	assert.Equal(t, shared.Rank(1), info.Rank)
	assert.Equal(t, 4, info.TotalUsers)
	assert.Equal(t, 25, info.Percentile)

	info, ok = engine.Rank("last", snapshot)
	require.True(t, ok)
	assert.Equal(t, shared.Rank(4), info.Rank)
	assert.Equal(t, 100, info.Percentile)
}

func TestRank_UnknownUser(t *testing.T) {
	snapshot := snapshotOf(map[shared.UserID]float64{"alice": 100})

	info, ok := NewEngine().Rank("ghost", snapshot)
	assert.False(t, ok)
	assert.Equal(t, RankInfo{}, info)
}

func TestRanks_CoversWholeSnapshot(t *testing.T) {
	snapshot := snapshotOf(map[shared.UserID]float64{
		"a": 30, "b": 20, "c": 10,
	})

	ranks := NewEngine().Ranks(snapshot)
	assert.Equal(t, map[shared.UserID]int{"a": 1, "b": 2, "c": 3}, ranks)
}

func TestStats_MedianIsLowerMiddle(t *testing.T) {
	snapshot := snapshotOf(map[shared.UserID]float64{
		"a": 400, "b": 300, "c": 200, "d": 100,
	})

	stats := NewEngine().Stats(snapshot)
	assert.Equal(t, 4, stats.TotalSolves)
	assert.InDelta(t, 1000.0, stats.TotalScore, 1e-9)
	assert.InDelta(t, 250.0, stats.AverageScore, 1e-9)
	// Чётный размер: берётся элемент с индексом n/2 убывающей сортировки.
	assert.InDelta(t, 200.0, stats.MedianScore, 1e-9)
}

func TestStats_EmptySnapshot(t *testing.T) {
	stats := NewEngine().Stats(nil)
	assert.Equal(t, GlobalStats{}, stats)
}
