package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

func TestGetLeaderboard_OrderedByScore(t *testing.T) {
	handler := NewGetLeaderboardHandler(newQueryService(t, fourUserStore()))

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 4)
	assert.Equal(t, "alice", result.Entries[0].UserID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "dave", result.Entries[3].UserID)
	assert.Equal(t, 4, result.Entries[3].Rank)
	assert.Equal(t, 4, result.TotalCount)
	assert.Equal(t, "all time", result.ScopeLabel)
	assert.False(t, result.HasMore)
}

func TestGetLeaderboard_SearchKeepsRanks(t *testing.T) {
	handler := NewGetLeaderboardHandler(newQueryService(t, fourUserStore()))

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{SearchTerm: "carol"})
	require.NoError(t, err)

	// Поиск сужает отображение, но не перенумеровывает участников.
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "carol", result.Entries[0].UserID)
	assert.Equal(t, 3, result.Entries[0].Rank)
	assert.Equal(t, 4, result.TotalCount)
}

func TestGetLeaderboard_Pagination(t *testing.T) {
	handler := NewGetLeaderboardHandler(newQueryService(t, fourUserStore()))

	first, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.PageSize)

	second, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, second.Entries, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, 2, second.Page)
	assert.Equal(t, "carol", second.Entries[0].UserID)
}

func TestGetLeaderboard_OffsetPastEnd(t *testing.T) {
	handler := NewGetLeaderboardHandler(newQueryService(t, fourUserStore()))

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.False(t, result.HasMore)
}

func TestGetLeaderboard_LimitDefaults(t *testing.T) {
	q := GetLeaderboardQuery{}
	require.NoError(t, q.Validate())
	assert.Equal(t, 20, q.Limit)

	q = GetLeaderboardQuery{Limit: 500}
	require.NoError(t, q.Validate())
	assert.Equal(t, 100, q.Limit)
}

func TestGetLeaderboard_InvalidScope(t *testing.T) {
	handler := NewGetLeaderboardHandler(newQueryService(t, fourUserStore()))

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		Scope: Scope{CompetitionID: "ctf-a", Year: 2026},
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(context.Background(), GetLeaderboardQuery{Limit: -1})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestGetLeaderboard_MonthScope(t *testing.T) {
	handler := NewGetLeaderboardHandler(newQueryService(t, fourUserStore()))

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		Scope: Scope{Month: "2026-03"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 4)
	assert.Equal(t, "2026-03", result.ScopeLabel)

	empty, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		Scope: Scope{Month: "2025-01"},
	})
	require.NoError(t, err)
	assert.Empty(t, empty.Entries)
	assert.Zero(t, empty.TotalCount)
}
