package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
)

func TestParseScope(t *testing.T) {
	assert.Equal(t, query.Scope{}, parseScope(""))
	assert.Equal(t, query.Scope{}, parseScope("   "))
	assert.Equal(t, query.Scope{Month: "2026-03"}, parseScope("2026-03"))
	assert.Equal(t, query.Scope{Year: 2026}, parseScope("2026"))
	assert.Equal(t, query.Scope{CompetitionID: "hacktheboo"}, parseScope("hacktheboo"))
	// Идентификаторы длиннее четырёх цифр - не годы.
	assert.Equal(t, query.Scope{CompetitionID: "12345"}, parseScope("12345"))
}

func TestSplitTopArgs(t *testing.T) {
	scope, search := splitTopArgs("")
	assert.Equal(t, query.Scope{}, scope)
	assert.Empty(t, search)

	scope, search = splitTopArgs("2026-03 alice")
	assert.Equal(t, query.Scope{Month: "2026-03"}, scope)
	assert.Equal(t, "alice", search)

	scope, search = splitTopArgs("hacktheboo")
	assert.Equal(t, query.Scope{CompetitionID: "hacktheboo"}, scope)
	assert.Empty(t, search)

	// Синтаксически месячный, но невалидный ключ уходит в поиск целиком.
	scope, search = splitTopArgs("2026-13 alice")
	assert.Equal(t, query.Scope{}, scope)
	assert.Equal(t, "2026-13 alice", search)
}

func TestNavigationKeyboard(t *testing.T) {
	h := &TopHandler{}

	// Первая страница без продолжения: только обновление.
	kb := h.navigationKeyboard(query.Scope{}, 0, 10, false)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "top:-:0", kb.InlineKeyboard[0][0].CallbackData)

	// Середина списка: назад, вперёд и обновление.
	kb = h.navigationKeyboard(query.Scope{Month: "2026-03"}, 10, 10, true)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "top:2026-03:0", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "top:2026-03:20", kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "top:2026-03:10", kb.InlineKeyboard[1][0].CallbackData)
}

func TestErrorResponse(t *testing.T) {
	resp := errorResponse("что-то пошло не так")
	assert.True(t, resp.IsError)
	assert.Equal(t, "HTML", resp.ParseMode)
	assert.Nil(t, resp.Keyboard)
}
