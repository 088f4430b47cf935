package handler

import (
	"context"
	"strings"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANK HANDLER
// Handles /rank command - shows a user's position and competition breakdown.
// Usage: /rank <user-id> [YYYY-MM | YYYY | competition-id]
// ══════════════════════════════════════════════════════════════════════════════

// RankHandler handles the /rank command.
type RankHandler struct {
	rankQuery *query.GetUserRankHandler
}

// NewRankHandler creates a new RankHandler.
func NewRankHandler(rankQuery *query.GetUserRankHandler) *RankHandler {
	return &RankHandler{rankQuery: rankQuery}
}

// RankRequest contains the parsed /rank command data.
type RankRequest struct {
	// Args is the raw command arguments.
	Args string
}

// Handle processes the /rank command.
func (h *RankHandler) Handle(ctx context.Context, req RankRequest) (*Response, error) {
	fields := strings.Fields(req.Args)
	if len(fields) == 0 {
		return errorResponse("Укажите участника: <code>/rank &lt;id&gt; [период]</code>"), nil
	}

	scope := query.Scope{}
	if len(fields) > 1 {
		scope = parseScope(fields[1])
	}

	result, err := h.rankQuery.Handle(ctx, query.GetUserRankQuery{
		UserID: fields[0],
		Scope:  scope,
	})
	if err != nil {
		return errorResponse("❌ Не удалось загрузить позицию участника. Попробуйте позже."), nil
	}

	return &Response{
		Text:      presenter.UserRank(result),
		ParseMode: "HTML",
	}, nil
}
