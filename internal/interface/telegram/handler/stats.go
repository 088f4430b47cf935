package handler

import (
	"context"
	"strings"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// Handles /stats command - shows achievement metrics and category breakdown.
// Usage: /stats <user-id>
// ══════════════════════════════════════════════════════════════════════════════

// StatsHandler handles the /stats command.
type StatsHandler struct {
	rankQuery     *query.GetUserRankHandler
	categoryQuery *query.GetCategoryStatsHandler
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(
	rankQuery *query.GetUserRankHandler,
	categoryQuery *query.GetCategoryStatsHandler,
) *StatsHandler {
	return &StatsHandler{
		rankQuery:     rankQuery,
		categoryQuery: categoryQuery,
	}
}

// StatsRequest contains the parsed /stats command data.
type StatsRequest struct {
	// Args is the raw command arguments.
	Args string
}

// Handle processes the /stats command.
func (h *StatsHandler) Handle(ctx context.Context, req StatsRequest) (*Response, error) {
	userID := strings.TrimSpace(req.Args)
	if userID == "" {
		return errorResponse("Укажите участника: <code>/stats &lt;id&gt;</code>"), nil
	}

	rank, err := h.rankQuery.Handle(ctx, query.GetUserRankQuery{
		UserID:          userID,
		IncludeExtended: true,
	})
	if err != nil {
		return errorResponse("❌ Не удалось загрузить статистику. Попробуйте позже."), nil
	}

	// Разбивка по категориям вторична: её отказ не прячет карточку.
	categories, err := h.categoryQuery.Handle(ctx, query.GetCategoryStatsQuery{UserID: userID})
	if err != nil {
		categories = nil
	}

	return &Response{
		Text:      presenter.UserStats(rank, categories),
		ParseMode: "HTML",
	}, nil
}
