package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/external/telegram"
	"github.com/ctfhub/ctf-community-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOP HANDLER
// Handles /top command - shows the leaderboard for a scope.
// Usage: /top [YYYY-MM | YYYY | competition-id] [search term]
// ══════════════════════════════════════════════════════════════════════════════

// TopHandler handles the /top command.
type TopHandler struct {
	leaderboardQuery *query.GetLeaderboardHandler
}

// NewTopHandler creates a new TopHandler.
func NewTopHandler(leaderboardQuery *query.GetLeaderboardHandler) *TopHandler {
	return &TopHandler{leaderboardQuery: leaderboardQuery}
}

// TopRequest contains the parsed /top command data.
type TopRequest struct {
	// Args is the raw command arguments.
	Args string

	// Offset is the pagination offset (set from callback navigation).
	Offset int

	// Limit is the number of entries to show.
	Limit int
}

// Handle processes the /top command.
func (h *TopHandler) Handle(ctx context.Context, req TopRequest) (*Response, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	scope, search := splitTopArgs(req.Args)

	result, err := h.leaderboardQuery.Handle(ctx, query.GetLeaderboardQuery{
		Scope:      scope,
		SearchTerm: search,
		Limit:      limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return errorResponse("❌ Не удалось загрузить рейтинг. Попробуйте позже."), nil
	}

	return &Response{
		Text:      presenter.Leaderboard(result),
		Keyboard:  h.navigationKeyboard(scope, req.Offset, limit, result.HasMore),
		ParseMode: "HTML",
	}, nil
}

// splitTopArgs разделяет аргументы на область и поисковый запрос.
func splitTopArgs(args string) (query.Scope, string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return query.Scope{}, ""
	}
	scope := parseScope(fields[0])
	// Невалидная область трактуется как поисковый запрос целиком.
	if err := scope.Validate(); err != nil {
		return query.Scope{}, strings.Join(fields, " ")
	}
	return scope, strings.Join(fields[1:], " ")
}

// navigationKeyboard строит клавиатуру пагинации для лидерборда.
func (h *TopHandler) navigationKeyboard(scope query.Scope, offset, limit int, hasMore bool) *telegram.InlineKeyboardMarkup {
	kb := telegram.NewKeyboard()
	scopeArg := scopeCallbackArg(scope)
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		kb.Button("⬅️ Назад", fmt.Sprintf("top:%s:%d", scopeArg, prev))
	}
	if hasMore {
		kb.Button("Вперёд ➡️", fmt.Sprintf("top:%s:%d", scopeArg, offset+limit))
	}
	kb.Row().Button("🔄 Обновить", fmt.Sprintf("top:%s:%d", scopeArg, offset))
	return kb.Build()
}

// scopeCallbackArg кодирует область для callback-данных.
func scopeCallbackArg(scope query.Scope) string {
	switch {
	case scope.CompetitionID != "":
		return scope.CompetitionID
	case scope.Month != "":
		return scope.Month
	case scope.Year != 0:
		return fmt.Sprintf("%d", scope.Year)
	default:
		return "-"
	}
}
