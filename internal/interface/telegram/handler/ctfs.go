package handler

import (
	"context"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
	"github.com/ctfhub/ctf-community-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// CTFS HANDLER
// Handles /ctfs command - shows recent competition activity.
// ══════════════════════════════════════════════════════════════════════════════

// CtfsHandler handles the /ctfs command.
type CtfsHandler struct {
	competitionsQuery *query.GetCompetitionsHandler
}

// NewCtfsHandler creates a new CtfsHandler.
func NewCtfsHandler(competitionsQuery *query.GetCompetitionsHandler) *CtfsHandler {
	return &CtfsHandler{competitionsQuery: competitionsQuery}
}

// Handle processes the /ctfs command.
func (h *CtfsHandler) Handle(ctx context.Context) (*Response, error) {
	result, err := h.competitionsQuery.Handle(ctx, query.GetCompetitionsQuery{})
	if err != nil {
		return errorResponse("❌ Не удалось загрузить список соревнований. Попробуйте позже."), nil
	}

	return &Response{
		Text:      presenter.Competitions(result),
		ParseMode: "HTML",
	}, nil
}
