package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// MONTHS HANDLER
// Handles /months command - lists the time ranges available for /top.
// ══════════════════════════════════════════════════════════════════════════════

// MonthsHandler handles the /months command.
type MonthsHandler struct {
	timeRangesQuery *query.GetTimeRangesHandler
}

// NewMonthsHandler creates a new MonthsHandler.
func NewMonthsHandler(timeRangesQuery *query.GetTimeRangesHandler) *MonthsHandler {
	return &MonthsHandler{timeRangesQuery: timeRangesQuery}
}

// Handle processes the /months command.
func (h *MonthsHandler) Handle(ctx context.Context) (*Response, error) {
	result, err := h.timeRangesQuery.Handle(ctx)
	if err != nil {
		return errorResponse("❌ Не удалось загрузить доступные периоды. Попробуйте позже."), nil
	}

	var b strings.Builder
	b.WriteString("📅 <b>Доступные периоды</b>\n\n")

	b.WriteString("<b>Месяцы:</b>\n")
	// Последние месяцы первыми.
	months := result.Months
	if len(months) > 12 {
		months = months[len(months)-12:]
	}
	for i := len(months) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("• <code>/top %s</code>\n", months[i]))
	}

	b.WriteString("\n<b>Годы:</b>\n")
	for i := len(result.Years) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("• <code>/top %d</code>\n", result.Years[i]))
	}

	return &Response{
		Text:      b.String(),
		ParseMode: "HTML",
	}, nil
}
