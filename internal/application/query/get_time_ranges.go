package query

import (
	"context"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TIME RANGES QUERY
// Получает навигационные окна времени для меню выбора периода:
// месяцы и годы, в которых есть решения, плюс текущие месяц и год.
// ══════════════════════════════════════════════════════════════════════════════

// GetTimeRangesResult содержит доступные окна времени.
type GetTimeRangesResult struct {
	// Months - месячные ключи "YYYY-MM" по возрастанию.
	Months []string `json:"months"`

	// Years - годы по возрастанию.
	Years []int `json:"years"`

	// CurrentMonth - ключ текущего месяца.
	CurrentMonth string `json:"current_month"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetTimeRangesHandler обрабатывает запросы окон времени.
type GetTimeRangesHandler struct {
	scores *scores.Service
}

// NewGetTimeRangesHandler создаёт новый обработчик окон времени.
func NewGetTimeRangesHandler(scores *scores.Service) *GetTimeRangesHandler {
	return &GetTimeRangesHandler{scores: scores}
}

// Handle выполняет запрос окон времени.
func (h *GetTimeRangesHandler) Handle(ctx context.Context) (*GetTimeRangesResult, error) {
	ranges := h.scores.GetAvailableTimeRanges(ctx)

	months := make([]string, 0, len(ranges.Months))
	for _, key := range ranges.Months {
		months = append(months, key.String())
	}

	result := &GetTimeRangesResult{
		Months:      months,
		Years:       ranges.Years,
		GeneratedAt: time.Now().UTC(),
	}
	if len(months) > 0 {
		result.CurrentMonth = months[len(months)-1]
	}
	return result, nil
}
