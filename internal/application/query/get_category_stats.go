package query

import (
	"context"
	"errors"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CATEGORY STATS QUERY
// Получает разбивку балла участника по категориям заданий. Если выборка
// решений агрегата неполная, сервис очков сам выгружает полную историю.
// ══════════════════════════════════════════════════════════════════════════════

// GetCategoryStatsQuery содержит параметры запроса статистики категорий.
type GetCategoryStatsQuery struct {
	// UserID - идентификатор участника.
	UserID string

	// CompetitionID ограничивает статистику одним соревнованием
	// (пустая строка = вся история).
	CompetitionID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetCategoryStatsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user id is required")
	}
	return nil
}

// CategoryStatDTO - вклад одной категории в балл участника.
type CategoryStatDTO struct {
	// Category - категория заданий.
	Category string `json:"category"`

	// Solves - число решений участника в категории.
	Solves int `json:"solves"`

	// Score - балл, отнесённый на категорию.
	Score float64 `json:"score"`

	// Percent - доля категории, 0-100.
	Percent float64 `json:"percent"`
}

// GetCategoryStatsResult содержит результат запроса статистики категорий.
type GetCategoryStatsResult struct {
	// UserID - идентификатор участника.
	UserID string `json:"user_id"`

	// Categories - статистика по категориям, по убыванию балла.
	Categories []CategoryStatDTO `json:"categories"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetCategoryStatsHandler обрабатывает запросы статистики категорий.
type GetCategoryStatsHandler struct {
	scores *scores.Service
}

// NewGetCategoryStatsHandler создаёт новый обработчик статистики категорий.
func NewGetCategoryStatsHandler(scores *scores.Service) *GetCategoryStatsHandler {
	return &GetCategoryStatsHandler{scores: scores}
}

// Handle выполняет запрос статистики категорий.
func (h *GetCategoryStatsHandler) Handle(ctx context.Context, query GetCategoryStatsQuery) (*GetCategoryStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetCategoryStats", shared.ErrValidation, err.Error(), err)
	}

	competitionID := shared.CompetitionID(query.CompetitionID)
	scope := Scope{CompetitionID: query.CompetitionID}
	snapshot := h.scores.GetCachedUserScores(ctx, scope.Filter(), 0, false)

	result := &GetCategoryStatsResult{
		UserID:      query.UserID,
		Categories:  []CategoryStatDTO{},
		GeneratedAt: time.Now().UTC(),
	}

	agg, ok := snapshot[shared.UserID(query.UserID)]
	if !ok {
		return result, nil
	}

	for _, stat := range h.scores.CategoryStats(ctx, agg, competitionID) {
		result.Categories = append(result.Categories, CategoryStatDTO{
			Category: stat.Category.String(),
			Solves:   stat.Solves,
			Score:    stat.Score,
			Percent:  stat.Percent,
		})
	}
	return result, nil
}
