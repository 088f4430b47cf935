package query

import (
	"context"
	"errors"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COMPETITIONS QUERY
// Получает обзор соревнований с агрегатами участия для списков вида
// "/ctfs": сколько решений, сколько участников, когда была активность.
// ══════════════════════════════════════════════════════════════════════════════

// GetCompetitionsQuery содержит параметры запроса списка соревнований.
type GetCompetitionsQuery struct {
	// Limit - количество записей (по умолчанию 10, максимум 50).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetCompetitionsQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	return nil
}

// CompetitionActivityDTO - агрегат участия по одному соревнованию.
type CompetitionActivityDTO struct {
	// CompetitionID - идентификатор соревнования.
	CompetitionID string `json:"competition_id"`

	// Title - название соревнования.
	Title string `json:"title"`

	// TotalSolves - суммарное число решений.
	TotalSolves int `json:"total_solves"`

	// UniqueUsers - число уникальных участников.
	UniqueUsers int `json:"unique_users"`

	// FirstSolve - время первого решения.
	FirstSolve time.Time `json:"first_solve"`

	// LastSolve - время последнего решения.
	LastSolve time.Time `json:"last_solve"`
}

// GetCompetitionsResult содержит результат запроса списка соревнований.
type GetCompetitionsResult struct {
	// Competitions - соревнования по убыванию времени последнего решения.
	Competitions []CompetitionActivityDTO `json:"competitions"`

	// TotalCount - общее число соревнований с решениями.
	TotalCount int `json:"total_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetCompetitionsHandler обрабатывает запросы списка соревнований.
type GetCompetitionsHandler struct {
	scores *scores.Service
}

// NewGetCompetitionsHandler создаёт новый обработчик списка соревнований.
func NewGetCompetitionsHandler(scores *scores.Service) *GetCompetitionsHandler {
	return &GetCompetitionsHandler{scores: scores}
}

// Handle выполняет запрос списка соревнований.
func (h *GetCompetitionsHandler) Handle(ctx context.Context, query GetCompetitionsQuery) (*GetCompetitionsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetCompetitions", shared.ErrValidation, err.Error(), err)
	}

	activity := h.scores.GetCompetitionActivity(ctx)

	limit := query.Limit
	if limit > len(activity) {
		limit = len(activity)
	}

	competitions := make([]CompetitionActivityDTO, 0, limit)
	for _, a := range activity[:limit] {
		competitions = append(competitions, CompetitionActivityDTO{
			CompetitionID: a.CompetitionID.String(),
			Title:         a.Title,
			TotalSolves:   a.TotalSolves,
			UniqueUsers:   a.UniqueUsers,
			FirstSolve:    a.FirstSolve,
			LastSolve:     a.LastSolve,
		})
	}

	return &GetCompetitionsResult{
		Competitions: competitions,
		TotalCount:   len(activity),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
