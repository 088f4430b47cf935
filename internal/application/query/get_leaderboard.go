// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N участников лидерборда в заданной области: глобально,
// за месяц, за год или по одному соревнованию. Поддерживает пагинацию
// и поисковый фильтр по идентификатору участника.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Scope - область запроса (глобальная / месяц / год / соревнование).
	Scope Scope

	// SearchTerm - подстрока идентификатора участника для фильтрации
	// отображения. Ранги при этом считаются по полному снапшоту области.
	SearchTerm string

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// Offset - смещение для пагинации.
	Offset int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if err := q.Scope.Validate(); err != nil {
		return err
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// LeaderboardEntryDTO - DTO для записи лидерборда (Data Transfer Object).
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге области запроса (начиная с 1).
	Rank int `json:"rank"`

	// UserID - идентификатор участника.
	UserID string `json:"user_id"`

	// TotalScore - нормализованный балл участника.
	TotalScore float64 `json:"total_score"`

	// SolveCount - полное число решений участника в области.
	SolveCount int `json:"solve_count"`

	// Categories - категории решённых заданий, по алфавиту.
	Categories []string `json:"categories"`

	// Competitions - число соревнований, в которых участник решал задания.
	Competitions int `json:"competitions"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - записи лидерборда.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalCount - общее число участников в области запроса.
	TotalCount int `json:"total_count"`

	// ScopeLabel - подпись области запроса для заголовков.
	ScopeLabel string `json:"scope_label"`

	// AverageScore - средний балл по области.
	AverageScore float64 `json:"average_score"`

	// MedianScore - медианный балл по области.
	MedianScore float64 `json:"median_score"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`

	// HasMore - есть ли ещё записи после текущей страницы.
	HasMore bool `json:"has_more"`

	// Page - текущая страница (1-based).
	Page int `json:"page"`

	// PageSize - размер страницы.
	PageSize int `json:"page_size"`
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	scores *scores.Service
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
func NewGetLeaderboardHandler(scores *scores.Service) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{scores: scores}
}

// Handle выполняет запрос на получение лидерборда.
// Ранги присваиваются по полному снапшоту области до применения
// поискового фильтра: поиск сужает отображение, но не перенумеровывает
// участников.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	filter := query.Scope.Filter()
	snapshot := h.scores.GetCachedUserScores(ctx, filter, 0, false)
	ordered := h.scores.Engine().Order(snapshot)
	stats := h.scores.Engine().Stats(snapshot)

	entries := make([]LeaderboardEntryDTO, 0, len(ordered))
	term := strings.ToLower(strings.TrimSpace(query.SearchTerm))
	for i, agg := range ordered {
		if term != "" && !strings.Contains(strings.ToLower(agg.UserID.String()), term) {
			continue
		}
		entries = append(entries, toLeaderboardEntry(i+1, agg))
	}

	paginated := paginate(entries, query.Offset, query.Limit)

	return &GetLeaderboardResult{
		Entries:      paginated,
		TotalCount:   len(ordered),
		ScopeLabel:   query.Scope.Label(),
		AverageScore: stats.AverageScore,
		MedianScore:  stats.MedianScore,
		GeneratedAt:  time.Now().UTC(),
		HasMore:      query.Offset+len(paginated) < len(entries),
		Page:         query.Offset/query.Limit + 1,
		PageSize:     query.Limit,
	}, nil
}

// toLeaderboardEntry строит DTO записи лидерборда.
func toLeaderboardEntry(rank int, agg *scoring.UserScoreAggregate) LeaderboardEntryDTO {
	categories := make([]string, 0, agg.Categories.Len())
	for _, c := range agg.Categories.Sorted() {
		categories = append(categories, c.String())
	}
	return LeaderboardEntryDTO{
		Rank:         rank,
		UserID:       agg.UserID.String(),
		TotalScore:   agg.TotalScore,
		SolveCount:   agg.SolveCount,
		Categories:   categories,
		Competitions: len(agg.Competitions),
	}
}

// paginate применяет смещение и лимит к отфильтрованным записям.
func paginate(entries []LeaderboardEntryDTO, offset, limit int) []LeaderboardEntryDTO {
	if offset >= len(entries) {
		return []LeaderboardEntryDTO{}
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}
