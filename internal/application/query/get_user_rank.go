package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/application/scores"
	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK QUERY
// Получает позицию участника, его агрегат и разбивку по соревнованиям
// в заданной области. При запросе расширенных метрик снапшот читается
// из 30-минутного пространства кеша.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserRankQuery содержит параметры запроса позиции участника.
type GetUserRankQuery struct {
	// UserID - идентификатор участника.
	UserID string

	// Scope - область запроса.
	Scope Scope

	// IncludeExtended - включить достиженческую статистику.
	IncludeExtended bool
}

// Validate проверяет корректность параметров запроса.
func (q *GetUserRankQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user id is required")
	}
	return q.Scope.Validate()
}

// CompetitionResultDTO - вклад одного соревнования в балл участника.
type CompetitionResultDTO struct {
	// CompetitionID - идентификатор соревнования.
	CompetitionID string `json:"competition_id"`

	// Title - название соревнования.
	Title string `json:"title"`

	// Weight - эффективный вес, применённый при подсчёте.
	Weight float64 `json:"weight"`

	// Solves - число решений участника в соревновании.
	Solves int `json:"solves"`

	// Score - нормализованный вклад соревнования.
	Score float64 `json:"score"`
}

// ExtendedMetricsDTO - достиженческая статистика участника.
type ExtendedMetricsDTO struct {
	FastSolves        int     `json:"fast_solves"`
	UltraFastSolves   int     `json:"ultra_fast_solves"`
	NightSolves       int     `json:"night_solves"`
	MorningSolves     int     `json:"morning_solves"`
	WeekendSolves     int     `json:"weekend_solves"`
	NightRatio        float64 `json:"night_ratio"`
	WeekendRatio      float64 `json:"weekend_ratio"`
	HardSolves        int     `json:"hard_solves"`
	ExpertSolves      int     `json:"expert_solves"`
	FirstBloods       int     `json:"first_bloods"`
	TeamSolves        int     `json:"team_solves"`
	LongestStreakDays int     `json:"longest_streak_days"`
	MembershipDays    int     `json:"membership_days"`
	RankImprovement   int     `json:"rank_improvement"`
}

// GetUserRankResult содержит результат запроса позиции участника.
type GetUserRankResult struct {
	// UserID - идентификатор участника.
	UserID string `json:"user_id"`

	// Ranked - присутствует ли участник в области запроса.
	Ranked bool `json:"ranked"`

	// Rank - позиция участника (1 = лучший); 0, если не ранжирован.
	Rank int `json:"rank"`

	// TotalUsers - всего участников в области.
	TotalUsers int `json:"total_users"`

	// Percentile - процентиль участника, 0-100.
	Percentile int `json:"percentile"`

	// TotalScore - нормализованный балл участника.
	TotalScore float64 `json:"total_score"`

	// SolveCount - полное число решений в области.
	SolveCount int `json:"solve_count"`

	// Competitions - разбивка по соревнованиям, по убыванию вклада.
	Competitions []CompetitionResultDTO `json:"competitions"`

	// Extended - достиженческая статистика; nil, если не запрашивалась.
	Extended *ExtendedMetricsDTO `json:"extended,omitempty"`

	// ScopeLabel - подпись области запроса.
	ScopeLabel string `json:"scope_label"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetUserRankHandler обрабатывает запросы позиции участника.
type GetUserRankHandler struct {
	scores *scores.Service
}

// NewGetUserRankHandler создаёт новый обработчик запроса позиции.
func NewGetUserRankHandler(scores *scores.Service) *GetUserRankHandler {
	return &GetUserRankHandler{scores: scores}
}

// Handle выполняет запрос позиции участника.
func (h *GetUserRankHandler) Handle(ctx context.Context, query GetUserRankQuery) (*GetUserRankResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetUserRank", shared.ErrValidation, err.Error(), err)
	}

	filter := query.Scope.Filter()
	snapshot := h.scores.GetCachedUserScores(ctx, filter, 0, query.IncludeExtended)

	result := &GetUserRankResult{
		UserID:      query.UserID,
		ScopeLabel:  query.Scope.Label(),
		TotalUsers:  len(snapshot),
		GeneratedAt: time.Now().UTC(),
	}

	userID := shared.UserID(query.UserID)
	agg, ok := snapshot[userID]
	if !ok {
		return result, nil
	}

	info, _ := h.scores.Engine().Rank(userID, snapshot)
	result.Ranked = true
	result.Rank = int(info.Rank)
	result.TotalUsers = info.TotalUsers
	result.Percentile = info.Percentile
	result.TotalScore = agg.TotalScore
	result.SolveCount = agg.SolveCount

	result.Competitions = make([]CompetitionResultDTO, 0, len(agg.Competitions))
	for _, id := range agg.CompetitionIDs() {
		res := agg.Competitions[id]
		result.Competitions = append(result.Competitions, CompetitionResultDTO{
			CompetitionID: id.String(),
			Title:         res.Title,
			Weight:        res.Weight,
			Solves:        res.Solves,
			Score:         res.Score,
		})
	}
	sortCompetitionResults(result.Competitions)

	if query.IncludeExtended && agg.Extended != nil {
		result.Extended = toExtendedDTO(agg.Extended)
	}
	return result, nil
}

// sortCompetitionResults упорядочивает разбивку по убыванию вклада.
func sortCompetitionResults(results []CompetitionResultDTO) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CompetitionID < results[j].CompetitionID
	})
}

// toExtendedDTO строит DTO достиженческой статистики.
func toExtendedDTO(ext *scoring.ExtendedMetrics) *ExtendedMetricsDTO {
	return &ExtendedMetricsDTO{
		FastSolves:        ext.FastSolves,
		UltraFastSolves:   ext.UltraFastSolves,
		NightSolves:       ext.NightSolves,
		MorningSolves:     ext.MorningSolves,
		WeekendSolves:     ext.WeekendSolves,
		NightRatio:        ext.NightRatio,
		WeekendRatio:      ext.WeekendRatio,
		HardSolves:        ext.HardSolves,
		ExpertSolves:      ext.ExpertSolves,
		FirstBloods:       ext.FirstBloods,
		TeamSolves:        ext.TeamSolves,
		LongestStreakDays: ext.LongestStreakDays,
		MembershipDays:    ext.MembershipDays,
		RankImprovement:   ext.RankImprovement,
	}
}
