// Package ranking выводит ранги, перцентили и сводную статистику из
// снапшота агрегатов очков. Снапшот не кешируется отдельно: относительно
// самой агрегации сортировка дешёвая, а каждый запрос работает со своей
// независимой вселенной рангов (глобальной, месячной или годовой).
package ranking

import (
	"math"
	"sort"

	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// РЕЗУЛЬТАТЫ
// ══════════════════════════════════════════════════════════════════════════════

// RankInfo - позиция пользователя в одной вселенной рангов.
type RankInfo struct {
	// Rank - позиция, начиная с 1.
	Rank shared.Rank

	// TotalUsers - размер вселенной.
	TotalUsers int

	// Percentile - округлённый перцентиль: round(rank / total * 100).
	// Последний в непустом снапшоте получает ровно 100.
	Percentile int
}

// GlobalStats - сводная статистика по всему снапшоту.
type GlobalStats struct {
	// TotalSolves - суммарное число решений всех пользователей.
	TotalSolves int

	// TotalScore - суммарный балл всех пользователей.
	TotalScore float64

	// AverageScore - средний балл на пользователя.
	AverageScore float64

	// MedianScore - балл среднего элемента убывающей сортировки.
	// При чётном числе пользователей берётся элемент с индексом n/2,
	// то есть нижняя середина; два средних не усредняются.
	MedianScore float64
}

// ══════════════════════════════════════════════════════════════════════════════
// ДВИЖОК РАНГОВ
// ══════════════════════════════════════════════════════════════════════════════

// Engine не имеет состояния; все методы - чистые функции от снапшота.
type Engine struct{}

// NewEngine создаёт движок рангов.
func NewEngine() *Engine {
	return &Engine{}
}

// Order возвращает агрегаты снапшота по убыванию балла.
// Равные баллы упорядочиваются по возрастанию идентификатора пользователя:
// это закрепляет строгий тотальный порядок рангов.
func (e *Engine) Order(snapshot map[shared.UserID]*scoring.UserScoreAggregate) []*scoring.UserScoreAggregate {
	ordered := make([]*scoring.UserScoreAggregate, 0, len(snapshot))
	for _, agg := range snapshot {
		ordered = append(ordered, agg)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].TotalScore != ordered[j].TotalScore {
			return ordered[i].TotalScore > ordered[j].TotalScore
		}
		return ordered[i].UserID < ordered[j].UserID
	})
	return ordered
}

// Leaderboard возвращает первые limit агрегатов убывающей сортировки.
// limit <= 0 возвращает весь список.
func (e *Engine) Leaderboard(snapshot map[shared.UserID]*scoring.UserScoreAggregate, limit int) []*scoring.UserScoreAggregate {
	ordered := e.Order(snapshot)
	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}
	return ordered
}

// Rank возвращает позицию пользователя в снапшоте.
// Второе значение false, если пользователя в снапшоте нет; что с этим
// делать - забота вызывающего.
func (e *Engine) Rank(userID shared.UserID, snapshot map[shared.UserID]*scoring.UserScoreAggregate) (RankInfo, bool) {
	if _, ok := snapshot[userID]; !ok {
		return RankInfo{}, false
	}

	ordered := e.Order(snapshot)
	for i, agg := range ordered {
		if agg.UserID == userID {
			rank := i + 1
			return RankInfo{
				Rank:       shared.Rank(rank),
				TotalUsers: len(ordered),
				Percentile: int(math.Round(float64(rank) / float64(len(ordered)) * 100)),
			}, true
		}
	}
	return RankInfo{}, false
}

// Ranks возвращает карту пользователь -> ранг для всего снапшота.
// Используется месячными вселенными рангов и историей рангов.
func (e *Engine) Ranks(snapshot map[shared.UserID]*scoring.UserScoreAggregate) map[shared.UserID]int {
	ordered := e.Order(snapshot)
	ranks := make(map[shared.UserID]int, len(ordered))
	for i, agg := range ordered {
		ranks[agg.UserID] = i + 1
	}
	return ranks
}

// Stats возвращает сводную статистику снапшота.
// Пустой снапшот даёт нулевую статистику.
func (e *Engine) Stats(snapshot map[shared.UserID]*scoring.UserScoreAggregate) GlobalStats {
	if len(snapshot) == 0 {
		return GlobalStats{}
	}

	ordered := e.Order(snapshot)

	var stats GlobalStats
	for _, agg := range ordered {
		stats.TotalSolves += agg.SolveCount
		stats.TotalScore += agg.TotalScore
	}
	stats.AverageScore = stats.TotalScore / float64(len(ordered))
	stats.MedianScore = ordered[len(ordered)/2].TotalScore
	return stats
}
