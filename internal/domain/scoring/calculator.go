package scoring

import (
	"context"
	"sort"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// КАЛЬКУЛЯТОР ОЧКОВ
// Главный алгоритм агрегации: сырые решения -> агрегаты по пользователям.
// Балл одного решения:
//
//	baseScore = (очки задания / максимум очков в соревновании)
//	          * эффективный вес соревнования
//	          * множитель сложности (редкость решения)
//
// Метаданные каждого соревнования разрешаются один раз на запуск, а не на
// каждое решение. Плохая запись пропускается и фиксируется в диагностике;
// одна плохая запись никогда не валит весь расчёт.
// ══════════════════════════════════════════════════════════════════════════════

// Причины пропуска решения в диагностике.
const (
	SkipReasonChallengeUnresolved   = "challenge reference unresolved"
	SkipReasonCompetitionUnresolved = "competition metadata unresolved"
)

// SkippedSolve - запись диагностики об одном пропущенном решении.
type SkippedSolve struct {
	CompetitionID shared.CompetitionID
	ChallengeRef  string
	SolvedAt      time.Time
	Reason        string
}

// Outcome - помеченный результат расчёта: агрегаты плюс диагностика.
// Явный тип вместо голой карты делает политику "вернуть пустой результат
// при ошибке" осознанным адаптером на границе, а не молчаливым
// проглатыванием ошибок по всей цепочке вызовов.
type Outcome struct {
	// Aggregates - свежий, независимый снапшот по пользователям.
	Aggregates map[shared.UserID]*UserScoreAggregate

	// Skipped - решения, исключённые из расчёта, с причинами.
	Skipped []SkippedSolve
}

// competitionContext - однократно разрешённые данные одного соревнования.
type competitionContext struct {
	info            CompetitionInfo
	maxPoints       float64
	maxSolves       int
	effectiveWeight float64
	resolved        bool
}

// Calculator считает агрегаты очков поверх сырого хранилища.
// Не имеет состояния: каждый вызов - чистая функция от текущего содержимого
// хранилища.
type Calculator struct {
	solves  SolveRepository
	weights *WeightResolver
}

// NewCalculator создаёт калькулятор.
func NewCalculator(solves SolveRepository, weights *WeightResolver) *Calculator {
	return &Calculator{
		solves:  solves,
		weights: weights,
	}
}

// Calculate выполняет полный расчёт для фильтра.
// Ошибка возвращается только при недоступности хранилища на первом шаге;
// все частные сбои дальше превращаются в пропуски с диагностикой.
func (c *Calculator) Calculate(ctx context.Context, filter SolveFilter) (*Outcome, error) {
	filter = filter.Normalize()

	// Шаг 1: все решения в области фильтра.
	records, err := c.solves.FindSolves(ctx, filter)
	if err != nil {
		return nil, shared.WrapError("scoring", "Calculate", shared.ErrStoreUnavailable, "failed to fetch solves", err)
	}

	outcome := &Outcome{
		Aggregates: make(map[shared.UserID]*UserScoreAggregate),
	}
	if len(records) == 0 {
		return outcome, nil
	}

	// Шаг 2: метаданные соревнований, по одному разу на соревнование.
	contexts := c.resolveCompetitions(ctx, records)

	// Шаг 3: раскладываем решения по пользователям.
	candidates := make(map[shared.UserID][]SolveEntry)
	userOrder := make([]shared.UserID, 0)
	for i := range records {
		rec := &records[i]

		if !rec.IsResolved() {
			outcome.Skipped = append(outcome.Skipped, SkippedSolve{
				CompetitionID: rec.CompetitionID,
				ChallengeRef:  rec.ChallengeRef,
				SolvedAt:      rec.SolvedAt,
				Reason:        SkipReasonChallengeUnresolved,
			})
			continue
		}

		cc, ok := contexts[rec.CompetitionID]
		if !ok || !cc.resolved {
			outcome.Skipped = append(outcome.Skipped, SkippedSolve{
				CompetitionID: rec.CompetitionID,
				ChallengeRef:  rec.ChallengeRef,
				SolvedAt:      rec.SolvedAt,
				Reason:        SkipReasonCompetitionUnresolved,
			})
			continue
		}

		for _, userID := range rec.UserIDs {
			if _, seen := candidates[userID]; !seen {
				userOrder = append(userOrder, userID)
			}
			candidates[userID] = append(candidates[userID], SolveEntry{
				CompetitionID:   rec.CompetitionID,
				Challenge:       rec.Challenge.Name,
				Category:        rec.Challenge.Category,
				Points:          rec.Challenge.Points,
				SolvedAt:        rec.SolvedAt,
				CoSolvers:       rec.CoSolvers(userID),
				ChallengeSolves: rec.Challenge.SolveCount,
			})
		}
	}

	// Шаг 4-5: накапливаем суммы и усекаем выборку решений.
	// Порядок пользователей из userOrder даёт детерминированный порядок
	// суммирования с плавающей точкой.
	for _, userID := range userOrder {
		outcome.Aggregates[userID] = c.buildAggregate(userID, candidates[userID], contexts)
	}

	return outcome, nil
}

// resolveCompetitions однократно разрешает статистику, метаданные и
// эффективный вес каждого соревнования, встречающегося в записях.
// Соревнование без статистики или метаданных помечается неразрешённым;
// его решения будут пропущены, но расчёт продолжится.
func (c *Calculator) resolveCompetitions(ctx context.Context, records []SolveRecord) map[shared.CompetitionID]*competitionContext {
	seen := make(map[shared.CompetitionID]struct{})
	ids := make([]shared.CompetitionID, 0)
	for i := range records {
		id := records[i].CompetitionID
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	contexts := make(map[shared.CompetitionID]*competitionContext, len(ids))
	for _, id := range ids {
		contexts[id] = &competitionContext{}
	}

	stats, statsErr := c.solves.CompetitionStats(ctx, ids)
	infos, infoErr := c.solves.CompetitionsByID(ctx, ids)
	if statsErr != nil || infoErr != nil {
		// Пакетный сбой: все соревнования остаются неразрешёнными,
		// их решения уйдут в диагностику.
		return contexts
	}

	for _, id := range ids {
		st, hasStats := stats[id]
		info, hasInfo := infos[id]
		if !hasStats || !hasInfo {
			continue
		}

		cc := contexts[id]
		cc.info = info
		cc.maxPoints = float64(st.MaxPoints)
		if cc.maxPoints < 1 {
			cc.maxPoints = 1
		}
		cc.maxSolves = st.MaxSolves
		cc.effectiveWeight = c.weights.EffectiveWeight(ctx, id, info.Weight).Float64()
		cc.resolved = true
	}
	return contexts
}

// buildAggregate собирает агрегат одного пользователя из его решений.
func (c *Calculator) buildAggregate(userID shared.UserID, entries []SolveEntry, contexts map[shared.CompetitionID]*competitionContext) *UserScoreAggregate {
	agg := NewUserScoreAggregate(userID)
	agg.SolveCount = len(entries)

	for _, entry := range entries {
		cc := contexts[entry.CompetitionID]

		multiplier := Multiplier(entry.ChallengeSolves, cc.maxSolves)
		baseScore := float64(entry.Points) / cc.maxPoints * cc.effectiveWeight * multiplier

		agg.TotalScore += baseScore
		agg.Categories.Add(entry.Category)

		res, ok := agg.Competitions[entry.CompetitionID]
		if !ok {
			res = &CompetitionResult{
				Title:  cc.info.Title,
				Weight: cc.effectiveWeight,
			}
			agg.Competitions[entry.CompetitionID] = res
		}
		res.Solves++
		res.RawPoints += int(entry.Points)
		res.Score += baseScore
	}

	// Выборка для отображения: топ по стоимости задания, не более лимита.
	sorted := make([]SolveEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		if !sorted[i].SolvedAt.Equal(sorted[j].SolvedAt) {
			return sorted[i].SolvedAt.After(sorted[j].SolvedAt)
		}
		return sorted[i].Challenge < sorted[j].Challenge
	})
	if len(sorted) > RecentSolvesLimit {
		sorted = sorted[:RecentSolvesLimit]
	}
	agg.RecentSolves = sorted

	return agg
}
