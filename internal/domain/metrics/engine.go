package metrics

import (
	"context"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
	"github.com/ctfhub/ctf-community-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ДВИЖОК РАСШИРЕННЫХ МЕТРИК
// Один проход по истории, отсортированной по времени, на пользователя.
// Пользователи обрабатываются ограниченными партиями, чтобы не обрушить
// на сырое хранилище неограниченное число одновременных подзапросов.
// ══════════════════════════════════════════════════════════════════════════════

// Пороговые значения эвристик сложности по стоимости задания.
const (
	// FastSolveMaxPoints - потолок "быстрого" (дешёвого) решения.
	FastSolveMaxPoints = 100

	// UltraFastSolveMaxPoints - потолок "сверхбыстрого" решения.
	UltraFastSolveMaxPoints = 50

	// HardSolveMinPoints - нижняя граница сложного задания.
	HardSolveMinPoints = 400

	// ExpertSolveMinPoints - нижняя граница экспертного задания.
	ExpertSolveMinPoints = 500

	// FirstBloodMinPoints - эвристика первой крови: настолько дорогие
	// задания скорее всего были решены первыми.
	FirstBloodMinPoints = 450

	// DefaultChunkSize - размер партии пользователей на один проход.
	DefaultChunkSize = 25
)

// RankHistory - источник месячной истории рангов для показателя
// улучшения ранга. Реализуется сервисом очков поверх кеша месячных
// вселенных.
type RankHistory interface {
	// AvailableMonths возвращает упорядоченный список месячных ключей,
	// по которым есть решения.
	AvailableMonths(ctx context.Context) ([]shared.MonthKey, error)

	// MonthlyRanks возвращает карту пользователь -> ранг для месяца.
	MonthlyRanks(ctx context.Context, key shared.MonthKey) (map[shared.UserID]int, error)
}

// Engine вычисляет дельты расширенных метрик.
type Engine struct {
	solves    scoring.SolveRepository
	ranks     RankHistory
	chunkSize int
	now       func() time.Time
}

// NewEngine создаёт движок поверх сырого хранилища и истории рангов.
func NewEngine(solves scoring.SolveRepository, ranks RankHistory) *Engine {
	return &Engine{
		solves:    solves,
		ranks:     ranks,
		chunkSize: DefaultChunkSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithChunkSize задаёт размер партии (для тестов и настройки).
func (e *Engine) WithChunkSize(n int) *Engine {
	if n > 0 {
		e.chunkSize = n
	}
	return e
}

// WithClock подменяет источник времени (для тестов).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CalculateForUsers возвращает дельту для каждого пользователя из снапшота.
// При include == false возвращаются пустые дельты без единого запроса
// к хранилищу. Сбой истории одного пользователя даёт ему пустую дельту,
// не прерывая партию.
func (e *Engine) CalculateForUsers(
	ctx context.Context,
	aggregates map[shared.UserID]*scoring.UserScoreAggregate,
	include bool,
) (map[shared.UserID]Delta, error) {
	deltas := make(map[shared.UserID]Delta, len(aggregates))
	if !include {
		for userID := range aggregates {
			deltas[userID] = EmptyDelta()
		}
		return deltas, nil
	}

	userIDs := make([]shared.UserID, 0, len(aggregates))
	for userID := range aggregates {
		userIDs = append(userIDs, userID)
	}

	// История месячных рангов общая для всех пользователей партии.
	rankHistory := e.fetchRankHistory(ctx)

	for start := 0; start < len(userIDs); start += e.chunkSize {
		end := start + e.chunkSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		for _, userID := range userIDs[start:end] {
			deltas[userID] = e.calculateForUser(ctx, userID, rankHistory)
		}
	}
	return deltas, nil
}

// monthRanks - ранги одного месяца в хронологическом порядке месяцев.
type monthRanks struct {
	key   shared.MonthKey
	ranks map[shared.UserID]int
}

// fetchRankHistory выгружает помесячные ранги один раз на вызов движка.
// Любой сбой даёт пустую историю: улучшение ранга просто останется нулём.
func (e *Engine) fetchRankHistory(ctx context.Context) []monthRanks {
	if e.ranks == nil {
		return nil
	}
	months, err := e.ranks.AvailableMonths(ctx)
	if err != nil {
		return nil
	}
	history := make([]monthRanks, 0, len(months))
	for _, key := range months {
		ranks, err := e.ranks.MonthlyRanks(ctx, key)
		if err != nil {
			continue
		}
		history = append(history, monthRanks{key: key, ranks: ranks})
	}
	return history
}

// calculateForUser строит дельту одного пользователя по полной истории.
func (e *Engine) calculateForUser(ctx context.Context, userID shared.UserID, rankHistory []monthRanks) Delta {
	history, err := e.solves.UserSolveHistory(ctx, userID, "")
	if err != nil {
		return EmptyDelta()
	}

	delta := Delta{
		Computed:       true,
		CategorySolves: make(map[shared.Category]int),
	}

	var (
		total      int
		streak     int
		lastDay    time.Time
		haveStreak bool
	)

	for i := range history {
		rec := &history[i]
		if rec.Challenge == nil {
			continue
		}
		total++

		points := int(rec.Challenge.Points)
		delta.CategorySolves[rec.Challenge.Category.Normalize()]++

		if points <= UltraFastSolveMaxPoints {
			delta.UltraFastSolves++
		}
		if points <= FastSolveMaxPoints {
			delta.FastSolves++
		}
		if points >= HardSolveMinPoints {
			delta.HardSolves++
		}
		if points >= ExpertSolveMinPoints {
			delta.ExpertSolves++
		}
		if points >= FirstBloodMinPoints {
			delta.FirstBloods++
		}

		if timeutil.IsNight(rec.SolvedAt) {
			delta.NightSolves++
		}
		if timeutil.IsEarlyMorning(rec.SolvedAt) {
			delta.MorningSolves++
		}
		if timeutil.IsWeekend(rec.SolvedAt) {
			delta.WeekendSolves++
		}
		if len(rec.UserIDs) > 1 {
			delta.TeamSolves++
		}

		// Серия календарных дней: повтор в тот же день серию не длит,
		// но и не рвёт; рвёт только пропуск дня.
		day := timeutil.StartOfDay(rec.SolvedAt)
		switch {
		case !haveStreak:
			streak = 1
			haveStreak = true
		case day.Equal(lastDay):
			// тот же день
		case timeutil.DaysBetween(lastDay, day) == 1:
			streak++
		default:
			streak = 1
		}
		lastDay = day
		if streak > delta.LongestStreakDays {
			delta.LongestStreakDays = streak
		}
	}

	if total > 0 {
		delta.NightRatio = float64(delta.NightSolves) / float64(total)
		delta.WeekendRatio = float64(delta.WeekendSolves) / float64(total)
	}

	if joinedAt, err := e.solves.UserJoinedAt(ctx, userID); err == nil && !joinedAt.IsZero() {
		if days := timeutil.DaysBetween(joinedAt, e.now()); days > 0 {
			delta.MembershipDays = days
		}
	}

	delta.RankImprovement = rankImprovement(userID, rankHistory)
	return delta
}

// rankImprovement возвращает разницу между самым ранним и самым поздним
// доступным месячным рангом пользователя. Ухудшение ранга сообщается как
// ноль, а не как отрицательное число.
func rankImprovement(userID shared.UserID, history []monthRanks) int {
	first, last := 0, 0
	for _, month := range history {
		rank, ok := month.ranks[userID]
		if !ok {
			continue
		}
		if first == 0 {
			first = rank
		}
		last = rank
	}
	if first == 0 || last == 0 {
		return 0
	}
	improvement := first - last
	if improvement < 0 {
		return 0
	}
	return improvement
}
