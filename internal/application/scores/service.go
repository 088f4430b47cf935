// Package scores orchestrates the scoring core behind a single service:
// calculation, memoization, ranking universes, and extended metrics.
// Queries never modify state - the service only reads the raw store and
// its own cache. This is the boundary where store failures turn into safe
// empty results so that one bad query never crashes a caller.
package scores

import (
	"context"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/metrics"
	"github.com/ctfhub/ctf-community-hub/internal/domain/ranking"
	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
	"github.com/ctfhub/ctf-community-hub/internal/infrastructure/cache"
	"github.com/ctfhub/ctf-community-hub/pkg/logger"
	"github.com/ctfhub/ctf-community-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// СЕРВИС ОЧКОВ
// Внешний API ядра (§ операции для чат-команд и HTTP-слоя):
// свежий расчёт, кешированный расчёт, лидерборд, месячные вселенные рангов
// и доступные окна времени.
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - неизменяемый снапшот агрегатов одного запроса.
type Snapshot = map[shared.UserID]*scoring.UserScoreAggregate

// TimeRanges - навигационные окна времени, выведенные из границ решений.
// Текущий месяц и год присутствуют всегда, даже при нуле решений, чтобы
// вызывающий слой мог предложить их как (пустую) опцию.
type TimeRanges struct {
	// Months - упорядоченные по возрастанию месячные ключи.
	Months []shared.MonthKey

	// Years - упорядоченные по возрастанию годы.
	Years []int
}

// Service - сервис очков. Явный объект с внедрёнными зависимостями,
// не глобальное состояние.
type Service struct {
	solves  scoring.SolveRepository
	calc    *scoring.Calculator
	engine  *ranking.Engine
	metrics *metrics.Engine
	cache   *cache.ScoreCache
	log     *logger.Logger
	now     func() time.Time
}

// New создаёт сервис поверх сырого хранилища и кеша.
// Движок расширенных метрик получает сам сервис как историю месячных
// рангов: улучшение ранга выводится из тех же кешированных вселенных.
func New(
	solves scoring.SolveRepository,
	retries scoring.WeightRetryRepository,
	scoreCache *cache.ScoreCache,
	log *logger.Logger,
) *Service {
	s := &Service{
		solves: solves,
		calc:   scoring.NewCalculator(solves, scoring.NewWeightResolver(retries)),
		engine: ranking.NewEngine(),
		cache:  scoreCache,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.metrics = metrics.NewEngine(solves, s)
	return s
}

// WithClock подменяет источник времени (для тестов).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	if s.metrics != nil {
		s.metrics.WithClock(now)
	}
	return s
}

// Engine возвращает движок рангов для вычислений поверх снапшотов.
func (s *Service) Engine() *ranking.Engine {
	return s.engine
}

// ─────────────────────────────────────────────────────────────────────────────
// СВЕЖИЙ РАСЧЁТ
// ─────────────────────────────────────────────────────────────────────────────

// CalculateUserScores выполняет некешированный расчёт. Недоступность
// хранилища логируется и превращается в пустой снапшот: политика
// "мягкого отказа" применяется единообразно на этой границе.
func (s *Service) CalculateUserScores(ctx context.Context, filter scoring.SolveFilter) Snapshot {
	outcome, err := s.calc.Calculate(ctx, filter)
	if err != nil {
		s.logStoreFailure("CalculateUserScores", err)
		return Snapshot{}
	}
	s.logDiagnostics(outcome)
	return outcome.Aggregates
}

// ─────────────────────────────────────────────────────────────────────────────
// КЕШИРОВАННЫЙ РАСЧЁТ
// ─────────────────────────────────────────────────────────────────────────────

// GetCachedUserScores возвращает снапшот через кеш. ttl == 0 выбирает
// срок по умолчанию: 30 минут с расширенными метриками, иначе 10 минут.
// Попадание в кеш возвращает закешированный снапшот без пересчёта.
func (s *Service) GetCachedUserScores(
	ctx context.Context,
	filter scoring.SolveFilter,
	ttl time.Duration,
	includeExtended bool,
) Snapshot {
	key := cache.ScoresKey(filter.Fingerprint(includeExtended))
	if payload, ok := s.cache.Get(key); ok {
		if snapshot, ok := payload.(Snapshot); ok {
			return snapshot
		}
	}

	snapshot := s.CalculateUserScores(ctx, filter)

	if includeExtended {
		deltas, err := s.metrics.CalculateForUsers(ctx, snapshot, true)
		if err != nil {
			s.log.Warn("extended metrics enrichment failed",
				logger.Component("scores"), logger.Err(err))
		} else {
			for userID, agg := range snapshot {
				deltas[userID].ApplyTo(agg)
			}
		}
	}

	if ttl <= 0 {
		if includeExtended {
			ttl = cache.TTLScoresExtended
		} else {
			ttl = cache.TTLScores
		}
	}
	if err := s.cache.Set(key, snapshot, ttl); err != nil {
		s.log.Warn("failed to store snapshot in cache",
			logger.CacheKey(key), logger.Err(err))
	}
	return snapshot
}

// ─────────────────────────────────────────────────────────────────────────────
// ЛИДЕРБОРД И РАНГИ
// ─────────────────────────────────────────────────────────────────────────────

// GetLeaderboard возвращает агрегаты по убыванию балла, не более limit.
// Читает через кеш с TTL по умолчанию и без расширенных метрик.
func (s *Service) GetLeaderboard(ctx context.Context, filter scoring.SolveFilter, limit int) []*scoring.UserScoreAggregate {
	snapshot := s.GetCachedUserScores(ctx, filter, 0, false)
	return s.engine.Leaderboard(snapshot, limit)
}

// GetUserRank возвращает позицию пользователя во вселенной фильтра.
// Глобальные ранги всегда считаются по полному снапшоту пустого фильтра,
// даже если вызывающий слой дополнительно фильтрует отображение.
func (s *Service) GetUserRank(ctx context.Context, userID shared.UserID, filter scoring.SolveFilter) (ranking.RankInfo, bool) {
	snapshot := s.GetCachedUserScores(ctx, filter, 0, false)
	return s.engine.Rank(userID, snapshot)
}

// GetGlobalStats возвращает сводную статистику вселенной фильтра.
func (s *Service) GetGlobalStats(ctx context.Context, filter scoring.SolveFilter) ranking.GlobalStats {
	snapshot := s.GetCachedUserScores(ctx, filter, 0, false)
	return s.engine.Stats(snapshot)
}

// ─────────────────────────────────────────────────────────────────────────────
// МЕСЯЧНЫЕ ВСЕЛЕННЫЕ РАНГОВ
// ─────────────────────────────────────────────────────────────────────────────

// CalculateMonthlyRanks возвращает независимую вселенную рангов одного
// месяца: отдельный расчёт по месячному фильтру, а не пере-ранжирование
// глобального снапшота. Пользователь без решений в месяце в карте
// отсутствует. Полностью прошедшие месяцы не меняются, поэтому результат
// живёт в кеше сутки.
func (s *Service) CalculateMonthlyRanks(ctx context.Context, key shared.MonthKey) map[shared.UserID]int {
	cacheKey := cache.MonthlyKey(key.String())
	if payload, ok := s.cache.Get(cacheKey); ok {
		if ranks, ok := payload.(map[shared.UserID]int); ok {
			return ranks
		}
	}

	snapshot := s.CalculateUserScores(ctx, scoring.MonthFilter(key))
	ranks := s.engine.Ranks(snapshot)

	if err := s.cache.Set(cacheKey, ranks, cache.TTLMonthlyRanks); err != nil {
		s.log.Warn("failed to cache monthly ranks",
			logger.MonthKey(key.String()), logger.Err(err))
	}
	return ranks
}

// MonthlyRanks реализует metrics.RankHistory поверх кешированных
// месячных вселенных.
func (s *Service) MonthlyRanks(ctx context.Context, key shared.MonthKey) (map[shared.UserID]int, error) {
	return s.CalculateMonthlyRanks(ctx, key), nil
}

// AvailableMonths реализует metrics.RankHistory.
func (s *Service) AvailableMonths(ctx context.Context) ([]shared.MonthKey, error) {
	return s.GetAvailableTimeRanges(ctx).Months, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// ОКНА ВРЕМЕНИ
// ─────────────────────────────────────────────────────────────────────────────

// GetAvailableTimeRanges выводит навигационные месяцы и годы из границ
// времени решений. Текущий месяц и год добавляются всегда.
func (s *Service) GetAvailableTimeRanges(ctx context.Context) TimeRanges {
	now := s.now()
	current := shared.MonthKeyFor(now)

	bounds, err := s.solves.SolveTimeBounds(ctx)
	if err != nil {
		s.logStoreFailure("GetAvailableTimeRanges", err)
		return TimeRanges{Months: []shared.MonthKey{current}, Years: []int{now.Year()}}
	}
	if bounds.Empty {
		return TimeRanges{Months: []shared.MonthKey{current}, Years: []int{now.Year()}}
	}

	months := make([]shared.MonthKey, 0, 12)
	for _, key := range timeutil.MonthKeysBetween(bounds.First, bounds.Last) {
		months = append(months, shared.MonthKey(key))
	}
	if len(months) == 0 || months[len(months)-1] != current {
		months = append(months, current)
	}

	years := timeutil.YearsBetween(bounds.First, bounds.Last)
	if len(years) == 0 || years[len(years)-1] != now.Year() {
		years = append(years, now.Year())
	}

	return TimeRanges{Months: months, Years: years}
}

// ─────────────────────────────────────────────────────────────────────────────
// АКТИВНОСТЬ СОРЕВНОВАНИЙ
// ─────────────────────────────────────────────────────────────────────────────

// GetCompetitionActivity возвращает агрегаты участия по соревнованиям
// для списков, которым не нужна полная по-пользовательская детализация.
// Отдельное пространство кеша с 10-минутным TTL.
func (s *Service) GetCompetitionActivity(ctx context.Context) []scoring.CompetitionActivity {
	key := cache.ActivityKey()
	if payload, ok := s.cache.Get(key); ok {
		if activity, ok := payload.([]scoring.CompetitionActivity); ok {
			return activity
		}
	}

	activity, err := s.solves.CompetitionActivity(ctx)
	if err != nil {
		s.logStoreFailure("GetCompetitionActivity", err)
		return []scoring.CompetitionActivity{}
	}

	if err := s.cache.Set(key, activity, cache.TTLActivity); err != nil {
		s.log.Warn("failed to cache competition activity", logger.Err(err))
	}
	return activity
}

// ─────────────────────────────────────────────────────────────────────────────
// ВНУТРЕННЕЕ
// ─────────────────────────────────────────────────────────────────────────────

// logStoreFailure фиксирует недоступность хранилища на границе мягкого отказа.
func (s *Service) logStoreFailure(op string, err error) {
	s.log.Error("raw store unavailable, returning empty result",
		logger.Component("scores"),
		logger.Operation(op),
		logger.Err(err),
	)
}

// logDiagnostics фиксирует пропущенные решения; партия при этом уже
// завершилась успешно.
func (s *Service) logDiagnostics(outcome *scoring.Outcome) {
	if len(outcome.Skipped) == 0 {
		return
	}
	s.log.Warn("solves skipped during score calculation",
		logger.Component("scores"),
		logger.Int("skipped", len(outcome.Skipped)),
	)
	for _, skipped := range outcome.Skipped {
		s.log.Debug("skipped solve",
			logger.CompetitionID(skipped.CompetitionID.String()),
			logger.String("challenge_ref", skipped.ChallengeRef),
			logger.String("reason", skipped.Reason),
		)
	}
}
