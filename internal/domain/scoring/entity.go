// Package scoring содержит доменную модель подсчёта очков CTF Community Hub.
// Сырые записи "кто решил что, когда и за сколько очков" превращаются здесь
// в справедливый, сравнимый балл: очки нормализуются внутри соревнования,
// редкие решения ценятся выше массовых, а вес события берётся с учётом
// fallback-политики для ещё не оценённых CTF.
package scoring

import (
	"sort"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ВХОДНЫЕ СУЩНОСТИ (read-only, принадлежат внешнему хранилищу)
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeInfo описывает задание внутри соревнования.
// SolveCount - сколько всего участников решило именно это задание;
// по нему оценивается редкость решения.
type ChallengeInfo struct {
	// Name - название задания.
	Name string

	// Category - категория задания (web, pwn, crypto, ...).
	Category shared.Category

	// Points - номинальная стоимость задания в очках соревнования.
	Points shared.Points

	// SolveCount - общее число решений этого задания.
	SolveCount int
}

// SolveRecord - свидетельство того, что один или несколько участников
// решили задание в конкретный момент. Запись неизменяема; ядро её
// только читает.
type SolveRecord struct {
	// CompetitionID - соревнование, в котором сделано решение.
	CompetitionID shared.CompetitionID

	// Challenge - разрешённые данные задания. nil, если ссылка
	// на задание больше не разрешается (задание удалено).
	Challenge *ChallengeInfo

	// ChallengeRef - исходная ссылка на задание, для диагностики
	// пропущенных решений.
	ChallengeRef string

	// UserIDs - все участники, записанные на это решение.
	UserIDs []shared.UserID

	// SolvedAt - момент решения.
	SolvedAt time.Time
}

// IsResolved возвращает true, если ссылка на задание разрешилась.
func (s *SolveRecord) IsResolved() bool {
	return s.Challenge != nil
}

// CoSolvers возвращает соучастников решения, кроме указанного пользователя.
func (s *SolveRecord) CoSolvers(userID shared.UserID) []shared.UserID {
	if len(s.UserIDs) <= 1 {
		return nil
	}
	others := make([]shared.UserID, 0, len(s.UserIDs)-1)
	for _, id := range s.UserIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}

// CompetitionInfo описывает CTF-событие.
// Weight == 0 означает "вес ещё не назначен куратором".
type CompetitionInfo struct {
	// ID - идентификатор соревнования.
	ID shared.CompetitionID

	// Title - название события.
	Title string

	// LogoURL - ссылка на логотип события.
	LogoURL string

	// Weight - сырой рейтинговый вес (0 = не назначен).
	Weight shared.Weight

	// FinishedAt - время окончания события.
	FinishedAt time.Time
}

// CompetitionStats - агрегаты по соревнованию, нужные для нормализации:
// максимальная стоимость задания и максимальное число решений одного задания.
type CompetitionStats struct {
	// MaxPoints - максимальная номинальная стоимость задания.
	MaxPoints shared.Points

	// MaxSolves - максимальное число решений одного задания.
	MaxSolves int
}

// CompetitionActivity - агрегат участия по одному соревнованию для списков
// и обзоров, не требующих полной по-пользовательской детализации.
type CompetitionActivity struct {
	CompetitionID shared.CompetitionID
	Title         string
	TotalSolves   int
	UniqueUsers   int
	FirstSolve    time.Time
	LastSolve     time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ВЫХОДНЫЕ АГРЕГАТЫ (создаются калькулятором, после создания неизменяемы)
// ══════════════════════════════════════════════════════════════════════════════

// RecentSolvesLimit ограничивает выборку "топовых" решений пользователя.
// Это образец для отображения, а не основа для итоговых сумм.
const RecentSolvesLimit = 10

// SolveEntry - одно решение в агрегате пользователя.
type SolveEntry struct {
	// CompetitionID - соревнование решения.
	CompetitionID shared.CompetitionID

	// Challenge - название задания.
	Challenge string

	// Category - категория задания.
	Category shared.Category

	// Points - номинальная стоимость задания.
	Points shared.Points

	// SolvedAt - момент решения.
	SolvedAt time.Time

	// CoSolvers - соучастники решения (командный сигнал).
	CoSolvers []shared.UserID

	// ChallengeSolves - сколько всего участников решило это задание.
	ChallengeSolves int
}

// CompetitionResult - разбивка очков пользователя по одному соревнованию.
type CompetitionResult struct {
	// Title - название соревнования.
	Title string

	// Weight - эффективный вес, применённый при подсчёте.
	Weight float64

	// Solves - число решений пользователя в соревновании.
	Solves int

	// RawPoints - сумма номинальных очков решённых заданий.
	RawPoints int

	// Score - нормализованный вклад соревнования в итоговый балл.
	Score float64
}

// ExtendedMetrics - достиженческая статистика пользователя, выводимая из
// полной истории решений. Заполняется движком расширенных метрик по запросу;
// nil означает "не запрашивалась".
type ExtendedMetrics struct {
	// CategorySolves - число решений по каждой категории.
	CategorySolves map[shared.Category]int

	// FastSolves - решения дешёвых заданий (≤100 очков).
	FastSolves int

	// UltraFastSolves - решения совсем дешёвых заданий (≤50 очков).
	UltraFastSolves int

	// NightSolves - решения в ночное окно (22:00-06:00).
	NightSolves int

	// MorningSolves - решения в утреннее окно (05:00-08:00).
	MorningSolves int

	// WeekendSolves - решения в выходные.
	WeekendSolves int

	// NightRatio - доля ночных решений от общего числа.
	NightRatio float64

	// WeekendRatio - доля решений в выходные.
	WeekendRatio float64

	// HardSolves - решения сложных заданий (≥400 очков).
	HardSolves int

	// ExpertSolves - решения экспертных заданий (≥500 очков).
	ExpertSolves int

	// FirstBloods - эвристика "первой крови": дорогие задания,
	// которые скорее всего были решены первыми.
	FirstBloods int

	// TeamSolves - решения, сделанные вместе с соучастниками.
	TeamSolves int

	// LongestStreakDays - самая длинная серия календарных дней
	// с хотя бы одним решением.
	LongestStreakDays int

	// MembershipDays - возраст членства в сообществе, в днях.
	MembershipDays int

	// RankImprovement - улучшение месячного ранга между самым ранним
	// и самым поздним доступным месяцем; всегда ≥ 0.
	RankImprovement int
}

// UserScoreAggregate - итог подсчёта очков одного пользователя в рамках
// одного запроса (глобального, по соревнованию или по окну времени).
// Инвариант: сумма Score по Competitions равна TotalScore с точностью
// до ошибок округления с плавающей точкой.
type UserScoreAggregate struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// TotalScore - сумма нормализованных очков всех решений.
	TotalScore float64

	// SolveCount - полное число решений пользователя в рамках запроса.
	SolveCount int

	// Categories - множество различных категорий решённых заданий.
	Categories shared.CategorySet

	// RecentSolves - не более RecentSolvesLimit решений, отсортированных
	// по убыванию стоимости задания. Образец для отображения.
	RecentSolves []SolveEntry

	// Competitions - разбивка по соревнованиям.
	Competitions map[shared.CompetitionID]*CompetitionResult

	// Extended - расширенные метрики; nil, если не запрашивались.
	Extended *ExtendedMetrics
}

// NewUserScoreAggregate создаёт пустой агрегат для пользователя.
func NewUserScoreAggregate(userID shared.UserID) *UserScoreAggregate {
	return &UserScoreAggregate{
		UserID:       userID,
		Categories:   shared.NewCategorySet(),
		Competitions: make(map[shared.CompetitionID]*CompetitionResult),
	}
}

// CompetitionIDs возвращает соревнования агрегата в стабильном порядке.
func (a *UserScoreAggregate) CompetitionIDs() []shared.CompetitionID {
	ids := make([]shared.CompetitionID, 0, len(a.Competitions))
	for id := range a.Competitions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasFullSample возвращает true, если выборка RecentSolves покрывает все
// решения пользователя. Когда false, статистику по категориям нельзя
// считать по выборке - нужна повторная выгрузка полной истории.
func (a *UserScoreAggregate) HasFullSample() bool {
	return a.SolveCount <= len(a.RecentSolves)
}

// Clone создаёт независимую копию агрегата.
func (a *UserScoreAggregate) Clone() *UserScoreAggregate {
	if a == nil {
		return nil
	}
	clone := &UserScoreAggregate{
		UserID:     a.UserID,
		TotalScore: a.TotalScore,
		SolveCount: a.SolveCount,
		Categories: a.Categories.Clone(),
	}
	if a.RecentSolves != nil {
		clone.RecentSolves = make([]SolveEntry, len(a.RecentSolves))
		copy(clone.RecentSolves, a.RecentSolves)
	}
	clone.Competitions = make(map[shared.CompetitionID]*CompetitionResult, len(a.Competitions))
	for id, res := range a.Competitions {
		cp := *res
		clone.Competitions[id] = &cp
	}
	if a.Extended != nil {
		ext := *a.Extended
		if a.Extended.CategorySolves != nil {
			ext.CategorySolves = make(map[shared.Category]int, len(a.Extended.CategorySolves))
			for c, n := range a.Extended.CategorySolves {
				ext.CategorySolves[c] = n
			}
		}
		clone.Extended = &ext
	}
	return clone
}

// CloneAggregates копирует снапшот агрегатов целиком.
func CloneAggregates(src map[shared.UserID]*UserScoreAggregate) map[shared.UserID]*UserScoreAggregate {
	out := make(map[shared.UserID]*UserScoreAggregate, len(src))
	for id, agg := range src {
		out[id] = agg.Clone()
	}
	return out
}
