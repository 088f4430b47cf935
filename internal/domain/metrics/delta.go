// Package metrics обогащает агрегаты очков достиженческой статистикой:
// серии дней, ночные и утренние решения, гистограммы категорий, улучшение
// ранга. Ограниченной выборки "топовых" решений для этого недостаточно,
// поэтому движок заново проходит полную сырую историю пользователя.
package metrics

import (
	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ДЕЛЬТА МЕТРИК
// Частичный результат с явной операцией слияния: структурная "утиная"
// частичность здесь намеренно не используется.
// ══════════════════════════════════════════════════════════════════════════════

// Delta - частичное обогащение агрегата одного пользователя.
// Нулевая дельта (Computed == false) означает "вычисление не выполнялось":
// явный дешёвый отказ для запросов без расширенных метрик.
type Delta struct {
	// Computed - была ли дельта действительно вычислена.
	Computed bool

	// CategorySolves - решения по категориям.
	CategorySolves map[shared.Category]int

	// FastSolves / UltraFastSolves - решения дешёвых заданий.
	FastSolves      int
	UltraFastSolves int

	// NightSolves / MorningSolves / WeekendSolves - решения по окнам времени.
	NightSolves   int
	MorningSolves int
	WeekendSolves int

	// NightRatio / WeekendRatio - доли от общего числа решений.
	NightRatio   float64
	WeekendRatio float64

	// HardSolves / ExpertSolves - решения дорогих заданий.
	HardSolves   int
	ExpertSolves int

	// FirstBloods - эвристика "первой крови" по дорогим заданиям.
	FirstBloods int

	// TeamSolves - решения с соучастниками.
	TeamSolves int

	// LongestStreakDays - самая длинная серия календарных дней с решениями.
	LongestStreakDays int

	// MembershipDays - возраст членства в днях.
	MembershipDays int

	// RankImprovement - улучшение месячного ранга, всегда >= 0.
	RankImprovement int
}

// EmptyDelta возвращает дельту явного отказа от вычисления.
func EmptyDelta() Delta {
	return Delta{}
}

// Merge возвращает дельту, в которой вычисленная сторона перекрывает
// невычисленную; при двух вычисленных побеждает other (более свежая).
func (d Delta) Merge(other Delta) Delta {
	if !other.Computed {
		return d
	}
	return other
}

// ApplyTo переносит вычисленную дельту в агрегат пользователя.
// Невычисленная дельта агрегат не трогает.
func (d Delta) ApplyTo(agg *scoring.UserScoreAggregate) {
	if agg == nil || !d.Computed {
		return
	}
	ext := &scoring.ExtendedMetrics{
		FastSolves:        d.FastSolves,
		UltraFastSolves:   d.UltraFastSolves,
		NightSolves:       d.NightSolves,
		MorningSolves:     d.MorningSolves,
		WeekendSolves:     d.WeekendSolves,
		NightRatio:        d.NightRatio,
		WeekendRatio:      d.WeekendRatio,
		HardSolves:        d.HardSolves,
		ExpertSolves:      d.ExpertSolves,
		FirstBloods:       d.FirstBloods,
		TeamSolves:        d.TeamSolves,
		LongestStreakDays: d.LongestStreakDays,
		MembershipDays:    d.MembershipDays,
		RankImprovement:   d.RankImprovement,
	}
	if d.CategorySolves != nil {
		ext.CategorySolves = make(map[shared.Category]int, len(d.CategorySolves))
		for c, n := range d.CategorySolves {
			ext.CategorySolves[c] = n
		}
	}
	agg.Extended = ext
}
