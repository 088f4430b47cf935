package scores

import (
	"context"
	"sort"

	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
	"github.com/ctfhub/ctf-community-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// СТАТИСТИКА ПО КАТЕГОРИЯМ
// Разбивка балла пользователя по категориям заданий. Выборка RecentSolves
// усечена, поэтому при неполной выборке или запросе в рамках соревнования
// статистика пересчитывается по полной истории решений.
// ══════════════════════════════════════════════════════════════════════════════

// CategoryStat - вклад одной категории в балл пользователя.
type CategoryStat struct {
	// Category - категория заданий.
	Category shared.Category

	// Solves - число решений пользователя в категории.
	Solves int

	// Score - нормализованный балл, отнесённый на категорию.
	Score float64

	// Percent - доля категории в сумме по всем категориям, 0-100.
	Percent float64
}

// CategoryStats возвращает разбивку балла по категориям, по убыванию балла.
// Балл решения берётся равной долей от вклада его соревнования: вклад
// соревнования делится на число решений пользователя в нём. Если выборка
// агрегата покрывает не все решения либо запрошен масштаб одного
// соревнования, история выгружается заново.
func (s *Service) CategoryStats(
	ctx context.Context,
	agg *scoring.UserScoreAggregate,
	competitionID shared.CompetitionID,
) []CategoryStat {
	if agg == nil || agg.SolveCount == 0 {
		return []CategoryStat{}
	}

	entries := s.categoryEntries(ctx, agg, competitionID)
	if len(entries) == 0 {
		return []CategoryStat{}
	}

	stats := make(map[shared.Category]*CategoryStat)
	var total float64
	for _, entry := range entries {
		result, ok := agg.Competitions[entry.CompetitionID]
		if !ok || result.Solves == 0 {
			continue
		}
		share := result.Score / float64(result.Solves)

		stat, ok := stats[entry.Category]
		if !ok {
			stat = &CategoryStat{Category: entry.Category}
			stats[entry.Category] = stat
		}
		stat.Solves++
		stat.Score += share
		total += share
	}

	out := make([]CategoryStat, 0, len(stats))
	for _, stat := range stats {
		if total > 0 {
			stat.Percent = stat.Score / total * 100
		}
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// categoryEntry - минимум данных одного решения для разбивки по категориям.
type categoryEntry struct {
	CompetitionID shared.CompetitionID
	Category      shared.Category
}

// categoryEntries выбирает источник решений: усечённую выборку агрегата,
// когда она полная и масштаб глобальный, иначе полную историю из хранилища.
// Сбой выгрузки истории деградирует до выборки агрегата.
func (s *Service) categoryEntries(
	ctx context.Context,
	agg *scoring.UserScoreAggregate,
	competitionID shared.CompetitionID,
) []categoryEntry {
	if agg.HasFullSample() && competitionID == "" {
		return sampledEntries(agg, competitionID)
	}

	history, err := s.solves.UserSolveHistory(ctx, agg.UserID, competitionID)
	if err != nil {
		s.log.Warn("falling back to sampled solves for category stats",
			logger.UserID(agg.UserID.String()), logger.Err(err))
		return sampledEntries(agg, competitionID)
	}

	entries := make([]categoryEntry, 0, len(history))
	for i := range history {
		rec := &history[i]
		if !rec.IsResolved() {
			continue
		}
		entries = append(entries, categoryEntry{
			CompetitionID: rec.CompetitionID,
			Category:      rec.Challenge.Category,
		})
	}
	return entries
}

// sampledEntries строит записи из усечённой выборки агрегата.
func sampledEntries(agg *scoring.UserScoreAggregate, competitionID shared.CompetitionID) []categoryEntry {
	entries := make([]categoryEntry, 0, len(agg.RecentSolves))
	for _, solve := range agg.RecentSolves {
		if competitionID != "" && solve.CompetitionID != competitionID {
			continue
		}
		entries = append(entries, categoryEntry{
			CompetitionID: solve.CompetitionID,
			Category:      solve.Category,
		})
	}
	return entries
}
