package scoring

import (
	"context"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// РЕЗОЛВЕР ВЕСА СОРЕВНОВАНИЯ
// Куратор назначает рейтинговый вес не сразу. Пока идёт "окно ожидания",
// неоценённое соревнование честно даёт 0; после истечения окна применяется
// фиксированный запасной вес. Средний вес по всем событиям здесь намеренно
// не используется: он раздувал бы слабые соревнования.
// ══════════════════════════════════════════════════════════════════════════════

// FallbackWeight - фиксированный запасной вес для соревнований,
// так и не получивших оценку после окончания окна ожидания.
const FallbackWeight shared.Weight = 10

// WeightRetryRecord - запись планировщика о повторных попытках получить вес.
// Принадлежит внешнему планировщику; резолвер её только читает.
type WeightRetryRecord struct {
	// CompetitionID - соревнование, ожидающее вес.
	CompetitionID shared.CompetitionID

	// RetryUntil - до какого момента куратору даётся время назначить вес.
	RetryUntil time.Time

	// Attempts - сколько попыток уже сделано.
	Attempts int
}

// GraceExpired возвращает true, если окно ожидания уже прошло.
func (r *WeightRetryRecord) GraceExpired(now time.Time) bool {
	return now.After(r.RetryUntil)
}

// WeightRetryRepository - доступ на чтение к записям повторных попыток.
type WeightRetryRepository interface {
	// FindRetry возвращает запись для соревнования.
	// Возвращает ошибку с shared.ErrNotFound, если записи нет.
	FindRetry(ctx context.Context, id shared.CompetitionID) (*WeightRetryRecord, error)
}

// WeightResolver вычисляет эффективный вес соревнования.
type WeightResolver struct {
	retries WeightRetryRepository
	now     func() time.Time
}

// NewWeightResolver создаёт резолвер поверх хранилища записей попыток.
func NewWeightResolver(retries WeightRetryRepository) *WeightResolver {
	return &WeightResolver{
		retries: retries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock подменяет источник времени (для тестов).
func (r *WeightResolver) WithClock(now func() time.Time) *WeightResolver {
	r.now = now
	return r
}

// EffectiveWeight возвращает вес, который следует применять при подсчёте.
//   - Назначенный вес (rawWeight > 0) возвращается без изменений.
//   - Без записи о попытках, или пока окно ожидания не истекло - 0:
//     неоценённое соревнование не должно маскироваться под оценённое.
//   - После истечения окна - FallbackWeight.
//
// Ошибка хранилища трактуется как отсутствие записи: консервативный ноль.
func (r *WeightResolver) EffectiveWeight(ctx context.Context, id shared.CompetitionID, rawWeight shared.Weight) shared.Weight {
	if rawWeight.IsAssigned() {
		return rawWeight
	}

	rec, err := r.retries.FindRetry(ctx, id)
	if err != nil || rec == nil {
		return 0
	}
	if !rec.GraceExpired(r.now()) {
		return 0
	}
	return FallbackWeight
}
