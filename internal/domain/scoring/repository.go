package scoring

import (
	"context"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ГРАНИЦА СЫРОГО ХРАНИЛИЩА
// Ядро зависит от хранилища только через этот интерфейс и никогда в него
// не пишет. Записи решений возвращаются с уже разрешёнными данными заданий
// и участников.
// ══════════════════════════════════════════════════════════════════════════════

// SolveTimeBounds - минимальная и максимальная метки времени решений.
type SolveTimeBounds struct {
	// First - самое раннее решение.
	First time.Time

	// Last - самое позднее решение.
	Last time.Time

	// Empty - в хранилище нет ни одного решения.
	Empty bool
}

// SolveRepository - read-only доступ к записям решений и метаданным
// соревнований.
type SolveRepository interface {
	// FindSolves возвращает решения, попадающие в фильтр, в хронологическом
	// порядке. Решение с неразрешимой ссылкой на задание возвращается
	// с Challenge == nil, а не выбрасывается.
	FindSolves(ctx context.Context, filter SolveFilter) ([]SolveRecord, error)

	// CompetitionStats пакетно возвращает нормализующие агрегаты для
	// перечисленных соревнований. Отсутствующие соревнования в карте
	// не представлены.
	CompetitionStats(ctx context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]CompetitionStats, error)

	// CompetitionsByID пакетно возвращает метаданные соревнований.
	CompetitionsByID(ctx context.Context, ids []shared.CompetitionID) (map[shared.CompetitionID]CompetitionInfo, error)

	// UserSolveHistory возвращает полную историю решений пользователя
	// в хронологическом порядке, при необходимости в рамках одного
	// соревнования (пустой id = вся история).
	UserSolveHistory(ctx context.Context, userID shared.UserID, competitionID shared.CompetitionID) ([]SolveRecord, error)

	// UserJoinedAt возвращает дату вступления пользователя в сообщество.
	UserJoinedAt(ctx context.Context, userID shared.UserID) (time.Time, error)

	// SolveTimeBounds возвращает границы времени по всем решениям.
	SolveTimeBounds(ctx context.Context) (SolveTimeBounds, error)

	// CompetitionActivity возвращает агрегаты участия по всем соревнованиям
	// в порядке убывания времени последнего решения.
	CompetitionActivity(ctx context.Context) ([]CompetitionActivity, error)
}
