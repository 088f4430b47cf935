package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
	"github.com/ctfhub/ctf-community-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ФИЛЬТР РЕШЕНИЙ
// Пустой фильтр = глобальный запрос; диапазон дат = оконный; идентификатор
// соревнования = запрос в рамках одного CTF. Отпечаток фильтра служит
// ключом кеша.
// ══════════════════════════════════════════════════════════════════════════════

// SolveFilter описывает область одного запроса подсчёта очков.
// Ядро предполагает, что фильтр уже валиден: проверка месячных ключей и
// дат - обязанность вызывающего слоя.
type SolveFilter struct {
	// CompetitionID ограничивает запрос одним соревнованием (пусто = все).
	CompetitionID shared.CompetitionID

	// From - начало окна времени включительно (нулевое = без ограничения).
	From time.Time

	// To - конец окна времени не включая (нулевое = без ограничения).
	To time.Time
}

// GlobalFilter возвращает пустой фильтр (вся история).
func GlobalFilter() SolveFilter {
	return SolveFilter{}
}

// MonthFilter возвращает фильтр на один календарный месяц.
func MonthFilter(key shared.MonthKey) SolveFilter {
	start, err := timeutil.ParseMonthKey(key.String())
	if err != nil {
		return SolveFilter{}
	}
	from, to := timeutil.MonthBounds(start)
	return SolveFilter{From: from, To: to}
}

// YearFilter возвращает фильтр на один календарный год.
func YearFilter(year int) SolveFilter {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	from, to := timeutil.YearBounds(start)
	return SolveFilter{From: from, To: to}
}

// CompetitionFilter возвращает фильтр на одно соревнование.
func CompetitionFilter(id shared.CompetitionID) SolveFilter {
	return SolveFilter{CompetitionID: id}
}

// IsGlobal возвращает true для пустого фильтра.
func (f SolveFilter) IsGlobal() bool {
	return f.CompetitionID == "" && f.From.IsZero() && f.To.IsZero()
}

// Normalize приводит границы окна к UTC. Нормализованная форма используется
// и для запросов к хранилищу, и для отпечатка кеша.
func (f SolveFilter) Normalize() SolveFilter {
	out := f
	if !out.From.IsZero() {
		out.From = out.From.UTC()
	}
	if !out.To.IsZero() {
		out.To = out.To.UTC()
	}
	return out
}

// Matches возвращает true, если решение попадает в область фильтра.
// Используется хранилищами в памяти и тестовыми дублёрами.
func (f SolveFilter) Matches(rec *SolveRecord) bool {
	if f.CompetitionID != "" && rec.CompetitionID != f.CompetitionID {
		return false
	}
	if !f.From.IsZero() && rec.SolvedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !rec.SolvedAt.Before(f.To) {
		return false
	}
	return true
}

// Fingerprint возвращает стабильный ключ кеша для нормализованного фильтра
// и флага расширенных метрик. Одинаковые по смыслу фильтры дают одинаковый
// отпечаток независимо от таймзоны исходных времён.
func (f SolveFilter) Fingerprint(extended bool) string {
	n := f.Normalize()
	fromUnix, toUnix := int64(0), int64(0)
	if !n.From.IsZero() {
		fromUnix = n.From.Unix()
	}
	if !n.To.IsZero() {
		toUnix = n.To.Unix()
	}
	canonical := fmt.Sprintf("comp=%s|from=%d|to=%d|ext=%t", n.CompetitionID, fromUnix, toUnix, extended)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}
