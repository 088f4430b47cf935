package query

import (
	"errors"
	"strconv"

	"github.com/ctfhub/ctf-community-hub/internal/domain/scoring"
	"github.com/ctfhub/ctf-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ПОСТРОЕНИЕ ОБЛАСТИ ЗАПРОСА
// Общие помощники для обработчиков: валидация параметров масштаба и
// превращение их в фильтр решений. Ядро подсчёта предполагает валидный
// фильтр, поэтому проверка происходит здесь, на границе приложения.
// ══════════════════════════════════════════════════════════════════════════════

// Scope - параметры области запроса, общие для нескольких обработчиков.
// Заполняется не более одного поля; все пустые = глобальная область.
type Scope struct {
	// CompetitionID ограничивает запрос одним соревнованием.
	CompetitionID string

	// Month - месячный ключ "YYYY-MM".
	Month string

	// Year - календарный год (0 = не задан).
	Year int
}

// Validate проверяет, что задано не более одного измерения области
// и что месячный ключ синтаксически корректен.
func (s *Scope) Validate() error {
	set := 0
	if s.CompetitionID != "" {
		set++
	}
	if s.Month != "" {
		set++
	}
	if s.Year != 0 {
		set++
	}
	if set > 1 {
		return errors.New("scope accepts at most one of competition, month, year")
	}
	if s.Month != "" {
		if _, err := shared.NewMonthKey(s.Month); err != nil {
			return err
		}
	}
	if s.Year != 0 && (s.Year < 2000 || s.Year > 2100) {
		return errors.New("year out of range")
	}
	return nil
}

// Filter превращает валидную область в фильтр решений.
func (s *Scope) Filter() scoring.SolveFilter {
	switch {
	case s.CompetitionID != "":
		return scoring.CompetitionFilter(shared.CompetitionID(s.CompetitionID))
	case s.Month != "":
		return scoring.MonthFilter(shared.MonthKey(s.Month))
	case s.Year != 0:
		return scoring.YearFilter(s.Year)
	default:
		return scoring.GlobalFilter()
	}
}

// Label возвращает человекочитаемую подпись области для заголовков.
func (s *Scope) Label() string {
	switch {
	case s.CompetitionID != "":
		return s.CompetitionID
	case s.Month != "":
		return s.Month
	case s.Year != 0:
		return strconv.Itoa(s.Year)
	default:
		return "all time"
	}
}
