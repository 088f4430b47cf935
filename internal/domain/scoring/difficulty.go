package scoring

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// МОДЕЛЬ СЛОЖНОСТИ
// Редкость решения превращается в множитель балла: почти никем не решённые
// задания дают до ~15x, решённые половиной участников - ровно 1x, массовые
// прижимаются к нижней границе. Чистая функция без побочных эффектов.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// difficultyBase - множитель при нулевой доле решивших.
	difficultyBase = 15.0

	// difficultyDecay - скорость экспоненциального спада по доле решивших.
	difficultyDecay = 5.0

	// massSolveThreshold - абсолютный порог массовости: свыше этого числа
	// решений задание считается тривиальным независимо от доли.
	massSolveThreshold = 50

	// massSolvePenalty - штрафной коэффициент для массово решённых заданий.
	massSolvePenalty = 0.5

	// MinMultiplier - нижняя граница множителя: любое решение сохраняет
	// хоть какую-то ценность.
	MinMultiplier = 0.10
)

// Multiplier возвращает множитель сложности для задания, которое решили
// challengeSolves раз в соревновании, где самое популярное задание решили
// maxSolves раз. Детерминирован для одинаковых входов.
func Multiplier(challengeSolves, maxSolves int) float64 {
	if challengeSolves < 1 {
		challengeSolves = 1
	}
	if maxSolves < 1 {
		maxSolves = 1
	}

	ratio := float64(challengeSolves) / float64(maxSolves)
	multiplier := difficultyBase * math.Exp(-difficultyDecay*ratio)

	if challengeSolves > massSolveThreshold {
		multiplier *= massSolvePenalty
	}

	if multiplier < MinMultiplier {
		multiplier = MinMultiplier
	}
	return multiplier
}
