package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiplier_RareSolveIsValuable(t *testing.T) {
	// 2 решения из 100 у самого популярного задания.
	got := Multiplier(2, 100)
	want := 15.0 * math.Exp(-5.0*0.02)

	assert.InDelta(t, want, got, 1e-9)
	assert.Greater(t, got, 13.0)
}

func TestMultiplier_HalfOfFieldIsBaseline(t *testing.T) {
	// Доля 0.5 - условная середина кривой.
	got := Multiplier(50, 100)
	want := 15.0 * math.Exp(-2.5)

	assert.InDelta(t, want, got, 1e-9)
}

func TestMultiplier_MonotonicInSolves(t *testing.T) {
	prev := math.Inf(1)
	for solves := 1; solves <= 200; solves++ {
		m := Multiplier(solves, 200)
		assert.LessOrEqual(t, m, prev, "multiplier must not grow with solves=%d", solves)
		prev = m
	}
}

func TestMultiplier_MassSolvePenalty(t *testing.T) {
	below := Multiplier(50, 1000)
	above := Multiplier(51, 1000)

	// Сразу за порогом множитель падает примерно вдвое, а не плавно.
	assert.Less(t, above, below*0.52)
	assert.Greater(t, above, below*0.48)
}

func TestMultiplier_FloorIsEnforced(t *testing.T) {
	// Массовое задание, решённое всеми: экспонента со штрафом ушла бы
	// ниже 0.10.
	assert.Equal(t, MinMultiplier, Multiplier(1000, 1000))
}

func TestMultiplier_DegenerateInputsClamp(t *testing.T) {
	assert.Equal(t, Multiplier(1, 1), Multiplier(0, 0))
	assert.Equal(t, Multiplier(1, 1), Multiplier(-3, -7))

	// Одно решение единственного задания - доля 1.
	want := 15.0 * math.Exp(-5.0)
	assert.InDelta(t, want, Multiplier(1, 1), 1e-9)
}

func TestMultiplier_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Multiplier(7, 42), Multiplier(7, 42))
	}
}
