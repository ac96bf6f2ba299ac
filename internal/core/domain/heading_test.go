package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{-10, 350},
		{725, 5},
		{-720, 0},
		{-370, 350},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Normalize(tt.in), 1e-9, "Normalize(%v)", tt.in)
	}
}

func TestNormalize_Range(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		h := (r.Float64() - 0.5) * 1e5
		n := Normalize(h)
		assert.GreaterOrEqual(t, n, 0.0)
		assert.Less(t, n, 360.0)
	}
}

func TestSignedDelta(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"wrap clockwise", 10, 350, 20},
		{"wrap anticlockwise", 350, 10, -20},
		{"right angle", 90, 0, 90},
		{"opposite", 180, 0, 180},
		{"same", 45, 45, 0},
		{"unnormalised inputs", -90, 360, -90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SignedDelta(tt.current, tt.previous), 1e-9)
		})
	}
}

func TestSignedDelta_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a := r.Float64() * 360
		b := r.Float64() * 360

		d := SignedDelta(a, b)
		assert.GreaterOrEqual(t, d, -180.0)
		assert.LessOrEqual(t, d, 180.0)

		// Antisymmetric except at exactly ±180.
		if absf(d) < 180 {
			assert.InDelta(t, -d, SignedDelta(b, a), 1e-9)
		}
	}
}

func TestClassifyTurn(t *testing.T) {
	tests := []struct {
		delta float64
		want  TurnType
	}{
		{0, TurnStraight},
		{29.9, TurnStraight},
		{-29.9, TurnStraight},
		{30, TurnRight},
		{-30, TurnLeft},
		{-45, TurnLeft},
		{45, TurnRight},
		{170, TurnRight},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTurn(tt.delta), "ClassifyTurn(%v)", tt.delta)
	}
}

func TestClassifyTurnWithUTurn(t *testing.T) {
	assert.Equal(t, TurnUTurn, ClassifyTurnWithUTurn(170, DefaultUTurnAngle))
	assert.Equal(t, TurnUTurn, ClassifyTurnWithUTurn(-150, DefaultUTurnAngle))
	assert.Equal(t, TurnRight, ClassifyTurnWithUTurn(149, DefaultUTurnAngle))
	assert.Equal(t, TurnStraight, ClassifyTurnWithUTurn(5, DefaultUTurnAngle))
	assert.Equal(t, TurnRight, ClassifyTurnWithUTurn(170, 0))
}

func TestIsDecisionPoint(t *testing.T) {
	assert.True(t, IsDecisionPoint(30))
	assert.True(t, IsDecisionPoint(-30))
	assert.True(t, IsDecisionPoint(90))
	assert.False(t, IsDecisionPoint(29.99))
	assert.False(t, IsDecisionPoint(0))
}

func TestTurnType(t *testing.T) {
	for _, tt := range []TurnType{TurnStraight, TurnLeft, TurnRight, TurnUTurn} {
		assert.True(t, tt.IsValid())
		assert.Equal(t, string(tt), tt.String())
		assert.NotEmpty(t, tt.Instruction())
	}
	assert.False(t, TurnType("sideways").IsValid())
	assert.Equal(t, "Turn left", TurnLeft.Instruction())
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
