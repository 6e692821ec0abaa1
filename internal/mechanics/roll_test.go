package mechanics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldweaver/internal/entropy"
)

func TestNewRollerRejectsSpread(t *testing.T) {
	for _, spread := range []int{0, -1} {
		_, err := NewRoller(nil, 0, spread)
		assert.ErrorIs(t, err, ErrInvalidSpread)
	}
}

func TestOutcomeBoxMuller(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		mean   float64
		spread float64
		want   int
	}{
		{name: "quarter turn lands on the mean", values: []float64{0.5, 0.25}, mean: 5, spread: 2, want: 5},
		{name: "half turn subtracts the radius", values: []float64{math.Exp(-2), 0.5}, mean: 5, spread: 2, want: 1},
		{name: "zero samples are redrawn", values: []float64{0, 0.5, 0, 0.25}, mean: -3, spread: 4, want: -3},
		{name: "clamped high", values: []float64{0.0001, 0.999999}, mean: 0, spread: 100, want: MaxOutcome},
		{name: "clamped low", values: []float64{0.0001, 0.5}, mean: 0, spread: 100, want: MinOutcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Outcome(entropy.NewSequence(tt.values...), tt.mean, tt.spread)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRollAlwaysInRange(t *testing.T) {
	src := entropy.NewSeeded(42)
	for luck := -15; luck <= 15; luck += 5 {
		for _, spread := range []int{1, 2, 5, 20} {
			r, err := NewRoller(src, luck, spread)
			require.NoError(t, err)
			for i := 0; i < 500; i++ {
				got := r.Roll()
				require.GreaterOrEqual(t, got, MinOutcome)
				require.LessOrEqual(t, got, MaxOutcome)
			}
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 10, Clamp(11))
	assert.Equal(t, -10, Clamp(-400))
	assert.Equal(t, 3, Clamp(3))
}

func TestOutcomeSurvivesZeroSource(t *testing.T) {
	for _, src := range []entropy.Source{entropy.NewSequence(0), entropy.NewSequence(-0.5, 0)} {
		got := Outcome(src, 3, 2)
		assert.GreaterOrEqual(t, got, MinOutcome)
		assert.LessOrEqual(t, got, MaxOutcome)
	}
}
