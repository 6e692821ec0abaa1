// Package mechanics holds the dice model of a story: a bounded normal
// outcome roll and the progress score that decides when the story ends.
package mechanics

import (
	"errors"
	"log/slog"
	"math"

	"github.com/talgya/worldweaver/internal/entropy"
)

// Outcome bounds.
const (
	MinOutcome = -10
	MaxOutcome = 10
)

// maxRedraws bounds how often a non-positive sample is redrawn before the
// roll switches to crypto/rand.
const maxRedraws = 16

// ErrInvalidSpread is returned for a non-positive difficulty spread.
var ErrInvalidSpread = errors.New("difficulty spread must be positive")

// Roller draws outcomes from a normal distribution centred on the player's
// luck, with the difficulty as its standard deviation.
type Roller struct {
	Luck   int // mean
	Spread int // standard deviation
	src    entropy.Source
}

// NewRoller creates a Roller. A nil src uses crypto/rand.
func NewRoller(src entropy.Source, luck, spread int) (*Roller, error) {
	if spread <= 0 {
		return nil, ErrInvalidSpread
	}
	if src == nil {
		src = entropy.Crypto{}
	}
	return &Roller{Luck: luck, Spread: spread, src: src}, nil
}

// Roll returns one outcome in [MinOutcome, MaxOutcome].
func (r *Roller) Roll() int {
	return Outcome(r.src, float64(r.Luck), float64(r.Spread))
}

// Outcome applies the Box-Muller transform to two samples from src, scales
// by spread, shifts by mean, rounds and clamps.
func Outcome(src entropy.Source, mean, spread float64) int {
	u := nonZero(src)
	v := nonZero(src)

	z := math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
	return Clamp(int(math.Round(z*spread + mean)))
}

// Clamp bounds n to the outcome range.
func Clamp(n int) int {
	return max(MinOutcome, min(MaxOutcome, n))
}

// nonZero redraws until the sample is usable as a logarithm argument. A
// source stuck at zero is abandoned for crypto/rand after maxRedraws.
func nonZero(src entropy.Source) float64 {
	for i := 0; i < maxRedraws; i++ {
		if f := src.Float(); f > 0 {
			return f
		}
	}
	slog.Warn("entropy source returned no positive sample, using crypto/rand", "draws", maxRedraws)
	var fallback entropy.Crypto
	for {
		if f := fallback.Float(); f > 0 {
			return f
		}
	}
}
