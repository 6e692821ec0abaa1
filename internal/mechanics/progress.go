package mechanics

import "math"

// Threshold is the progress score at which the story concludes.
const Threshold = 20

// Tracker accumulates outcome magnitudes into a score that never decreases.
type Tracker struct {
	score int
}

// NewTracker creates a Tracker starting at initial.
func NewTracker(initial int) *Tracker {
	return &Tracker{score: initial}
}

// Score returns the current progress score.
func (t *Tracker) Score() int {
	return t.score
}

// Done reports whether the score has reached the threshold.
func (t *Tracker) Done() bool {
	return t.score >= Threshold
}

// Advance adds round(|outcome|/2) to the score and reports the new score and
// whether the story should end.
func (t *Tracker) Advance(outcome int) (int, bool) {
	t.score += Step(outcome)
	return t.score, t.Done()
}

// Step is the progress earned by one outcome. Halves round away from zero,
// so both 5 and -5 earn 3.
func Step(outcome int) int {
	return int(math.Round(math.Abs(float64(outcome)) / 2))
}
