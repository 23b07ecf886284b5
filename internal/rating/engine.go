package rating

import (
	"math"

	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

const DefaultKFactor = 32

type Outcome int

const (
	Loss Outcome = iota
	Win
	Tie
)

func OutcomeOf(won bool) Outcome {
	if won {
		return Win
	}
	return Loss
}

func (o Outcome) score() float64 {
	switch o {
	case Win:
		return 1
	case Tie:
		return 0.5
	default:
		return 0
	}
}

// ExpectedScore is the logistic expectation of A scoring against B.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

// NewRating applies one Elo update for a decisive result.
func NewRating(current, opponent int, didWin bool, kFactor int) int {
	return eloUpdate(current, opponent, OutcomeOf(didWin), kFactor)
}

func eloUpdate(current, opponent int, outcome Outcome, kFactor int) int {
	expected := ExpectedScore(current, opponent)
	delta := int(math.Round(float64(kFactor) * (outcome.score() - expected)))

	// Rounding can swallow tiny adjustments between far-apart ratings; a decisive
	// result always moves the rating by at least one point.
	if delta == 0 && kFactor > 0 && expected > 0 && expected < 1 {
		switch outcome {
		case Win:
			delta = 1
		case Loss:
			delta = -1
		}
	}
	return current + delta
}

var difficultyPoints = map[problem.Difficulty]int{
	problem.Easy:   10,
	problem.Medium: 25,
	problem.Hard:   50,
}

// DifficultyDelta is the fixed point change for a battle of the given difficulty.
func DifficultyDelta(difficulty problem.Difficulty, outcome Outcome) int {
	points := difficultyPoints[difficulty]
	switch outcome {
	case Win:
		return points
	case Loss:
		return -points
	default:
		return 0
	}
}
