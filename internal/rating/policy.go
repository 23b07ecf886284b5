package rating

import (
	"fmt"

	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

// Policy turns a battle result into a participant's new rating.
type Policy interface {
	Name() string
	Adjust(current, opponent int, difficulty problem.Difficulty, outcome Outcome) int
}

type EloPolicy struct {
	K int
}

func (p EloPolicy) Name() string { return "elo" }

func (p EloPolicy) Adjust(current, opponent int, _ problem.Difficulty, outcome Outcome) int {
	k := p.K
	if k <= 0 {
		k = DefaultKFactor
	}
	return eloUpdate(current, opponent, outcome, k)
}

type DifficultyPolicy struct{}

func (DifficultyPolicy) Name() string { return "difficulty" }

func (DifficultyPolicy) Adjust(current, _ int, difficulty problem.Difficulty, outcome Outcome) int {
	return current + DifficultyDelta(difficulty, outcome)
}

func PolicyByName(name string, kFactor int) (Policy, error) {
	switch name {
	case "elo":
		return EloPolicy{K: kFactor}, nil
	case "difficulty":
		return DifficultyPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown rating policy %q", name)
	}
}
