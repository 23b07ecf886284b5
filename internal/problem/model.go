package problem

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"gorm.io/datatypes"
)

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

var difficulties = map[string]Difficulty{
	"easy":   Easy,
	"medium": Medium,
	"hard":   Hard,
}

func ParseDifficulty(s string) (Difficulty, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", apperrors.Validation("difficulty is required")
	}
	d, ok := difficulties[key]
	if !ok {
		return "", apperrors.Validation("difficulty must be Easy, Medium or Hard")
	}
	return d, nil
}

// TestCase holds the JSON argument list passed to the solution and the JSON value it must return.
type TestCase struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
}

type Problem struct {
	ID          uint                          `gorm:"primaryKey" json:"id"`
	Title       string                        `gorm:"not null" json:"title"`
	Question    string                        `gorm:"type:text;not null" json:"question"`
	Examples    datatypes.JSONSlice[string]   `json:"examples"`
	Constraints datatypes.JSONSlice[string]   `json:"constraints"`
	Difficulty  Difficulty                    `gorm:"size:10;not null" json:"difficulty"`
	TestCases   datatypes.JSONSlice[TestCase] `json:"-"`
	CreatedAt   time.Time                     `json:"created_at"`
}
