package battle

import (
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/language"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Type string

const (
	Rated  Type = "Rated"
	Casual Type = "Casual"
)

type Battle struct {
	ID         string             `gorm:"primaryKey;size:36" json:"id"`
	CreatorID  string             `gorm:"index;not null;size:36" json:"creator_id"`
	DefenderID *string            `gorm:"index;size:36" json:"defender_id"`
	ProblemID  uint               `gorm:"not null" json:"problem_id"`
	Language   language.Language  `gorm:"column:programming_language;not null;size:16" json:"programming_language"`
	Difficulty problem.Difficulty `gorm:"not null;size:8" json:"difficulty"`
	Duration   int                `gorm:"not null" json:"duration"`
	BattleType Type               `gorm:"not null;size:8" json:"battle_type"`
	Status     Status             `gorm:"index;not null;size:16" json:"status"`
	WinnerID   *string            `gorm:"size:36" json:"winner_id"`
	CreatedAt  time.Time          `gorm:"index" json:"created_at"`
	StartedAt  *time.Time         `json:"started_at"`
	EndedAt    *time.Time         `json:"ended_at"`
}

func (b *Battle) IsParticipant(userID string) bool {
	return b.CreatorID == userID || (b.DefenderID != nil && *b.DefenderID == userID)
}

// Opponent returns the other participant, if there is one.
func (b *Battle) Opponent(userID string) (string, bool) {
	switch {
	case b.DefenderID == nil:
		return "", false
	case b.CreatorID == userID:
		return *b.DefenderID, true
	case *b.DefenderID == userID:
		return b.CreatorID, true
	}
	return "", false
}

type CreateBattleRequest struct {
	Language   string `json:"programming_language"`
	Difficulty string `json:"difficulty"`
	Duration   string `json:"duration"`
	BattleType string `json:"battle_type"`
}
