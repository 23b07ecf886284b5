package rating

import (
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/problem"
)

// HistoryEntry is one append-only snapshot of a user's rating.
type HistoryEntry struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;not null;size:36" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	BattleID  *string   `gorm:"size:36" json:"battle_id"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (HistoryEntry) TableName() string {
	return "rating_history"
}

type BattleResult struct {
	BattleID   string
	Difficulty problem.Difficulty
	WinnerID   string
	LoserID    string
}

type RatingChange struct {
	UserID string `json:"user_id"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}
