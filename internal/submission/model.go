package submission

import (
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"github.com/thesrcielos/TopCodeBattle/internal/language"
)

type Submission struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	BattleID    string            `gorm:"index:idx_submission_battle_user;not null;size:36" json:"battle_id"`
	UserID      string            `gorm:"index:idx_submission_battle_user;not null;size:36" json:"user_id"`
	Code        string            `gorm:"type:text;not null" json:"code"`
	Language    language.Language `gorm:"not null;size:16" json:"language"`
	Status      evaluator.Status  `gorm:"not null;size:16" json:"status"`
	Score       *float64          `json:"score"`
	Feedback    *string           `json:"feedback"`
	SubmittedAt time.Time         `gorm:"index" json:"submitted_at"`
	EvaluatedAt *time.Time        `json:"evaluated_at"`
}

type SubmitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// EvaluationMessage is the queue payload asking a worker to grade a submission.
type EvaluationMessage struct {
	SubmissionID string `json:"submission_id"`
}
