package submission

import (
	"context"
	"errors"
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	StoreVerdict(ctx context.Context, id string, v evaluator.Verdict, at time.Time) error
	Latest(ctx context.Context, battleID, userID string) (*Submission, error)
	ListForBattle(ctx context.Context, battleID string) ([]Submission, error)
}

type GormSubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *GormSubmissionRepository {
	return &GormSubmissionRepository{db: db}
}

func (r *GormSubmissionRepository) CreateSubmission(ctx context.Context, s *Submission) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return apperrors.Persistence("Error saving submission", err)
	}
	return nil
}

func (r *GormSubmissionRepository) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	var s Submission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Submission not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("Error getting submission", err)
	}
	return &s, nil
}

// StoreVerdict records the evaluation result once. A submission that is no
// longer pending is left untouched and reported as a conflict.
func (r *GormSubmissionRepository) StoreVerdict(ctx context.Context, id string, v evaluator.Verdict, at time.Time) error {
	updates := map[string]interface{}{
		"status":       v.Status,
		"score":        v.Score,
		"evaluated_at": at,
	}
	if v.Feedback != "" {
		updates["feedback"] = v.Feedback
	}
	res := r.db.WithContext(ctx).Model(&Submission{}).
		Where("id = ? AND status = ?", id, evaluator.Pending).
		Updates(updates)
	if res.Error != nil {
		return apperrors.Persistence("Error saving verdict", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("Submission was already evaluated")
	}
	return nil
}

func (r *GormSubmissionRepository) Latest(ctx context.Context, battleID, userID string) (*Submission, error) {
	var s Submission
	err := r.db.WithContext(ctx).
		Where("battle_id = ? AND user_id = ?", battleID, userID).
		Order("submitted_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("No submissions yet")
	}
	if err != nil {
		return nil, apperrors.Persistence("Error getting submission", err)
	}
	return &s, nil
}

func (r *GormSubmissionRepository) ListForBattle(ctx context.Context, battleID string) ([]Submission, error) {
	var subs []Submission
	err := r.db.WithContext(ctx).
		Where("battle_id = ?", battleID).
		Order("submitted_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, apperrors.Persistence("Error listing submissions", err)
	}
	return subs, nil
}
