package problem

import (
	"context"
	"errors"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"gorm.io/gorm"
)

type ProblemRepository interface {
	GetProblem(ctx context.Context, id uint) (*Problem, error)
	ListRecent(ctx context.Context, limit int) ([]Problem, error)
	CreateProblem(ctx context.Context, p *Problem) error
	CountProblems(ctx context.Context) (int64, error)
}

type GormProblemRepository struct {
	db *gorm.DB
}

func NewProblemRepository(db *gorm.DB) *GormProblemRepository {
	return &GormProblemRepository{db: db}
}

func (r *GormProblemRepository) GetProblem(ctx context.Context, id uint) (*Problem, error) {
	var p Problem
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Problem not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("Error getting problem", err)
	}
	return &p, nil
}

// ListRecent returns the latest problems by insertion order, newest first.
func (r *GormProblemRepository) ListRecent(ctx context.Context, limit int) ([]Problem, error) {
	var problems []Problem
	err := r.db.WithContext(ctx).
		Select("id", "title", "difficulty", "created_at").
		Order("id DESC").
		Limit(limit).
		Find(&problems).Error
	if err != nil {
		return nil, apperrors.Persistence("Error listing problems", err)
	}
	return problems, nil
}

func (r *GormProblemRepository) CreateProblem(ctx context.Context, p *Problem) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperrors.Persistence("Error saving problem", err)
	}
	return nil
}

func (r *GormProblemRepository) CountProblems(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Problem{}).Count(&n).Error; err != nil {
		return 0, apperrors.Persistence("Error counting problems", err)
	}
	return n, nil
}
