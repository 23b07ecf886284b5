package battle

import (
	"context"
	"errors"
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"gorm.io/gorm"
)

type BattleRepository interface {
	CreateBattle(ctx context.Context, b *Battle) error
	GetBattle(ctx context.Context, id string) (*Battle, error)
	MarkJoined(ctx context.Context, id, defenderID string, at time.Time) error
	MarkCompleted(ctx context.Context, id, winnerID string, at time.Time) error
	DeleteUnfinished(ctx context.Context, id, creatorID string) (bool, error)
	ListOpen(ctx context.Context, offset, limit int) ([]Battle, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]Battle, error)
}

type GormBattleRepository struct {
	db *gorm.DB
}

func NewBattleRepository(db *gorm.DB) *GormBattleRepository {
	return &GormBattleRepository{db: db}
}

func (r *GormBattleRepository) CreateBattle(ctx context.Context, b *Battle) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return apperrors.Persistence("Error creating battle", err)
	}
	return nil
}

func (r *GormBattleRepository) GetBattle(ctx context.Context, id string) (*Battle, error) {
	var b Battle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Battle not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("Error getting battle", err)
	}
	return &b, nil
}

// MarkJoined claims the defender seat. It only matches a battle that is still
// open with no defender, so of two concurrent joins exactly one succeeds.
func (r *GormBattleRepository) MarkJoined(ctx context.Context, id, defenderID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&Battle{}).
		Where("id = ? AND status = ? AND defender_id IS NULL", id, StatusOpen).
		Updates(map[string]interface{}{
			"defender_id": defenderID,
			"status":      StatusInProgress,
			"started_at":  at,
		})
	if res.Error != nil {
		return apperrors.Persistence("Error joining battle", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("Battle is no longer open")
	}
	return nil
}

func (r *GormBattleRepository) MarkCompleted(ctx context.Context, id, winnerID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&Battle{}).
		Where("id = ? AND status = ?", id, StatusInProgress).
		Updates(map[string]interface{}{
			"status":    StatusCompleted,
			"winner_id": winnerID,
			"ended_at":  at,
		})
	if res.Error != nil {
		return apperrors.Persistence("Error completing battle", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("Battle is not in progress")
	}
	return nil
}

func (r *GormBattleRepository) DeleteUnfinished(ctx context.Context, id, creatorID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND creator_id = ? AND status <> ?", id, creatorID, StatusCompleted).
		Delete(&Battle{})
	if res.Error != nil {
		return false, apperrors.Persistence("Error deleting battle", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormBattleRepository) ListOpen(ctx context.Context, offset, limit int) ([]Battle, error) {
	var battles []Battle
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusOpen).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&battles).Error
	if err != nil {
		return nil, apperrors.Persistence("Error listing open battles", err)
	}
	return battles, nil
}

func (r *GormBattleRepository) ListForUser(ctx context.Context, userID string, limit int) ([]Battle, error) {
	var battles []Battle
	err := r.db.WithContext(ctx).
		Where("creator_id = ? OR defender_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&battles).Error
	if err != nil {
		return nil, apperrors.Persistence("Error listing battles", err)
	}
	return battles, nil
}
