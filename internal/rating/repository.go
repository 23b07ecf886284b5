package rating

import (
	"context"
	"errors"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	GetRating(ctx context.Context, userID string) (int, error)
	UpdateRating(ctx context.Context, userID string, rating int) error
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	InsertHistoryIfAbsent(ctx context.Context, entry *HistoryEntry) error
	CountHistory(ctx context.Context, userID string) (int64, error)
	ListHistory(ctx context.Context, userID string) ([]HistoryEntry, error)
}

type GormRatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *GormRatingRepository {
	return &GormRatingRepository{db: db}
}

func (r *GormRatingRepository) GetRating(ctx context.Context, userID string) (int, error) {
	var p user.Profile
	err := r.db.WithContext(ctx).Select("id", "rating").Where("id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.NotFound("profile not found")
	}
	if err != nil {
		return 0, apperrors.Persistence("Error getting rating", err)
	}
	return p.Rating, nil
}

func (r *GormRatingRepository) UpdateRating(ctx context.Context, userID string, rating int) error {
	res := r.db.WithContext(ctx).Model(&user.Profile{}).Where("id = ?", userID).Update("rating", rating)
	if res.Error != nil {
		return apperrors.Persistence("Error updating rating", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("profile not found")
	}
	return nil
}

func (r *GormRatingRepository) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.Persistence("Error appending rating history", err)
	}
	return nil
}

// InsertHistoryIfAbsent is a no-op when an entry with the same id exists.
func (r *GormRatingRepository) InsertHistoryIfAbsent(ctx context.Context, entry *HistoryEntry) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(entry).Error
	if err != nil {
		return apperrors.Persistence("Error creating initial rating history", err)
	}
	return nil
}

func (r *GormRatingRepository) CountHistory(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&HistoryEntry{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, apperrors.Persistence("Error counting rating history", err)
	}
	return count, nil
}

func (r *GormRatingRepository) ListHistory(ctx context.Context, userID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Persistence("Error listing rating history", err)
	}
	return entries, nil
}
