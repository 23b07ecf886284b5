package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	FindAccountByUsername(ctx context.Context, username string) (*Account, error)
	GetProfile(ctx context.Context, id string) (*Profile, error)
	CreateProfileIfAbsent(ctx context.Context, profile *Profile) (*Profile, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *GormUserRepository) CreateAccount(ctx context.Context, account *Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if isUniqueViolation(err) {
		return apperrors.Conflict("user already exists")
	}
	if err != nil {
		return apperrors.Persistence("Error creating account", err)
	}
	return nil
}

func (r *GormUserRepository) FindAccountByUsername(ctx context.Context, username string) (*Account, error) {
	var a Account
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("Error getting account", err)
	}
	return &a, nil
}

func (r *GormUserRepository) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("profile not found")
	}
	if err != nil {
		return nil, apperrors.Persistence("Error getting profile", err)
	}
	return &p, nil
}

// CreateProfileIfAbsent inserts the profile unless one with the same id exists,
// and returns whichever row is stored.
func (r *GormUserRepository) CreateProfileIfAbsent(ctx context.Context, profile *Profile) (*Profile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(profile).Error
	if err != nil {
		return nil, apperrors.Persistence("Error creating profile", err)
	}
	return r.GetProfile(ctx, profile.ID)
}

func (r *GormUserRepository) UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperrors.Persistence("Error updating profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("profile not found")
	}
	return nil
}
