package persistence

import (
	"context"
	"errors"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements user.Repository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by id
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("User")
		}
		return nil, err
	}
	return &u, nil
}

// FindByIDs finds users by ids
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	var users []user.User
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

var _ user.Repository = (*GormUserRepository)(nil)
