package postgres

import (
	"context"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const userResource = "user"

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	return wrapErr("create user", userResource, user.ID.String(), err)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr("get user", userResource, id.String(), err)
	}
	return &user, nil
}

func (r *userRepository) GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "display_name = ?", displayName).Error
	if err != nil {
		return nil, wrapErr("get user", userResource, displayName, err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	return wrapErr("update user", userResource, user.ID.String(), err)
}
