package postgres

import (
	"context"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sessionResource = "session"

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	err := r.db.WithContext(ctx).Create(session).Error
	return wrapErr("create session", sessionResource, session.ID.String(), err)
}

// GetByUserID returns the user's most recent session.
func (r *sessionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error) {
	var session domain.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, wrapErr("get session", sessionResource, userID.String(), err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&domain.UserSession{}, "id = ?", id).Error
	return wrapErr("delete session", sessionResource, id.String(), err)
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&domain.UserSession{}, "user_id = ?", userID).Error
	return wrapErr("delete sessions", sessionResource, userID.String(), err)
}
