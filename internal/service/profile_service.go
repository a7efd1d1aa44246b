package service

import (
	"context"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/google/uuid"
)

type ProfileService struct {
	userRepo  repository.UserRepository
	buildRepo repository.BuildRepository
	backend   backend
}

func NewProfileService(userRepo repository.UserRepository, buildRepo repository.BuildRepository, timeout time.Duration) *ProfileService {
	return &ProfileService{
		userRepo:  userRepo,
		buildRepo: buildRepo,
		backend:   newBackend(timeout),
	}
}

// GetProfile returns the user with their build count, votes and views.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	profile := &domain.UserProfile{}
	err := s.backend.read(ctx, "get profile", func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		stats, err := s.buildRepo.StatsByUser(ctx, userID)
		if err != nil {
			return err
		}
		profile.User = user
		profile.Stats = stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}
