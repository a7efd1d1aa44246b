package repository

import (
	"context"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// BuildFilter narrows a build listing. An empty Visibility lists every
// visibility; a nil UserID lists every owner.
type BuildFilter struct {
	Visibility domain.Visibility
	UserID     *uuid.UUID
	Limit      int
	Offset     int
}

// BuildRepository is the shared document store for builds. Lookups of a
// missing id fail with *domain.NotFoundError; backend failures with
// *domain.PersistenceError.
type BuildRepository interface {
	Create(ctx context.Context, build *domain.Build) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Build, error)
	// Update merges patch into the stored build and bumps UpdatedAt.
	Update(ctx context.Context, id uuid.UUID, patch domain.BuildPatch) (*domain.Build, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List orders by CreatedAt, newest first.
	List(ctx context.Context, filter BuildFilter) ([]*domain.Build, error)
	// Vote adds or removes userID from the voters in a single atomic
	// write. Repeating an upvote or retracting an absent vote is a no-op.
	Vote(ctx context.Context, id uuid.UUID, userID string, upvote bool) (*domain.Build, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	StatsByUser(ctx context.Context, userID uuid.UUID) (domain.BuildStats, error)
}

// DraftRepository keeps each owner's local drafts as one JSON array.
// Every write replaces the owner's whole collection.
type DraftRepository interface {
	Create(ctx context.Context, owner string, draft *domain.LocalBuild) error
	Update(ctx context.Context, owner, id string, patch domain.BuildPatch) (*domain.LocalBuild, error)
	Delete(ctx context.Context, owner, id string) error
	Get(ctx context.Context, owner, id string) (*domain.LocalBuild, error)
	List(ctx context.Context, owner string) ([]*domain.LocalBuild, error)
	// Export serializes the owner's full collection as a JSON array.
	Export(ctx context.Context, owner string) ([]byte, error)
	// Import replaces the owner's collection with drafts, assigning ids to
	// records that have none.
	Import(ctx context.Context, owner string, drafts []*domain.LocalBuild) error
}

// NotificationRepository keeps each owner's crafting timers.
type NotificationRepository interface {
	Add(ctx context.Context, owner string, n *domain.CraftingNotification) error
	List(ctx context.Context, owner string) ([]*domain.CraftingNotification, error)
	Remove(ctx context.Context, owner, id string) error
	// Owners lists every owner with at least one stored timer.
	Owners(ctx context.Context) ([]string, error)
	MarkNotified(ctx context.Context, owner string, ids []string) error
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Build        BuildRepository
	Draft        DraftRepository
	Notification NotificationRepository
}
