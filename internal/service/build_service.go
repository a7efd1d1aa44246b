package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/feed"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/dom/wedge-builds/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog is what the services need from the static game catalog.
type Catalog interface {
	validation.Catalog
	feed.Catalog
}

// VoteListener is told about every vote that reached the store.
type VoteListener interface {
	BuildVoted(build *domain.Build)
}

// ListVisibility selects which builds a listing starts from.
type ListVisibility string

const (
	ListPublic ListVisibility = "public"
	// ListAll is every build of the caller, public or private.
	ListAll ListVisibility = "all"
)

type ListBuildsInput struct {
	Visibility ListVisibility
	Filters    feed.Filters
	Sort       feed.SortKey
	Limit      int
	Offset     int
}

type BuildService struct {
	builds    repository.BuildRepository
	validator *validation.Validator
	catalog   Catalog
	listener  VoteListener
	backend   backend
	logger    *zap.Logger
}

func NewBuildService(builds repository.BuildRepository, catalog Catalog, timeout time.Duration, logger *zap.Logger) *BuildService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildService{
		builds:    builds,
		validator: validation.New(catalog),
		catalog:   catalog,
		backend:   newBackend(timeout),
		logger:    logger.Named("builds"),
	}
}

// SetVoteListener registers the receiver of vote updates. It must be
// called before the service handles requests.
func (s *BuildService) SetVoteListener(l VoteListener) {
	s.listener = l
}

// Create validates content and stores it as a new build owned by owner.
func (s *BuildService) Create(ctx context.Context, owner uuid.UUID, creator string, content domain.BuildContent) (*domain.Build, error) {
	sanitizeContent(&content)
	content.Normalize()
	fillItemName(s.catalog, &content)

	if err := s.validator.BuildContent(&content); err != nil {
		return nil, err
	}

	build := domain.NewBuild(owner, creator, content)
	err := s.backend.write(ctx, "create build", func(ctx context.Context) error {
		return s.builds.Create(ctx, build)
	})
	if err != nil {
		s.logger.Error("create build failed", zap.Stringer("user_id", owner), zap.Error(err))
		return nil, err
	}

	s.logger.Info("build created", zap.Stringer("build_id", build.ID), zap.Stringer("user_id", owner))
	return build, nil
}

// Get returns the build, or nil when it does not exist or is private to
// someone other than viewer. Pass uuid.Nil for anonymous callers.
func (s *BuildService) Get(ctx context.Context, id, viewer uuid.UUID) (*domain.Build, error) {
	build, err := s.load(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !build.VisibleTo(viewer) {
		return nil, nil
	}
	return build, nil
}

// Update merges patch into a build owned by caller.
func (s *BuildService) Update(ctx context.Context, id, caller uuid.UUID, patch domain.BuildPatch) (*domain.Build, error) {
	build, err := s.owned(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return build, nil
	}

	sanitizePatch(&patch)
	content := build.BuildContent
	applyPatch(s.catalog, &content, &patch)
	if err := s.validator.BuildContent(&content); err != nil {
		return nil, err
	}

	var updated *domain.Build
	err = s.backend.write(ctx, "update build", func(ctx context.Context) error {
		var err error
		updated, err = s.builds.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		s.logger.Error("update build failed", zap.Stringer("build_id", id), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

// Delete removes a build owned by caller.
func (s *BuildService) Delete(ctx context.Context, id, caller uuid.UUID) error {
	if _, err := s.owned(ctx, id, caller); err != nil {
		return err
	}
	err := s.backend.write(ctx, "delete build", func(ctx context.Context) error {
		return s.builds.Delete(ctx, id)
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("delete build failed", zap.Stringer("build_id", id), zap.Error(err))
	}
	return err
}

// List fetches builds by visibility, then filters, sorts and pages them.
// ListAll is restricted to viewer's own builds; anonymous callers get the
// public listing.
func (s *BuildService) List(ctx context.Context, viewer uuid.UUID, in ListBuildsInput) ([]*domain.Build, error) {
	filter := repository.BuildFilter{Visibility: domain.VisibilityPublic}
	if in.Visibility == ListAll && viewer != uuid.Nil {
		filter = repository.BuildFilter{UserID: &viewer}
	}

	var builds []*domain.Build
	err := s.backend.read(ctx, "list builds", func(ctx context.Context) error {
		var err error
		builds, err = s.builds.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	builds = feed.ApplyFilters(builds, in.Filters, s.catalog)
	builds = feed.SortBuilds(builds, in.Sort)
	return page(builds, in.Limit, in.Offset), nil
}

// MyBuilds lists every build owned by owner.
func (s *BuildService) MyBuilds(ctx context.Context, owner uuid.UUID, sort feed.SortKey) ([]*domain.Build, error) {
	return s.List(ctx, owner, ListBuildsInput{Visibility: ListAll, Sort: sort})
}

// Vote casts (upvote) or retracts voter's vote. Repeating either is a
// no-op. Builds the voter cannot see are reported as not found.
func (s *BuildService) Vote(ctx context.Context, id, voter uuid.UUID, upvote bool) (*domain.Build, error) {
	build, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !build.VisibleTo(voter) {
		return nil, &domain.NotFoundError{Resource: "build", ID: id.String()}
	}

	err = s.backend.write(ctx, "vote build", func(ctx context.Context) error {
		var err error
		build, err = s.builds.Vote(ctx, id, voter.String(), upvote)
		return err
	})
	if err != nil {
		s.logger.Error("vote failed",
			zap.Stringer("build_id", id),
			zap.Stringer("user_id", voter),
			zap.Bool("upvote", upvote),
			zap.Error(err))
		return nil, err
	}

	if s.listener != nil {
		s.listener.BuildVoted(build)
	}
	return build, nil
}

// IncrementViews bumps the view counter. Failures are logged and dropped.
func (s *BuildService) IncrementViews(ctx context.Context, id uuid.UUID) {
	err := s.backend.write(ctx, "increment views", func(ctx context.Context) error {
		return s.builds.IncrementViews(ctx, id)
	})
	if err != nil {
		s.logger.Warn("view increment dropped", zap.Stringer("build_id", id), zap.Error(err))
	}
}

func (s *BuildService) load(ctx context.Context, id uuid.UUID) (*domain.Build, error) {
	var build *domain.Build
	err := s.backend.read(ctx, "get build", func(ctx context.Context) error {
		var err error
		build, err = s.builds.GetByID(ctx, id)
		return err
	})
	return build, err
}

func (s *BuildService) owned(ctx context.Context, id, caller uuid.UUID) (*domain.Build, error) {
	build, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if build.UserID != caller {
		if build.Visibility == domain.VisibilityPrivate {
			return nil, &domain.NotFoundError{Resource: "build", ID: id.String()}
		}
		return nil, fmt.Errorf("%w: build %s belongs to another user", domain.ErrForbidden, id)
	}
	return build, nil
}

// fillItemName copies the subject's display name from the catalog when
// the client did not send one.
func fillItemName(catalog validation.Catalog, c *domain.BuildContent) {
	if c.ItemName != "" || catalog == nil {
		return
	}
	switch c.ItemType {
	case domain.ItemTypeCharacter:
		if ch, ok := catalog.Character(c.ItemID); ok {
			c.ItemName = ch.Name
		}
	case domain.ItemTypeWeapon:
		if w, ok := catalog.Weapon(c.ItemID); ok {
			c.ItemName = w.Name
		}
	}
}

// applyPatch merges patch into c. A patch that retargets the build without
// naming the new subject gets the catalog name written into it, so the
// stored record and the validated content agree.
func applyPatch(catalog validation.Catalog, c *domain.BuildContent, patch *domain.BuildPatch) {
	patch.ApplyTo(c)
	if patch.ItemID != nil && patch.ItemName == nil {
		c.ItemName = ""
		fillItemName(catalog, c)
		name := c.ItemName
		patch.ItemName = &name
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
