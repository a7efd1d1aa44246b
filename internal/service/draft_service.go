package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/dom/wedge-builds/internal/validation"
	"go.uber.org/zap"
)

// DraftService manages the private drafts kept in the local store. Owners
// are opaque keys; the HTTP layer uses the caller's user id.
type DraftService struct {
	drafts    repository.DraftRepository
	validator *validation.Validator
	catalog   validation.Catalog
	backend   backend
	logger    *zap.Logger
}

func NewDraftService(drafts repository.DraftRepository, catalog validation.Catalog, timeout time.Duration, logger *zap.Logger) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{
		drafts:    drafts,
		validator: validation.New(catalog),
		catalog:   catalog,
		backend:   newBackend(timeout),
		logger:    logger.Named("drafts"),
	}
}

func (s *DraftService) Create(ctx context.Context, owner string, content domain.BuildContent) (*domain.LocalBuild, error) {
	sanitizeContent(&content)
	content.Normalize()
	fillItemName(s.catalog, &content)
	if err := s.validator.BuildContent(&content); err != nil {
		return nil, err
	}

	draft := &domain.LocalBuild{BuildContent: content}
	err := s.backend.write(ctx, "create draft", func(ctx context.Context) error {
		return s.drafts.Create(ctx, owner, draft)
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// Get returns the draft, or nil when the owner has no draft with that id.
func (s *DraftService) Get(ctx context.Context, owner, id string) (*domain.LocalBuild, error) {
	draft, err := s.load(ctx, owner, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return draft, err
}

func (s *DraftService) Update(ctx context.Context, owner, id string, patch domain.BuildPatch) (*domain.LocalBuild, error) {
	current, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	sanitizePatch(&patch)
	content := current.BuildContent
	applyPatch(s.catalog, &content, &patch)
	if err := s.validator.BuildContent(&content); err != nil {
		return nil, err
	}

	var updated *domain.LocalBuild
	err = s.backend.write(ctx, "update draft", func(ctx context.Context) error {
		var err error
		updated, err = s.drafts.Update(ctx, owner, id, patch)
		return err
	})
	return updated, err
}

func (s *DraftService) Delete(ctx context.Context, owner, id string) error {
	return s.backend.write(ctx, "delete draft", func(ctx context.Context) error {
		return s.drafts.Delete(ctx, owner, id)
	})
}

func (s *DraftService) List(ctx context.Context, owner string) ([]*domain.LocalBuild, error) {
	var drafts []*domain.LocalBuild
	err := s.backend.read(ctx, "list drafts", func(ctx context.Context) error {
		var err error
		drafts, err = s.drafts.List(ctx, owner)
		return err
	})
	return drafts, err
}

// Export serializes every draft of owner as a JSON array.
func (s *DraftService) Export(ctx context.Context, owner string) ([]byte, error) {
	var data []byte
	err := s.backend.read(ctx, "export drafts", func(ctx context.Context) error {
		var err error
		data, err = s.drafts.Export(ctx, owner)
		return err
	})
	return data, err
}

// Import replaces all of owner's drafts with the JSON array in data. Every
// record must pass the same checks as Create; the first one that does not
// fails the whole import with a FormatError naming its index, and the
// existing drafts stay in place.
func (s *DraftService) Import(ctx context.Context, owner string, data []byte) error {
	drafts, err := domain.DecodeLocalBuilds(data)
	if err == nil {
		err = s.checkImported(drafts)
	}
	if err == nil {
		err = s.backend.write(ctx, "import drafts", func(ctx context.Context) error {
			return s.drafts.Import(ctx, owner, drafts)
		})
	}
	if err != nil {
		s.logger.Warn("draft import rejected", zap.String("owner", owner), zap.Error(err))
		return err
	}
	s.logger.Info("drafts imported", zap.String("owner", owner), zap.Int("count", len(drafts)))
	return nil
}

func (s *DraftService) checkImported(drafts []*domain.LocalBuild) error {
	for i, d := range drafts {
		sanitizeContent(&d.BuildContent)
		d.Normalize()
		fillItemName(s.catalog, &d.BuildContent)
		if err := s.validator.BuildContent(&d.BuildContent); err != nil {
			return &domain.FormatError{Reason: fmt.Sprintf("record %d failed validation", i), Err: err}
		}
	}
	return nil
}

func (s *DraftService) load(ctx context.Context, owner, id string) (*domain.LocalBuild, error) {
	var draft *domain.LocalBuild
	err := s.backend.read(ctx, "get draft", func(ctx context.Context) error {
		var err error
		draft, err = s.drafts.Get(ctx, owner, id)
		return err
	})
	return draft, err
}
