package local

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/id"
)

const draftResource = "draft"

type draftRepository struct {
	store *Store
	now   func() time.Time
}

func draftsKey(owner string) string {
	return draftsPrefix + owner
}

func (r *draftRepository) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}

func (r *draftRepository) load(txn *badger.Txn, owner string) ([]*domain.LocalBuild, error) {
	var drafts []*domain.LocalBuild
	if err := readSlot(txn, draftsKey(owner), &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *draftRepository) Create(ctx context.Context, owner string, draft *domain.LocalBuild) error {
	if draft.ID == "" {
		draftID, err := id.Generate("draft")
		if err != nil {
			return persistenceErr("create draft", err)
		}
		draft.ID = draftID
	}
	now := r.clock()
	draft.SchemaVersion = domain.LocalSchemaVersion
	draft.CreatedAt = now
	draft.UpdatedAt = now
	draft.Normalize()

	return r.store.update(ctx, "create draft", func(txn *badger.Txn) error {
		drafts, err := r.load(txn, owner)
		if err != nil {
			return err
		}
		drafts = append(drafts, draft)
		return writeSlot(txn, draftsKey(owner), drafts)
	})
}

func (r *draftRepository) Update(ctx context.Context, owner, draftID string, patch domain.BuildPatch) (*domain.LocalBuild, error) {
	var updated *domain.LocalBuild
	err := r.store.update(ctx, "update draft", func(txn *badger.Txn) error {
		drafts, err := r.load(txn, owner)
		if err != nil {
			return err
		}
		i := indexOf(drafts, draftID)
		if i < 0 {
			return &domain.NotFoundError{Resource: draftResource, ID: draftID}
		}

		d := drafts[i]
		patch.ApplyTo(&d.BuildContent)
		if now := r.clock(); now.After(d.UpdatedAt) {
			d.UpdatedAt = now
		}
		updated = d
		return writeSlot(txn, draftsKey(owner), drafts)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *draftRepository) Delete(ctx context.Context, owner, draftID string) error {
	return r.store.update(ctx, "delete draft", func(txn *badger.Txn) error {
		drafts, err := r.load(txn, owner)
		if err != nil {
			return err
		}
		i := indexOf(drafts, draftID)
		if i < 0 {
			return &domain.NotFoundError{Resource: draftResource, ID: draftID}
		}
		drafts = slices.Delete(drafts, i, i+1)
		return writeSlot(txn, draftsKey(owner), drafts)
	})
}

func (r *draftRepository) Get(ctx context.Context, owner, draftID string) (*domain.LocalBuild, error) {
	var found *domain.LocalBuild
	err := r.store.view(ctx, "get draft", func(txn *badger.Txn) error {
		drafts, err := r.load(txn, owner)
		if err != nil {
			return err
		}
		i := indexOf(drafts, draftID)
		if i < 0 {
			return &domain.NotFoundError{Resource: draftResource, ID: draftID}
		}
		found = drafts[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *draftRepository) List(ctx context.Context, owner string) ([]*domain.LocalBuild, error) {
	var drafts []*domain.LocalBuild
	err := r.store.view(ctx, "list drafts", func(txn *badger.Txn) error {
		var err error
		drafts, err = r.load(txn, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	if drafts == nil {
		drafts = []*domain.LocalBuild{}
	}
	return drafts, nil
}

func (r *draftRepository) Export(ctx context.Context, owner string) ([]byte, error) {
	drafts, err := r.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(drafts, "", "  ")
	if err != nil {
		return nil, persistenceErr("export drafts", err)
	}
	return data, nil
}

func (r *draftRepository) Import(ctx context.Context, owner string, drafts []*domain.LocalBuild) error {
	for _, d := range drafts {
		if d.ID == "" {
			draftID, err := id.Generate("draft")
			if err != nil {
				return persistenceErr("import drafts", err)
			}
			d.ID = draftID
		}
	}
	if drafts == nil {
		drafts = []*domain.LocalBuild{}
	}

	return r.store.update(ctx, "import drafts", func(txn *badger.Txn) error {
		return writeSlot(txn, draftsKey(owner), drafts)
	})
}

func indexOf(drafts []*domain.LocalBuild, draftID string) int {
	return slices.IndexFunc(drafts, func(d *domain.LocalBuild) bool {
		return d.ID == draftID
	})
}
