package postgres

import (
	"context"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const buildResource = "build"

type buildRepository struct {
	db *gorm.DB
}

func NewBuildRepository(db *gorm.DB) *buildRepository {
	return &buildRepository{db: db}
}

func (r *buildRepository) Create(ctx context.Context, build *domain.Build) error {
	build.Normalize()
	if build.VotedBy == nil {
		build.VotedBy = datatypes.JSONSlice[string]{}
	}
	err := r.db.WithContext(ctx).Create(build).Error
	return wrapErr("create build", buildResource, build.ID.String(), err)
}

func (r *buildRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Build, error) {
	var build domain.Build
	err := r.db.WithContext(ctx).First(&build, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr("get build", buildResource, id.String(), err)
	}
	return &build, nil
}

func (r *buildRepository) Update(ctx context.Context, id uuid.UUID, patch domain.BuildPatch) (*domain.Build, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Build{}).
		Where("id = ?", id).
		Updates(patchColumns(patch, time.Now()))
	if res.Error != nil {
		return nil, wrapErr("update build", buildResource, id.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &domain.NotFoundError{Resource: buildResource, ID: id.String()}
	}
	return r.GetByID(ctx, id)
}

// patchColumns maps the set fields of a patch to columns. Only these
// columns are written, so counters and voters are never touched by an
// unrelated edit.
func patchColumns(p domain.BuildPatch, now time.Time) map[string]interface{} {
	cols := map[string]interface{}{
		// updated_at never moves backwards, even with skewed clocks
		"updated_at": gorm.Expr("GREATEST(updated_at, ?)", now),
	}
	if p.BuildName != nil {
		cols["build_name"] = *p.BuildName
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Guide != nil {
		cols["guide"] = *p.Guide
	}
	if p.Visibility != nil {
		cols["visibility"] = *p.Visibility
	}
	if p.ItemType != nil {
		cols["item_type"] = *p.ItemType
	}
	if p.ItemID != nil {
		cols["item_id"] = *p.ItemID
	}
	if p.ItemName != nil {
		cols["item_name"] = *p.ItemName
	}
	if p.ItemImage != nil {
		cols["item_image"] = *p.ItemImage
	}
	if p.Mods != nil {
		cols["mods"] = jsonSlice(*p.Mods)
	}
	if p.Team != nil {
		cols["team"] = jsonSlice(*p.Team)
	}
	if p.SupportWeapons != nil {
		cols["support_weapons"] = jsonSlice(*p.SupportWeapons)
	}
	if p.SupportMods != nil {
		cols["support_mods"] = datatypes.NewJSONType(*p.SupportMods)
	}
	return cols
}

func jsonSlice(s []string) datatypes.JSONSlice[string] {
	if s == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](s)
}

func (r *buildRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Build{}, "id = ?", id)
	if res.Error != nil {
		return wrapErr("delete build", buildResource, id.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: buildResource, ID: id.String()}
	}
	return nil
}

func (r *buildRepository) List(ctx context.Context, filter repository.BuildFilter) ([]*domain.Build, error) {
	q := r.db.WithContext(ctx).Model(&domain.Build{})
	if filter.Visibility != "" {
		q = q.Where("visibility = ?", filter.Visibility)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var builds []*domain.Build
	err := q.Order("created_at DESC").Find(&builds).Error
	if err != nil {
		return nil, wrapErr("list builds", buildResource, "", err)
	}
	return builds, nil
}

// Vote updates the voter set and the counter in one UPDATE. The membership
// test lives in the WHERE clause, so concurrent voters are serialized by the
// row lock and a repeated vote matches no row.
func (r *buildRepository) Vote(ctx context.Context, id uuid.UUID, userID string, upvote bool) (*domain.Build, error) {
	q := r.db.WithContext(ctx).Model(&domain.Build{})

	var res *gorm.DB
	if upvote {
		res = q.Where("id = ? AND NOT jsonb_exists(voted_by, ?)", id, userID).
			UpdateColumns(map[string]interface{}{
				"voted_by":   gorm.Expr("voted_by || jsonb_build_array(?::text)", userID),
				"vote_count": gorm.Expr("vote_count + 1"),
			})
	} else {
		res = q.Where("id = ? AND jsonb_exists(voted_by, ?)", id, userID).
			UpdateColumns(map[string]interface{}{
				"voted_by":   gorm.Expr("voted_by - ?::text", userID),
				"vote_count": gorm.Expr("GREATEST(vote_count - 1, 0)"),
			})
	}
	if res.Error != nil {
		return nil, wrapErr("vote build", buildResource, id.String(), res.Error)
	}

	// No row matched: either the vote was already in the requested state
	// or the build is gone. The read tells them apart.
	return r.GetByID(ctx, id)
}

func (r *buildRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Build{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return wrapErr("increment views", buildResource, id.String(), res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: buildResource, ID: id.String()}
	}
	return nil
}

func (r *buildRepository) StatsByUser(ctx context.Context, userID uuid.UUID) (domain.BuildStats, error) {
	var result struct {
		BuildCount  int
		PublicCount int
		TotalVotes  int
		TotalViews  int
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Build{}).
		Select(`COUNT(*) AS build_count,
			COUNT(*) FILTER (WHERE visibility = ?) AS public_count,
			COALESCE(SUM(vote_count), 0) AS total_votes,
			COALESCE(SUM(views), 0) AS total_views`, domain.VisibilityPublic).
		Where("user_id = ?", userID).
		Scan(&result).Error
	if err != nil {
		return domain.BuildStats{}, wrapErr("build stats", buildResource, userID.String(), err)
	}
	return domain.BuildStats{
		BuildCount:  result.BuildCount,
		PublicCount: result.PublicCount,
		TotalVotes:  result.TotalVotes,
		TotalViews:  result.TotalViews,
	}, nil
}
