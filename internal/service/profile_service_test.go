package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository/postgres"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/dom/wedge-builds/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_GetProfile(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	svc := service.NewProfileService(repos.User, repos.Build, time.Second)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithDisplayName("profiled").Build(t, testDB.DB)
	testutil.NewBuildBuilder(user).WithName("Public one").WithVotes(3).WithViews(10).Build(t, testDB.DB)
	testutil.NewBuildBuilder(user).WithName("Private one").WithVisibility(domain.VisibilityPrivate).WithViews(1).Build(t, testDB.DB)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.User.ID)
	assert.Equal(t, domain.BuildStats{BuildCount: 2, PublicCount: 1, TotalVotes: 3, TotalViews: 11}, profile.Stats)

	_, err = svc.GetProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
