package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(testutil.CreateAuthenticatedRequest(t, method, url, body, token))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func validBuild(name string) map[string]interface{} {
	return map[string]interface{}{
		"buildName":  name,
		"visibility": "public",
		"itemType":   "character",
		"itemId":     "tabethe",
		"mods":       []string{"Crown of Cinders", "Blazing Fury"},
	}
}

func TestBuildHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().WithDisplayName("author").BuildAndAuthenticate(t, ts)

	t.Run("created with defaults", func(t *testing.T) {
		resp := do(t, http.MethodPost, ts.APIURL("/builds"), validBuild("Inferno"), token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var got domain.Build
		testutil.AssertJSONResponse(t, resp, &got)
		assert.Equal(t, "Inferno", got.BuildName)
		assert.Equal(t, "author", got.Creator)
		assert.Equal(t, "Tabethe", got.ItemName)
		assert.Zero(t, got.VoteCount)
		assert.Empty(t, got.VotedBy)
	})

	t.Run("requires authentication", func(t *testing.T) {
		resp := do(t, http.MethodPost, ts.APIURL("/builds"), validBuild("Anon"), "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		body := validBuild("")
		body["itemId"] = "ghost"
		body["mods"] = []string{"Crown of Cinders", "Tidal Sigil"}

		resp := do(t, http.MethodPost, ts.APIURL("/builds"), body, token)
		testutil.AssertValidationFields(t, resp, "buildName", "itemId", "mods")
	})
}

func TestBuildHandler_GetHidesPrivate(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner, ownerToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	private := testutil.NewBuildBuilder(owner).WithVisibility(domain.VisibilityPrivate).Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "owner", token: ownerToken, expectedStatus: http.StatusOK},
		{name: "other user", token: otherToken, expectedStatus: http.StatusNotFound},
		{name: "anonymous", token: "", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.APIURL("/builds/"+private.ID.String()), nil, tt.token)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	resp := do(t, http.MethodGet, ts.APIURL("/builds/not-a-uuid"), nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBuildHandler_UpdateAndDelete(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner, ownerToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	build := testutil.NewBuildBuilder(owner).WithName("Before").WithVotes(2).Build(t, ts.DB.DB)
	url := ts.APIURL("/builds/" + build.ID.String())

	resp := do(t, http.MethodPatch, url, map[string]string{"buildName": "Hijack"}, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPatch, url, map[string]string{"buildName": "After"}, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Build
	testutil.AssertJSONResponse(t, resp, &updated)
	assert.Equal(t, "After", updated.BuildName)
	assert.Equal(t, 2, updated.VoteCount, "edits keep the vote counter")

	resp = do(t, http.MethodDelete, url, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodDelete, url, nil, ownerToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deleting again is still a success
	resp = do(t, http.MethodDelete, url, nil, ownerToken)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, url, nil, ownerToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBuildHandler_Vote(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	_, voterToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	build := testutil.NewBuildBuilder(owner).Build(t, ts.DB.DB)
	url := ts.APIURL("/builds/" + build.ID.String() + "/vote")

	steps := []struct {
		method        string
		expectedVotes int
	}{
		{method: http.MethodPost, expectedVotes: 1},
		{method: http.MethodPost, expectedVotes: 1},
		{method: http.MethodDelete, expectedVotes: 0},
		{method: http.MethodDelete, expectedVotes: 0},
	}

	for i, step := range steps {
		resp := do(t, step.method, url, nil, voterToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, "step %d", i)

		var got domain.Build
		testutil.AssertJSONResponse(t, resp, &got)
		assert.Equal(t, step.expectedVotes, got.VoteCount, "step %d", i)
		assert.Len(t, got.VotedBy, step.expectedVotes, "step %d", i)
	}

	resp := do(t, http.MethodPost, url, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBuildHandler_VoteRateLimited(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.VoteRatePerSecond = 0.001
	cfg.VoteRateBurst = 2
	ts := testutil.NewTestServerWithConfig(t, cfg)

	owner, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	build := testutil.NewBuildBuilder(owner).Build(t, ts.DB.DB)
	url := ts.APIURL("/builds/" + build.ID.String() + "/vote")

	assert.Equal(t, http.StatusOK, do(t, http.MethodPost, url, nil, token).StatusCode)
	assert.Equal(t, http.StatusOK, do(t, http.MethodDelete, url, nil, token).StatusCode)

	resp := do(t, http.MethodPost, url, nil, token)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestBuildHandler_RecordView(t *testing.T) {
	ts := testutil.NewTestServer(t)
	build := testutil.NewBuildBuilder(nil).WithViews(4).Build(t, ts.DB.DB)

	resp := do(t, http.MethodPost, ts.APIURL("/builds/"+build.ID.String()+"/views"), nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var views int
	require.NoError(t, ts.DB.DB.Model(&domain.Build{}).Select("views").Where("id = ?", build.ID).Scan(&views).Error)
	assert.Equal(t, 5, views)
}

func TestBuildHandler_List(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner, ownerToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	testutil.NewBuildBuilder(owner).WithName("Pyro Rush").WithVotes(1).Build(t, ts.DB.DB)
	testutil.NewBuildBuilder(owner).WithName("Tide Turner").
		WithItem(domain.ItemTypeCharacter, "rebecca", "Rebecca").
		WithMods("Tidal Sigil", "Undertow").
		WithVotes(5).Build(t, ts.DB.DB)
	testutil.NewBuildBuilder(owner).WithName("Secret").WithVisibility(domain.VisibilityPrivate).Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		query          string
		token          string
		expectedStatus int
		expectedNames  []string
	}{
		{name: "public popular", query: "?sort=popular", expectedStatus: http.StatusOK, expectedNames: []string{"Tide Turner", "Pyro Rush"}},
		{name: "element filter", query: "?element=Hydro", expectedStatus: http.StatusOK, expectedNames: []string{"Tide Turner"}},
		{name: "search", query: "?q=pyro", expectedStatus: http.StatusOK, expectedNames: []string{"Pyro Rush"}},
		{name: "limit", query: "?sort=popular&limit=1", expectedStatus: http.StatusOK, expectedNames: []string{"Tide Turner"}},
		{name: "own builds of every visibility", query: "?visibility=all&sort=popular", token: ownerToken, expectedStatus: http.StatusOK, expectedNames: []string{"Tide Turner", "Pyro Rush", "Secret"}},
		{name: "bad sort", query: "?sort=random", expectedStatus: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.APIURL("/builds"+tt.query), nil, tt.token)
			require.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var got []domain.Build
			testutil.AssertJSONResponse(t, resp, &got)
			names := make([]string, len(got))
			for i, b := range got {
				names[i] = b.BuildName
			}
			assert.Equal(t, tt.expectedNames, names)
		})
	}

	t.Run("mine", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.APIURL("/users/me/builds"), nil, ownerToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got []domain.Build
		testutil.AssertJSONResponse(t, resp, &got)
		assert.Len(t, got, 3)
	})
}
