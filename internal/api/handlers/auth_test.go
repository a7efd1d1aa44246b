package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dom/wedge-builds/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAuthHandler_Credentials walks one account through register, login
// and the protected endpoints.
func TestAuthHandler_Credentials(t *testing.T) {
	ts := testutil.NewTestServer(t)

	steps := []struct {
		name           string
		method         string
		path           string
		body           map[string]string
		token          func() string
		expectedStatus int
	}{
		{name: "register", method: "POST", path: "/auth/register", body: map[string]string{"displayName": "forger", "password": "password123"}, expectedStatus: http.StatusOK},
		{name: "register taken name", method: "POST", path: "/auth/register", body: map[string]string{"displayName": "forger", "password": "password123"}, expectedStatus: http.StatusConflict},
		{name: "register short password", method: "POST", path: "/auth/register", body: map[string]string{"displayName": "newbie", "password": "short"}, expectedStatus: http.StatusBadRequest},
		{name: "register missing name", method: "POST", path: "/auth/register", body: map[string]string{"password": "password123"}, expectedStatus: http.StatusBadRequest},
		{name: "login wrong password", method: "POST", path: "/auth/login", body: map[string]string{"displayName": "forger", "password": "nope-nope"}, expectedStatus: http.StatusUnauthorized},
		{name: "login unknown user", method: "POST", path: "/auth/login", body: map[string]string{"displayName": "ghost", "password": "password123"}, expectedStatus: http.StatusUnauthorized},
		{name: "login empty body", method: "POST", path: "/auth/login", body: map[string]string{}, expectedStatus: http.StatusBadRequest},
		{name: "login", method: "POST", path: "/auth/login", body: map[string]string{"displayName": "forger", "password": "password123"}, expectedStatus: http.StatusOK},
		{name: "me without token", method: "GET", path: "/auth/me", expectedStatus: http.StatusUnauthorized},
		{name: "me with garbage token", method: "GET", path: "/auth/me", token: func() string { return "not.a.jwt" }, expectedStatus: http.StatusUnauthorized},
	}

	var session testutil.AuthResponse
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			token := ""
			if step.token != nil {
				token = step.token()
			}
			var body interface{}
			if step.body != nil {
				body = step.body
			}

			resp := do(t, step.method, ts.APIURL(step.path), body, token)
			require.Equal(t, step.expectedStatus, resp.StatusCode)

			if resp.StatusCode == http.StatusOK {
				testutil.AssertJSONResponse(t, resp, &session)
				assert.Equal(t, "forger", session.User.DisplayName)
				assert.NotEmpty(t, session.AccessToken)
			}
		})
	}

	t.Run("me and logout with the session token", func(t *testing.T) {
		resp := do(t, "GET", ts.APIURL("/auth/me"), nil, session.AccessToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var me struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		}
		testutil.AssertJSONResponse(t, resp, &me)
		assert.Equal(t, session.User.ID, me.ID)

		resp = do(t, "POST", ts.APIURL("/auth/logout"), nil, session.AccessToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := json.Marshal(map[string]string{"refreshToken": session.RefreshToken})
		refresh, err := http.Post(ts.APIURL("/auth/refresh"), "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		defer refresh.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, refresh.StatusCode, "logout revokes refresh tokens")
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	ts := testutil.NewTestServer(t)

	body, _ := json.Marshal(map[string]string{"displayName": "refresher", "password": "password123"})
	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var first testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, &first)

	refresh := func(token string) *http.Response {
		body, _ := json.Marshal(map[string]string{"refreshToken": token})
		resp, err := http.Post(ts.APIURL("/auth/refresh"), "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp = refresh(first.RefreshToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, &second)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, refresh(first.RefreshToken).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, refresh("garbage").StatusCode)
}

func TestProfileHandler_GetProfile(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().WithDisplayName("profiler").BuildAndAuthenticate(t, ts)

	testutil.NewBuildBuilder(user).WithVotes(2).WithViews(7).Build(t, ts.DB.DB)
	testutil.NewBuildBuilder(user).WithVisibility("private").Build(t, ts.DB.DB)

	req := testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/profile"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile struct {
		User struct {
			DisplayName string `json:"displayName"`
		} `json:"user"`
		Stats struct {
			BuildCount  int `json:"buildCount"`
			PublicCount int `json:"publicCount"`
			TotalVotes  int `json:"totalVotes"`
			TotalViews  int `json:"totalViews"`
		} `json:"stats"`
	}
	testutil.AssertJSONResponse(t, resp, &profile)
	assert.Equal(t, "profiler", profile.User.DisplayName)
	assert.Equal(t, 2, profile.Stats.BuildCount)
	assert.Equal(t, 1, profile.Stats.PublicCount)
	assert.Equal(t, 2, profile.Stats.TotalVotes)
	assert.Equal(t, 7, profile.Stats.TotalViews)
}
