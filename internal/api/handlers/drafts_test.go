package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftHandler_Lifecycle(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := do(t, http.MethodPost, ts.APIURL("/drafts"), validBuild("Work in progress"), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var draft domain.LocalBuild
	testutil.AssertJSONResponse(t, resp, &draft)
	require.NotEmpty(t, draft.ID)
	assert.Equal(t, domain.LocalSchemaVersion, draft.SchemaVersion)
	url := ts.APIURL("/drafts/" + draft.ID)

	resp = do(t, http.MethodPatch, url, map[string]string{"guide": "Open with a charged shot"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.LocalBuild
	testutil.AssertJSONResponse(t, resp, &updated)
	assert.Equal(t, "Open with a charged shot", updated.Guide)
	assert.Equal(t, "Work in progress", updated.BuildName)

	// Drafts are scoped to their owner
	resp = do(t, http.MethodGet, url, nil, otherToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.APIURL("/drafts"), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.LocalBuild
	testutil.AssertJSONResponse(t, resp, &list)
	assert.Len(t, list, 1)

	resp = do(t, http.MethodDelete, url, nil, token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, url, nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.APIURL("/drafts"), nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDraftHandler_ExportImport(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, otherToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	for _, name := range []string{"First", "Second"} {
		resp := do(t, http.MethodPost, ts.APIURL("/drafts"), validBuild(name), token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := do(t, http.MethodGet, ts.APIURL("/drafts/export"), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	importReq := func(t *testing.T, data []byte, token string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, ts.APIURL("/drafts/import"), bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("round trip into another account", func(t *testing.T) {
		resp := importReq(t, exported, otherToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got map[string]int
		testutil.AssertJSONResponse(t, resp, &got)
		assert.Equal(t, 2, got["imported"])

		resp = do(t, http.MethodGet, ts.APIURL("/drafts"), nil, otherToken)
		var list []domain.LocalBuild
		testutil.AssertJSONResponse(t, resp, &list)
		names := []string{list[0].BuildName, list[1].BuildName}
		assert.ElementsMatch(t, []string{"First", "Second"}, names)
	})

	t.Run("non-array payload keeps existing drafts", func(t *testing.T) {
		resp := importReq(t, []byte(`{"buildName":"not a list"}`), token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = do(t, http.MethodGet, ts.APIURL("/drafts"), nil, token)
		var list []domain.LocalBuild
		testutil.AssertJSONResponse(t, resp, &list)
		assert.Len(t, list, 2)
	})

	t.Run("record breaking build rules keeps existing drafts", func(t *testing.T) {
		payload := `[{"id":"d1","buildName":"Overloaded","visibility":"private","itemType":"character","itemId":"lynn",` +
			`"mods":["Resolve","Resolve","Resolve","Resolve","Resolve","Resolve","Resolve","Resolve","Resolve","Resolve"]}]`
		resp := importReq(t, []byte(payload), token)
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "record 0")

		resp = do(t, http.MethodGet, ts.APIURL("/drafts"), nil, token)
		var list []domain.LocalBuild
		testutil.AssertJSONResponse(t, resp, &list)
		assert.Len(t, list, 2)
	})

	t.Run("empty array clears", func(t *testing.T) {
		resp := importReq(t, []byte(`[]`), token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, http.MethodGet, ts.APIURL("/drafts"), nil, token)
		var list []domain.LocalBuild
		testutil.AssertJSONResponse(t, resp, &list)
		assert.Empty(t, list)
	})
}
