package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationHandler(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	start := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
	}{
		{
			name: "valid timer",
			body: map[string]interface{}{
				"itemName":  "Phoenix Feather",
				"category":  "Forge",
				"startTime": start,
				"endTime":   start.Add(time.Hour),
				"quantity":  2,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "ends before it starts",
			body: map[string]interface{}{
				"itemName":  "Backwards",
				"category":  "Forge",
				"startTime": start,
				"endTime":   start.Add(-time.Minute),
				"quantity":  1,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing fields",
			body:           map[string]interface{}{"quantity": 1},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.APIURL("/notifications"), tt.body, token)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	resp := do(t, http.MethodGet, ts.APIURL("/notifications"), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.CraftingNotification
	testutil.AssertJSONResponse(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Phoenix Feather", list[0].ItemName)
	assert.False(t, list[0].Notified)

	resp = do(t, http.MethodDelete, ts.APIURL("/notifications/"+list[0].ID), nil, token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.APIURL("/notifications"), nil, token)
	testutil.AssertJSONResponse(t, resp, &list)
	assert.Empty(t, list)
}
