package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// APIError mirrors the JSON error body written by the handlers
type APIError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the status and that the error message
// contains expectedMessage
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) *APIError {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var apiErr APIError
	AssertJSONResponse(t, resp, &apiErr)
	assert.Contains(t, apiErr.Error, expectedMessage, "error message mismatch")
	return &apiErr
}

// AssertValidationFields verifies a 400 response that names every field
// in fields
func AssertValidationFields(t *testing.T, resp *http.Response, fields ...string) {
	t.Helper()

	apiErr := AssertErrorResponse(t, resp, http.StatusBadRequest, "validation")
	for _, f := range fields {
		assert.Contains(t, apiErr.Fields, f, "missing field error for %s", f)
	}
}
