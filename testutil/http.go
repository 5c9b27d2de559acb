package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Serve runs req through handler and returns the recorded response.
func Serve(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func AssertJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	require.Contains(t, rec.Header().Get("Content-Type"), "application/json",
		"Response Content-Type should be application/json")

	err := json.Unmarshal(rec.Body.Bytes(), target)
	require.NoError(t, err, "Response body should be valid JSON")
}

func AssertStatusCode(t *testing.T, rec *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	assert.Equal(t, expectedStatus, rec.Code, "Response status code mismatch")
}

func AssertResponseContains(t *testing.T, rec *httptest.ResponseRecorder, substring string) {
	t.Helper()
	assert.Contains(t, rec.Body.String(), substring, "Response body should contain substring")
}
