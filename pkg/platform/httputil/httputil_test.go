package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "phishsim/pkg/domain-errors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "expected error_description to be omitted for internal errors")
	})

	t.Run("plain errors are treated as internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", decodeBody(t, w)["error"])
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})

	t.Run("guard violation renders reason and details", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeConflict, "sending is paused").
			WithReason("PAUSED_TENANT").
			WithDetail("scope", "tenant"))

		assert.Equal(t, http.StatusConflict, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "PAUSED_TENANT", body["error"])
		assert.Equal(t, "tenant", body["scope"])
	})

	t.Run("locked maps to 423", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeLocked, "tenant restricted").WithReason("TENANT_RESTRICTED"))
		assert.Equal(t, http.StatusLocked, w.Code)
		assert.Equal(t, "TENANT_RESTRICTED", decodeBody(t, w)["error"])
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Force bool `json:"force"`
	}

	t.Run("empty body yields zero value", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/campaigns/x/dispatch", nil)
		require.NoError(t, DecodeJSON(req, &p))
		assert.False(t, p.Force)
	})

	t.Run("malformed body is bad request", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/campaigns/x/dispatch", strings.NewReader("{"))
		err := DecodeJSON(req, &p)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("wrong type is validation error", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/campaigns/x/dispatch", strings.NewReader(`{"force":"yes"}`))
		err := DecodeJSON(req, &p)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
