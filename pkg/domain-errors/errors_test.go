package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeThroughWrapping(t *testing.T) {
	base := New(CodeConflict, "campaign must be previewed").WithReason("PREVIEW_REQUIRED")
	wrapped := fmt.Errorf("schedule: %w", base)

	assert.True(t, HasCode(wrapped, CodeConflict))
	assert.True(t, HasReason(wrapped, "PREVIEW_REQUIRED"))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestErrorCodePrefersReason(t *testing.T) {
	assert.Equal(t, "not_found", New(CodeNotFound, "missing").ErrorCode())
	assert.Equal(t, "PAUSED_GLOBAL", New(CodeConflict, "paused").WithReason("PAUSED_GLOBAL").ErrorCode())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeInternal, "persist state")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "persist state: disk full", err.Error())
}

func TestWithDetail(t *testing.T) {
	err := New(CodeConflict, "paused").WithDetail("scope", "tenant")
	assert.Equal(t, map[string]string{"scope": "tenant"}, err.Details)
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:         http.StatusBadRequest,
		CodeValidation:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeInvariantViolation: http.StatusConflict,
		CodeLocked:             http.StatusLocked,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), string(code))
	}
}
