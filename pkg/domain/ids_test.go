package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "phishsim/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCampaignID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCampaignID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCampaignID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseCampaignID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, CampaignID(validUUID), id)
	})
}

// TestParseID_SecurityInvariants validates that path parameters reaching
// the services are rejected before any lookup happens.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE campaigns;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecipientID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	parsers := map[string]func(string) error{
		"tenant":         func(s string) error { _, err := ParseTenantID(s); return err },
		"admin":          func(s string) error { _, err := ParseAdminID(s); return err },
		"target domain":  func(s string) error { _, err := ParseTargetDomainID(s); return err },
		"sending domain": func(s string) error { _, err := ParseSendingDomainID(s); return err },
		"employee":       func(s string) error { _, err := ParseEmployeeID(s); return err },
		"campaign":       func(s string) error { _, err := ParseCampaignID(s); return err },
		"recipient":      func(s string) error { _, err := ParseRecipientID(s); return err },
		"session":        func(s string) error { _, err := ParseTrainingSessionID(s); return err },
		"violation":      func(s string) error { _, err := ParseViolationID(s); return err },
	}

	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, parse(validUUID))
			for _, input := range invalidInputs {
				require.Error(t, parse(input), "input %q", input)
			}
		})
	}
}

// TestIDsAsJSONMapKeys guards the snapshot format: tables are persisted as
// JSON objects keyed by typed IDs.
func TestIDsAsJSONMapKeys(t *testing.T) {
	key := CampaignID(uuid.New())
	in := map[CampaignID]string{key: "q3 payroll lure"}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), key.String())

	var out map[CampaignID]string
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
