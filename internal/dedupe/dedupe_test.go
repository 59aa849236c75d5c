package dedupe

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "phishsim/pkg/domain"
)

var (
	recipientID = id.RecipientID(uuid.MustParse("8f5c2f2e-4a41-4c38-a6f5-0f9d0a7d2c11"))
	sessionID   = id.TrainingSessionID(uuid.MustParse("1b0e6c4a-91f7-4e5d-9d55-3a9e0b2fa0c7"))
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{"manual", New(recipientID, EventClick, Manual()), recipientID.String() + ":click:manual"},
		{"training session", New(recipientID, EventTrainingStarted, TrainingSession(sessionID)), recipientID.String() + ":training_started:" + sessionID.String()},
		{"provider message", New(recipientID, EventOpen, ProviderMessage("mock-abc")), recipientID.String() + ":open:provider:mock-abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.String())
			parsed, err := ParseKey(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.key, parsed)
		})
	}
}

func TestParseKeyProviderIDWithColons(t *testing.T) {
	raw := recipientID.String() + ":delivered:provider:ses:0100018f:abc"
	k, err := ParseKey(raw)
	require.NoError(t, err)
	assert.Equal(t, SourceProviderMessage, k.Source.Kind)
	assert.Equal(t, "ses:0100018f:abc", k.Source.ID)
	assert.Equal(t, raw, k.String())
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"no-colons",
		recipientID.String() + ":click",
		recipientID.String() + ":click:",
		"not-a-uuid:click:manual",
		recipientID.String() + ":teleported:manual",
		recipientID.String() + ":training_started:not-a-session",
		recipientID.String() + ":open:provider:",
	} {
		_, err := ParseKey(raw)
		assert.Error(t, err, raw)
	}
}

func TestKeyJSONMapRoundTrip(t *testing.T) {
	in := map[Key]int{New(recipientID, EventReported, Manual()): 1}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out map[Key]int
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestEventTypeClassification(t *testing.T) {
	assert.True(t, EventClick.IsProviderType())
	assert.False(t, EventCredentialSubmit.IsProviderType())
	assert.False(t, EventType("bounce").IsValid())
}

func TestKeyRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	types := []EventType{EventDelivered, EventOpen, EventClick, EventCredentialSubmit, EventReported, EventTrainingStarted, EventTrainingCompleted}

	properties.Property("ParseKey inverts String for every source kind", prop.ForAll(
		func(typeIdx, kind int, messageID string) bool {
			var source Source
			switch kind {
			case 0:
				source = Manual()
			case 1:
				source = TrainingSession(sessionID)
			default:
				source = ProviderMessage("m:" + messageID)
			}
			k := New(recipientID, types[typeIdx], source)
			parsed, err := ParseKey(k.String())
			return err == nil && parsed == k
		},
		gen.IntRange(0, len(types)-1),
		gen.IntRange(0, 2),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
