package pause

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "phishsim/pkg/domain-errors"
)

func TestResolveAllCombinations(t *testing.T) {
	tests := []struct {
		state State
		want  Decision
	}{
		{State{}, Decision{Code: CodeNotPaused}},
		{State{Campaign: true}, Decision{true, ScopeCampaign, CodeCampaignPaused}},
		{State{Tenant: true}, Decision{true, ScopeTenant, CodeTenantPaused}},
		{State{Tenant: true, Campaign: true}, Decision{true, ScopeTenant, CodeTenantPaused}},
		{State{Global: true}, Decision{true, ScopeGlobal, CodeGlobalPaused}},
		{State{Global: true, Campaign: true}, Decision{true, ScopeGlobal, CodeGlobalPaused}},
		{State{Global: true, Tenant: true}, Decision{true, ScopeGlobal, CodeGlobalPaused}},
		{State{Global: true, Tenant: true, Campaign: true}, Decision{true, ScopeGlobal, CodeGlobalPaused}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.state), "%+v", tt.state)
	}
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Resolve(State{}).Err())

	err := Resolve(State{Tenant: true}).Err()
	require.Error(t, err)
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeConflict, de.Code)
	assert.Equal(t, "PAUSED_TENANT", de.ErrorCode())
	assert.Equal(t, "tenant", de.Details["scope"])
}

func TestResolvePrecedenceProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("blocked iff any switch is set", prop.ForAll(
		func(g, tn, c bool) bool {
			return Resolve(State{g, tn, c}).Blocked == (g || tn || c)
		},
		gen.Bool(), gen.Bool(), gen.Bool(),
	))

	properties.Property("global wins whenever set", prop.ForAll(
		func(tn, c bool) bool {
			return Resolve(State{true, tn, c}).Scope == ScopeGlobal
		},
		gen.Bool(), gen.Bool(),
	))

	properties.Property("campaign only wins alone", prop.ForAll(
		func(g, tn bool) bool {
			d := Resolve(State{g, tn, true})
			return (d.Scope == ScopeCampaign) == (!g && !tn)
		},
		gen.Bool(), gen.Bool(),
	))

	properties.TestingRun(t)
}
