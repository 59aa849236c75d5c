package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"phishsim/internal/models"
	"phishsim/internal/store/storetest"
	"phishsim/internal/tenant/handler"
	"phishsim/internal/tenant/secrets"
	"phishsim/internal/tenant/service"
	"phishsim/pkg/platform/middleware/auth"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	secrets.Cost = bcrypt.MinCost
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(storetest.New(t))
	h := handler.New(svc, logger)

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireActor(svc, logger))
		h.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(logger, string(models.RoleOwner)))
			h.RegisterOwner(r)
		})
	})
	return r
}

func call(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type signupResponse struct {
	Tenant struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	} `json:"tenant"`
	Token string `json:"token"`
}

func signup(t *testing.T, router http.Handler, company, address string) signupResponse {
	t.Helper()
	rec := call(t, router, http.MethodPost, "/auth/signup-tenant", "", map[string]string{
		"companyName": company,
		"adminEmail":  address,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[signupResponse](t, rec)
}

func TestOnboardingFlow(t *testing.T) {
	router := newRouter(t)
	owner := signup(t, router, "Acme Corp", "owner@acme.test")
	assert.Equal(t, "acme-corp", owner.Tenant.Slug)

	rec := call(t, router, http.MethodGet, "/me", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		Admin struct {
			Role string `json:"role"`
		} `json:"admin"`
		SendingDomains []struct {
			Domain string `json:"domain"`
		} `json:"sendingDomains"`
	}](t, rec)
	assert.Equal(t, "owner", me.Admin.Role)
	require.Len(t, me.SendingDomains, 1)
	assert.Equal(t, "acme-corp.sim.phishsim.local", me.SendingDomains[0].Domain)

	rec = call(t, router, http.MethodPost, "/target-domains", owner.Token, map[string]string{"domain": "acme.test"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	target := decode[struct {
		ID string `json:"id"`
	}](t, rec)

	rec = call(t, router, http.MethodPatch, "/tenants/"+owner.Tenant.ID+"/lifecycle-mode", owner.Token,
		map[string]string{"lifecycleMode": "production"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TARGET_DOMAIN_NOT_VERIFIED", decode[map[string]string](t, rec)["error"])

	rec = call(t, router, http.MethodPost, "/target-domains/"+target.ID+"/verify-demo", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPatch, "/tenants/"+owner.Tenant.ID+"/lifecycle-mode", owner.Token,
		map[string]string{"lifecycleMode": "production"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/employees/import-csv", owner.Token, map[string]string{
		"csv": "email,full_name\nada@acme.test,Ada\nmax@other.test,Max\n",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	imported := decode[service.ImportResult](t, rec)
	assert.Equal(t, 1, imported.ImportedCount)
	assert.Len(t, imported.Errors, 1)

	rec = call(t, router, http.MethodGet, "/employees", owner.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]json.RawMessage](t, rec)["employees"], 1)
}

func TestAdminInviteIsOwnerOnly(t *testing.T) {
	router := newRouter(t)
	owner := signup(t, router, "Acme", "owner@acme.test")

	rec := call(t, router, http.MethodPost, "/admin-users", owner.Token, map[string]string{"email": "analyst@acme.test"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invited := decode[struct {
		Token string `json:"token"`
	}](t, rec)

	rec = call(t, router, http.MethodPost, "/admin-users", invited.Token, map[string]string{"email": "x@acme.test"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodGet, "/me", invited.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthAndTenantScoping(t *testing.T) {
	router := newRouter(t)
	acme := signup(t, router, "Acme", "owner@acme.test")
	beta := signup(t, router, "Beta", "owner@beta.test")

	rec := call(t, router, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, router, http.MethodGet, "/me", acme.Token+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, router, http.MethodPatch, "/tenants/"+beta.Tenant.ID+"/default-sending-mode", acme.Token,
		map[string]string{"defaultSendingMode": "dedicated"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodPatch, "/tenants/not-a-uuid/default-sending-mode", acme.Token,
		map[string]string{"defaultSendingMode": "dedicated"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	router := newRouter(t)
	tests := []struct {
		name string
		body map[string]string
	}{
		{"short company", map[string]string{"companyName": "A", "adminEmail": "a@acme.test"}},
		{"missing email", map[string]string{"companyName": "Acme"}},
		{"bad email", map[string]string{"companyName": "Acme", "adminEmail": "nope"}},
		{"bad mode", map[string]string{"companyName": "Acme", "adminEmail": "a@acme.test", "defaultSendingMode": "smtp"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, router, http.MethodPost, "/auth/signup-tenant", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}
