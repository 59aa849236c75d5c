package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"phishsim/internal/models"
	"phishsim/internal/risk"
	"phishsim/internal/risk/handler/mocks"
	"phishsim/internal/risk/service"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

var owner = requestcontext.ActorInfo{
	AdminID:  id.AdminID(uuid.New()),
	TenantID: id.TenantID(uuid.New()),
	Role:     "owner",
}

func newRouter(t *testing.T) (*mocks.MockService, http.Handler) {
	t.Helper()
	svc := mocks.NewMockService(gomock.NewController(t))
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(requestcontext.WithActor(req.Context(), owner)))
		})
	})
	h.Register(r)
	h.RegisterOwner(r)
	return svc, r
}

func send(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHandleEvaluate(t *testing.T) {
	svc, router := newRouter(t)
	cid := id.CampaignID(uuid.New())

	svc.EXPECT().EvaluateCampaign(gomock.Any(), owner, cid, "weekly review").
		Return(&service.Evaluation{
			CampaignRisk: service.CampaignRisk{CampaignID: cid, Risk: risk.Assessment{Score: 42.5, Level: risk.LevelMedium}},
			Created:      []*models.PolicyViolation{{Type: models.ViolationHighClickRate}},
			Matched:      []*models.PolicyViolation{},
		}, nil)

	rec := send(t, router, http.MethodPost, "/campaigns/"+cid.String()+"/risk/evaluate", map[string]string{"note": "  weekly review "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Risk struct {
			Score float64 `json:"score"`
			Level string  `json:"level"`
		} `json:"risk"`
		Created []map[string]any `json:"created"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42.5, body.Risk.Score)
	assert.Equal(t, "medium", body.Risk.Level)
	assert.Len(t, body.Created, 1)
}

func TestHandleOverviewScope(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().TenantOverview(gomock.Any(), owner, models.ScopeReal).
		Return(&service.Overview{Scope: models.ScopeReal}, nil)
	rec := send(t, router, http.MethodGet, "/risk/overview?scope=real", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, router, http.MethodGet, "/risk/overview?scope=prod", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListViolationsParsesStatuses(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().ListViolations(gomock.Any(), owner, []models.ViolationStatus{models.ViolationOpen, models.ViolationDismissed}).
		Return([]*models.PolicyViolation{}, nil)
	rec := send(t, router, http.MethodGet, "/policy-violations?status=Open,dismissed,open", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"violations":[]}`, rec.Body.String())
}

func TestHandleReview(t *testing.T) {
	vid := id.ViolationID(uuid.New())

	t.Run("conflict", func(t *testing.T) {
		svc, router := newRouter(t)
		svc.EXPECT().Review(gomock.Any(), owner, vid, models.DecisionDismiss, "expected").
			Return(nil, dErrors.New(dErrors.CodeConflict, "already reviewed").WithReason("VIOLATION_ALREADY_REVIEWED"))

		rec := send(t, router, http.MethodPost, "/policy-violations/"+vid.String()+"/review",
			map[string]string{"decision": "dismiss", "note": "expected"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "VIOLATION_ALREADY_REVIEWED", errorCode(t, rec))
	})

	t.Run("invalid decision never reaches the service", func(t *testing.T) {
		_, router := newRouter(t)
		rec := send(t, router, http.MethodPost, "/policy-violations/"+vid.String()+"/review",
			map[string]string{"decision": "approve", "note": "expected"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("note too short", func(t *testing.T) {
		_, router := newRouter(t)
		rec := send(t, router, http.MethodPost, "/policy-violations/"+vid.String()+"/review",
			map[string]string{"decision": "dismiss", "note": "ok"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleRestrict(t *testing.T) {
	path := "/tenants/" + owner.TenantID.String() + "/restrict"
	vid := id.ViolationID(uuid.New())

	t.Run("restrict", func(t *testing.T) {
		svc, router := newRouter(t)
		svc.EXPECT().SetRestriction(gomock.Any(), owner, owner.TenantID, service.RestrictionInput{
			Restricted: true, Reason: "confirmed abuse", ViolationID: &vid,
		}).Return(&models.Tenant{ID: owner.TenantID, Status: models.TenantStatusRestricted, SendPaused: true}, nil)

		rec := send(t, router, http.MethodPost, path, map[string]any{
			"restricted": true, "reason": "confirmed abuse", "policyViolationId": vid.String(),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"status":"restricted"`)
	})

	t.Run("restrict needs a violation", func(t *testing.T) {
		_, router := newRouter(t)
		rec := send(t, router, http.MethodPost, path, map[string]any{"restricted": true, "reason": "confirmed abuse"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lift", func(t *testing.T) {
		svc, router := newRouter(t)
		svc.EXPECT().SetRestriction(gomock.Any(), owner, owner.TenantID, service.RestrictionInput{Reason: "remediated"}).
			Return(&models.Tenant{ID: owner.TenantID, Status: models.TenantStatusActive}, nil)

		rec := send(t, router, http.MethodPost, path, map[string]any{"restricted": false, "reason": "remediated"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not approved", func(t *testing.T) {
		svc, router := newRouter(t)
		svc.EXPECT().SetRestriction(gomock.Any(), owner, owner.TenantID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "not approved").WithReason("VIOLATION_NOT_APPROVED"))

		rec := send(t, router, http.MethodPost, path, map[string]any{
			"restricted": true, "reason": "confirmed abuse", "policyViolationId": vid.String(),
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "VIOLATION_NOT_APPROVED", errorCode(t, rec))
	})
}
