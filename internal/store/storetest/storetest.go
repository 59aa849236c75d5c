// Package storetest seeds stores for service tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"phishsim/internal/models"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
)

// New opens an empty store over a memory persister.
func New(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.NewMemoryPersister(), opts...)
	require.NoError(t, err)
	return s
}

// Tenant groups the rows created by SeedTenant.
type Tenant struct {
	Tenant        *models.Tenant
	Owner         *models.AdminUser
	SendingDomain *models.SendingDomain
	TargetDomain  *models.TargetDomain
}

// SeedTenant creates a sandbox tenant with an owner, an active dedicated
// sending domain and a demo-verified target domain acme.test-style.
func SeedTenant(t testing.TB, s *store.Store, slug string) Tenant {
	t.Helper()
	var out Tenant
	require.NoError(t, s.Write(context.Background(), func(st *store.State) error {
		now := st.Now()
		tenant, err := models.NewTenant(id.TenantID(uuid.New()), slug+" Inc", slug, models.SendingModeDedicated, now)
		if err != nil {
			return err
		}
		st.Tenants[tenant.ID] = tenant
		owner := &models.AdminUser{
			ID:        id.AdminID(uuid.New()),
			TenantID:  tenant.ID,
			Email:     "owner@" + slug + ".test",
			Role:      models.RoleOwner,
			CreatedAt: now,
		}
		st.PutAdmin(owner)
		sending := &models.SendingDomain{
			ID:                 id.SendingDomainID(uuid.New()),
			TenantID:           tenant.ID,
			Mode:               models.SendingModeDedicated,
			Domain:             slug + ".sim.phishsim.local",
			VerificationStatus: models.SendingDomainActive,
			CreatedAt:          now,
		}
		st.SendingDomains[sending.ID] = sending
		target := &models.TargetDomain{
			ID:                 id.TargetDomainID(uuid.New()),
			TenantID:           tenant.ID,
			Domain:             slug + ".test",
			VerificationStatus: models.TargetDomainDemoVerified,
			VerifiedAt:         &now,
			CreatedAt:          now,
		}
		st.TargetDomains[target.ID] = target
		out = Tenant{Tenant: tenant, Owner: owner, SendingDomain: sending, TargetDomain: target}
		return nil
	}))
	return out
}

// SeedEmployees adds n employees named employee-<i>@<slug>.test.
func SeedEmployees(t testing.TB, s *store.Store, tn Tenant, n int) []*models.Employee {
	t.Helper()
	out := make([]*models.Employee, 0, n)
	require.NoError(t, s.Write(context.Background(), func(st *store.State) error {
		for i := range n {
			e := &models.Employee{
				ID:        id.EmployeeID(uuid.New()),
				TenantID:  tn.Tenant.ID,
				Email:     fmt.Sprintf("employee-%d@%s", i, tn.TargetDomain.Domain),
				FullName:  fmt.Sprintf("Employee %d", i),
				DataClass: tn.Tenant.LifecycleMode.DataClass(),
				CreatedAt: st.Now().Add(time.Duration(i) * time.Millisecond),
			}
			st.Employees[e.ID] = e
			out = append(out, e)
		}
		return nil
	}))
	return out
}

// SeedCampaign creates a campaign on the tenant's dedicated domain and moves
// it to status. Scheduled and later statuses get a ScheduledAt.
func SeedCampaign(t testing.TB, s *store.Store, tn Tenant, status models.CampaignStatus) *models.Campaign {
	t.Helper()
	var out *models.Campaign
	require.NoError(t, s.Write(context.Background(), func(st *store.State) error {
		now := st.Now()
		c, err := models.NewCampaign(models.NewCampaignParams{
			ID:               id.CampaignID(uuid.New()),
			TenantID:         tn.Tenant.ID,
			Name:             "Quarterly drill",
			TemplateName:     "Invoice overdue",
			TrainingModuleID: models.DefaultTrainingModuleID,
			SendingMode:      models.SendingModeDedicated,
			SendingDomainID:  tn.SendingDomain.ID,
			DataScope:        tn.Tenant.LifecycleMode.DataClass(),
			CreatedBy:        tn.Owner.ID,
		}, now)
		if err != nil {
			return err
		}
		switch status {
		case models.CampaignDraft:
		case models.CampaignPreviewed:
			c.ApplyPreview(now)
		default:
			c.ApplyPreview(now)
			c.ApplySchedule(now, now)
			c.Status = status
		}
		st.Campaigns[c.ID] = c
		out = c
		return nil
	}))
	return out
}

// SeedSentRecipients materializes one sent recipient per employee with
// provider message id msg-<campaign>-<i>.
func SeedSentRecipients(t testing.TB, s *store.Store, c *models.Campaign, employees []*models.Employee) []*models.CampaignRecipient {
	t.Helper()
	out := make([]*models.CampaignRecipient, 0, len(employees))
	require.NoError(t, s.Write(context.Background(), func(st *store.State) error {
		for i, e := range employees {
			r := models.NewRecipient(id.RecipientID(uuid.New()), c, e, st.Now())
			r.MarkSent(fmt.Sprintf("msg-%s-%d", c.ID, i), st.Now())
			st.PutRecipient(r)
			out = append(out, r)
		}
		return nil
	}))
	return out
}
