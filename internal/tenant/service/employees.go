package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"phishsim/internal/audit"
	"phishsim/internal/models"
	"phishsim/internal/store"
	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/email"
	"phishsim/pkg/requestcontext"
)

type rosterRow struct {
	email      string
	fullName   string
	department *string
}

// parseRoster reads a CSV roster. The header must name email and full_name
// (or name); department is optional. Bad rows are reported by line and
// skipped.
func parseRoster(raw string) ([]rosterRow, []string, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "CSV must include header and at least one row").WithDetail("field", "csv")
	}
	col := func(names ...string) int {
		for _, name := range names {
			if i := slices.IndexFunc(header, func(h string) bool { return strings.EqualFold(strings.TrimSpace(h), name) }); i >= 0 {
				return i
			}
		}
		return -1
	}
	emailIdx, nameIdx, deptIdx := col("email"), col("full_name", "name"), col("department")
	if emailIdx < 0 || nameIdx < 0 {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "CSV header must include email and full_name (or name)").WithDetail("field", "csv")
	}

	field := func(rec []string, i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	var rows []rosterRow
	var problems []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeValidation, "csv could not be read")
			}
			problems = append(problems, fmt.Sprintf("Line %d: malformed row", parseErr.Line))
			continue
		}
		line, _ := r.FieldPos(0)
		address := email.Normalize(field(rec, emailIdx))
		if !email.IsValid(address) {
			problems = append(problems, fmt.Sprintf("Line %d: invalid email", line))
			continue
		}
		name := field(rec, nameIdx)
		if name == "" {
			problems = append(problems, fmt.Sprintf("Line %d: missing full_name", line))
			continue
		}
		row := rosterRow{email: address, fullName: name}
		if dept := field(rec, deptIdx); dept != "" {
			row.department = &dept
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		if len(problems) == 0 {
			problems = []string{"CSV must include header and at least one row"}
		}
		return nil, nil, dErrors.New(dErrors.CodeValidation, strings.Join(problems, "; ")).WithDetail("field", "csv")
	}
	return rows, problems, nil
}

// ImportResult reports a roster import. ImportedCount is the tenant's roster
// size after the import.
type ImportResult struct {
	ImportedCount int      `json:"importedCount"`
	Created       int      `json:"created"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
}

// ImportEmployees adds roster rows, skipping addresses already on the roster.
// Production tenants may only import addresses of their verified target
// domain.
func (s *Service) ImportEmployees(ctx context.Context, actor requestcontext.ActorInfo, raw string) (*ImportResult, error) {
	rows, problems, err := parseRoster(raw)
	if err != nil {
		return nil, err
	}

	res, err := store.Update(ctx, s.tx, func(st *store.State) (*ImportResult, error) {
		t, err := actorTenant(st, actor)
		if err != nil {
			return nil, err
		}
		res := &ImportResult{Errors: slices.Clone(problems)}
		if res.Errors == nil {
			res.Errors = []string{}
		}

		existing := map[string]struct{}{}
		for _, e := range st.TenantEmployees(t.ID) {
			existing[e.Email] = struct{}{}
		}
		target, hasTarget := st.TargetDomainFor(t.ID)
		production := t.LifecycleMode == models.LifecycleProduction
		dataClass := t.LifecycleMode.DataClass()

		for _, row := range rows {
			if production {
				if !hasTarget || target.VerificationStatus != models.TargetDomainDemoVerified {
					res.Errors = append(res.Errors, "Target domain must be verified before importing employees in production mode")
					continue
				}
				if email.Domain(row.email) != target.Domain {
					res.Errors = append(res.Errors, fmt.Sprintf("Rejected %s: outside target domain %s", row.email, target.Domain))
					continue
				}
			}
			if _, dup := existing[row.email]; dup {
				res.Skipped++
				continue
			}
			e := &models.Employee{
				ID:         id.EmployeeID(st.NewID()),
				TenantID:   t.ID,
				Email:      row.email,
				FullName:   row.fullName,
				Department: row.department,
				DataClass:  dataClass,
				CreatedAt:  st.Now(),
			}
			st.Employees[e.ID] = e
			existing[e.Email] = struct{}{}
			res.Created++
		}
		res.ImportedCount = len(existing)

		entry := audit.ByAdmin(t.ID, actor.AdminID, audit.ActionEmployeeImportCSV, audit.ResourceEmployee, t.ID.String())
		entry.Metadata = map[string]any{
			"inputRows": len(rows),
			"created":   res.Created,
			"errors":    len(res.Errors),
		}
		st.AppendAudit(entry)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "employees imported",
		"tenant_id", actor.TenantID.String(),
		"created", res.Created,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
	)
	return res, nil
}

// ListEmployees returns the roster oldest first.
func (s *Service) ListEmployees(ctx context.Context, actor requestcontext.ActorInfo) ([]*models.Employee, error) {
	return store.View(ctx, s.tx, func(st *store.State) ([]*models.Employee, error) {
		out := st.TenantEmployees(actor.TenantID)
		if out == nil {
			out = []*models.Employee{}
		}
		return out, nil
	})
}
