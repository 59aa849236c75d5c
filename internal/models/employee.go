package models

import (
	"time"

	id "phishsim/pkg/domain"
)

// Employee is a roster entry; email is unique per tenant.
type Employee struct {
	ID         id.EmployeeID `json:"id"`
	TenantID   id.TenantID   `json:"tenantId"`
	Email      string        `json:"email"`
	FullName   string        `json:"fullName"`
	Department *string       `json:"department"`
	DataClass  DataClass     `json:"dataClass"`
	CreatedAt  time.Time     `json:"createdAt"`
}
