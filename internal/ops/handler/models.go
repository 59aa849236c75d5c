package handler

import (
	"strings"

	dErrors "phishsim/pkg/domain-errors"
)

type pauseRequest struct {
	Paused *bool  `json:"paused"`
	Reason string `json:"reason"`
}

func (r *pauseRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *pauseRequest) Validate() error {
	if r.Paused == nil {
		return dErrors.New(dErrors.CodeValidation, "paused is required").WithDetail("field", "paused")
	}
	if len(r.Reason) < 3 || len(r.Reason) > 250 {
		return dErrors.New(dErrors.CodeValidation, "reason must be 3 to 250 characters").WithDetail("field", "reason")
	}
	return nil
}
