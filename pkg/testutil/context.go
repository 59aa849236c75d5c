package testutil

import (
	"net/http"

	"phishsim/pkg/requestcontext"
)

// WithActor puts actor on the request context, as the auth middleware does
// for a resolved bearer token.
func WithActor(req *http.Request, actor requestcontext.ActorInfo) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}
