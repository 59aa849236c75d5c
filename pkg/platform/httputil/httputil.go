// Package httputil renders JSON responses and domain errors.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError is the single translation point from errors to HTTP responses.
// Non-domain errors and internal errors are rendered without a description.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		de = dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
	}

	body := map[string]string{"error": de.ErrorCode()}
	if de.Code != dErrors.CodeInternal {
		body["error_description"] = de.Message
		for k, v := range de.Details {
			if k == "error" || k == "error_description" {
				continue
			}
			body[k] = v
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), body)
}

// ReadBody reads a bounded request body.
func ReadBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read request body")
	}
	if len(raw) > maxBodyBytes {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body too large")
	}
	return raw, nil
}

// DecodeJSON decodes a bounded JSON body into v. An empty body decodes to
// the zero value so optional-body endpoints (dispatch, complete) accept it.
func DecodeJSON(r *http.Request, v any) error {
	raw, err := ReadBody(r)
	if err != nil {
		return err
	}
	return Unmarshal(raw, v)
}

// Unmarshal decodes raw JSON into v with bad_request semantics.
func Unmarshal(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return dErrors.New(dErrors.CodeBadRequest, "malformed JSON body")
		case errors.As(err, &typeErr):
			return dErrors.New(dErrors.CodeValidation, "invalid type for field "+typeErr.Field)
		default:
			return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
		}
	}
	return nil
}

// Preparable is implemented by request bodies that trim and check their own fields.
type Preparable interface {
	Normalize()
	Validate() error
}

// DecodeAndPrepare decodes the body into a T, normalizes and validates it. On
// failure the error response is already written and ok is false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Preparable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := PT(new(T))
	if err := DecodeJSON(r, req); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return (*T)(req), true
}

// LogAndWriteError logs a failed operation and writes its error response.
// Client-caused failures log at warn, everything else at error.
func LogAndWriteError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	level := slog.LevelError
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	WriteError(w, err)
}

// RequireActor returns the authenticated actor. When the auth middleware did
// not run it writes a 401 and returns false.
func RequireActor(w http.ResponseWriter, r *http.Request) (requestcontext.ActorInfo, bool) {
	actor, ok := requestcontext.Actor(r.Context())
	if !ok {
		WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return requestcontext.ActorInfo{}, false
	}
	return actor, true
}
