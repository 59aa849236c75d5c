// Package sentinel holds infrastructure error values that persisters and the
// store join onto their failures. Services match them with errors.Is and
// translate them into domain errors.
package sentinel

import "errors"

// ErrUnavailable marks a failure of the backing persister (file system,
// Postgres, SQLite or Redis) rather than of the requested operation.
var ErrUnavailable = errors.New("persistence unavailable")
