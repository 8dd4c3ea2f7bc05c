// Package common defines shared constants and sentinel errors used across
// the string editor server, its repositories and the admin tool. Callers
// should use errors.Is to match these values.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// request validation
	ErrorBadInput      = errors.New("bad input")
	ErrorWrongPassword = errors.New("wrong password")

	// registration
	ErrorAlreadyExists = errors.New("already exists")

	// session issued for a user whose sessions were revoked in the meantime
	ErrorStaleSession = errors.New("stale session")
)
