package models

import "errors"

// Storage errors shared by the repositories and the services that consume them.
var (
	ErrUserExists      = errors.New("username or email already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")

	// ErrUpstreamRejected marks a 4xx answer: the upstream is healthy but refused this query.
	ErrUpstreamRejected = errors.New("upstream rejected request")
)
