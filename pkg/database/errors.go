package database

import "errors"

// ErrAcquireTimeout is returned when no pooled connection frees up within AcquireTimeout.
var ErrAcquireTimeout = errors.New("timed out acquiring database connection")
