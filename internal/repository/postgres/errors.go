// Package postgres holds the SQL-backed repositories. Every repository
// wraps driver errors with context and maps sql.ErrNoRows to ErrNotFound.
package postgres

import "errors"

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")
