// Package store persists cycle results: an append-only CSV log and a
// plain-text cycle counter. Both survive process restarts and power-off.
package store

import (
	"errors"
	"fmt"
)

// ErrPersistence marks a failed write to the log or the counter. Data written
// for earlier cycles is never rolled back.
var ErrPersistence = errors.New("persistence fault")

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
