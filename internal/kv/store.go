// ABOUTME: Key-value store interface modeling the client's persisted local state
// ABOUTME: Defines Store, the Change journal record, and shared errors

package kv

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is the persisted key-value state the client owns: token, username,
// and the per-identity cart keys. Reads and writes are synchronous and
// atomic at the granularity of a single key; a read-modify-write sequence
// spanning two calls is not atomic across concurrent processes.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys returns all keys with the given prefix, sorted.
	Keys(prefix string) ([]string, error)
}

// ChangeOp identifies what happened to a key.
type ChangeOp string

const (
	OpSet    ChangeOp = "set"
	OpRemove ChangeOp = "remove"
)

// Change is one entry in the store's change journal. Other processes sharing
// the same store observe mutations through these records, identified by a
// monotonically increasing sequence number. The journal carries no values:
// observers re-read the store, last write wins.
type Change struct {
	Seq    int64
	Origin string // process that performed the write
	Key    string
	Op     ChangeOp
	At     time.Time
}
