// Package refcount provides the shared atomic reference counter used by
// the lifecycle types in this module.
//
// A counter starts at one owner via Init. Hold adds an owner, Release
// removes one. Exactly one caller of Release observes the drop to zero
// regardless of how many goroutines release concurrently; that caller
// runs whatever teardown its owner defines.
package refcount

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// RC is an atomic reference count. Embed it by value and call Init
// before first use; the zero value is not a live counter.
type RC struct {
	refs atomic.Int64
}

// Init sets the counter to a single owner.
func (rc *RC) Init() {
	rc.refs.Store(1)
}

// Hold adds an owner.
func (rc *RC) Hold() {
	rc.refs.Add(1)
}

// Release removes an owner. It returns true for exactly the caller
// whose decrement reached zero; that caller must run the teardown.
// Releasing more times than held is a caller bug: it is detected and
// logged, and false is returned so teardown never runs twice.
func (rc *RC) Release() bool {
	n := rc.refs.Add(-1)
	if n < 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Release",
			"refs":     n,
		}).Error("reference count released below zero")
		return false
	}
	return n == 0
}

// Refs reports the current owner count. Intended for logging and
// tests; the value may be stale the moment it is read.
func (rc *RC) Refs() int64 {
	return rc.refs.Load()
}
