// Package mferno holds the single piece of shared mutable state the rest
// of mathfun depends on: an errno-style "last math error" status, exactly
// as spec.md §5 calls for ("a thread-local 'last error' integer"). Go has
// no portable thread-local storage, so this is an atomic package-level
// int32; the façade clears it immediately before and reads it immediately
// after each evaluation, which gives the same observable contract as the
// original C library's process-wide errno for the one-evaluation-in-
// flight-per-goroutine case every host callback in this codebase assumes.
package mferno

import "sync/atomic"

// Status values. The exact numbers don't matter outside this package;
// they exist only so Get()/Set() have something concrete to move around,
// mirroring the EDOM/ERANGE values a C host callback would set.
const (
	OK     int32 = 0
	EDOM   int32 = 33
	ERANGE int32 = 34
)

var status int32

// Clear resets the status to OK. Called by the façade before every
// evaluation and constant fold.
func Clear() { atomic.StoreInt32(&status, OK) }

// Set records a math error. Safe to call from any goroutine; the caller
// is responsible for ensuring only one evaluation uses this status at a
// time (see package doc).
func Set(v int32) { atomic.StoreInt32(&status, v) }

// SetDomain records a domain error (EDOM), e.g. sqrt of a negative
// number.
func SetDomain() { Set(EDOM) }

// SetRange records a range error (ERANGE), e.g. log(0) overflowing to
// infinity.
func SetRange() { Set(ERANGE) }

// Get returns the current status without clearing it.
func Get() int32 { return atomic.LoadInt32(&status) }
