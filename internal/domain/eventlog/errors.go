package eventlog

import (
	"errors"
	"fmt"
)

// ConcurrencyConflict is returned by Append when the stored version of
// the aggregate no longer matches the caller's expected version. This is
// an expected race between writers, not a system error: the caller must
// reload, re-run the transition and try again.
type ConcurrencyConflict struct {
	AggregateType AggregateType
	AggregateID   ID
	Expected      Seq
}

func (e ConcurrencyConflict) Error() string {
	return fmt.Sprintf("Version [%d] is no longer current for %s [%v]", e.Expected, e.AggregateType, e.AggregateID)
}

// ContentionExceeded is surfaced by the Executor after exhausting its
// conflict retries on a single command.
type ContentionExceeded struct {
	AggregateType AggregateType
	AggregateID   ID
	Attempts      uint
}

func (e ContentionExceeded) Error() string {
	return fmt.Sprintf("Gave up after [%d] conflicting attempts on %s [%v]", e.Attempts, e.AggregateType, e.AggregateID)
}

// Corruption reports an event stream that violates the gap-free,
// strictly-increasing sequencing invariant, or an event that can no
// longer be decoded. Fatal for the affected operation; never patched
// silently.
type Corruption struct {
	AggregateType AggregateType
	AggregateID   ID
	Seq           Seq
	Reason        string
}

func (e Corruption) Error() string {
	return fmt.Sprintf("Corrupt stream for %s [%v] at seq [%d]: %v", e.AggregateType, e.AggregateID, e.Seq, e.Reason)
}

// NotFound is returned by view lookups when no view row exists for the
// given key. Queries do not fall back to replaying the event log.
type NotFound struct {
	View string
	ID   ID
}

func (e NotFound) Error() string {
	return fmt.Sprintf("No [%v] view for [%v]", e.View, e.ID)
}

// StorageErr wraps an infrastructure failure from the durable store
// (connection refused, timeout, ...). Retryable from the caller's point
// of view; the store itself does not retry.
type StorageErr struct {
	Underlying error
}

func (e StorageErr) Error() string {
	return fmt.Sprintf("Storage unavailable: %v", e.Underlying)
}

func (e StorageErr) Unwrap() error {
	return e.Underlying
}

// IsConflict reports whether err is a concurrency conflict at any level
// of wrapping.
func IsConflict(err error) bool {
	var c ConcurrencyConflict
	return errors.As(err, &c)
}

// IsNotFound reports whether err is a missing-view lookup.
func IsNotFound(err error) bool {
	var n NotFound
	return errors.As(err, &n)
}
