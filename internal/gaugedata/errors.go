package gaugedata

import (
	"errors"
	"fmt"
)

var (
	// ErrPublish is returned when a snapshot could not be written. The
	// worker skips the publish and tries again on the next tick.
	ErrPublish = errors.New("failed to publish gauge data")
	// ErrQueueFull is returned when a packet could not be queued within
	// the enqueue timeout.
	ErrQueueFull = errors.New("packet queue full")
	// ErrStopped is returned when queueing to a worker that has been told
	// to stop.
	ErrStopped = errors.New("gauge data worker stopped")
)

// FieldResolutionError reports a field whose value could not be computed.
// The field falls back to its default.
type FieldResolutionError struct {
	Field string
	Err   error
}

func (e *FieldResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve field %q: %v", e.Field, e.Err)
}

func (e *FieldResolutionError) Unwrap() error {
	return e.Err
}
