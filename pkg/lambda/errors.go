package lambda

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEvent is returned when a payload matches no supported event source
	ErrUnknownEvent = errors.New("unrecognized event payload")

	// ErrInvalidBody is returned when a base64 event body fails to decode
	ErrInvalidBody = errors.New("invalid event body")
)

// DrainError reports a failed chunk pull while buffering a response body.
// It is the only error the adapter returns to the driver.
type DrainError struct {
	Chunk int   // index of the pull that failed
	Err   error // underlying error
}

func (e *DrainError) Error() string {
	return fmt.Sprintf("drain response body: chunk %d: %v", e.Chunk, e.Err)
}

func (e *DrainError) Unwrap() error {
	return e.Err
}

// HandlerFault is the panic value raised when a wrapped service returns an
// error and the adapter runs with FaultAbort.
type HandlerFault struct {
	Err error
}

func (e *HandlerFault) Error() string {
	return fmt.Sprintf("handler fault: %v", e.Err)
}

func (e *HandlerFault) Unwrap() error {
	return e.Err
}

// ReadinessFault is the panic value raised when a wrapped service reports
// an error from PollReady. Services must never do that.
type ReadinessFault struct {
	Err error
}

func (e *ReadinessFault) Error() string {
	return fmt.Sprintf("readiness fault: %v", e.Err)
}

func (e *ReadinessFault) Unwrap() error {
	return e.Err
}

// IsDrainError returns true if err was caused by a failed body drain
func IsDrainError(err error) bool {
	var drainErr *DrainError
	return errors.As(err, &drainErr)
}
