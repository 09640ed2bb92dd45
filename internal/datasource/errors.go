package datasource

import (
	"errors"
	"fmt"
)

// Sentinel state errors. Callers recover by performing the missing
// lifecycle step and retrying.
var (
	// ErrNotPrepared is returned when an operation requires Prepare first.
	ErrNotPrepared = errors.New("datasource is not prepared")

	// ErrNotFetched is returned by accessors when the current item slot is
	// empty.
	ErrNotFetched = errors.New("no data has been fetched")

	// ErrLabelsNotPrepared is returned by label accessors before the label
	// namespace has been prepared.
	ErrLabelsNotPrepared = errors.New("labels have not been prepared")
)

// NotImplementedError reports that a backend claims a capability but does
// not implement the required primitive. It names the offending backend type
// and the missing method.
type NotImplementedError struct {
	Backend string
	Method  string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("backend %s does not implement %s", e.Backend, e.Method)
}

// IsNotImplemented reports whether err is a missing-capability error.
func IsNotImplemented(err error) bool {
	var nie *NotImplementedError
	return errors.As(err, &nie)
}

// RangeError reports an index outside [0, Length).
type RangeError struct {
	Index  int
	Length int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d)", e.Index, e.Length)
}

// ValidationError reports invalid label-format input such as a table length
// mismatch or an unknown format name.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ResourceError reports a backend resource-acquisition failure during
// Prepare. The caller must re-invoke Prepare to retry.
type ResourceError struct {
	Source string
	Err    error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("preparing %s: %v", e.Source, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
