package artifacts

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal errors for the CLI boundary.
type ErrorKind int

const (
	// KindProvisioning covers download, extraction, swap and bootstrap failures.
	KindProvisioning ErrorKind = iota + 1
	// KindConfiguration covers invalid switches and unusable read-only roots.
	KindConfiguration
	// KindLaunch covers failures to start the delegate process.
	KindLaunch
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindProvisioning:
		return "provisioning"
	case KindConfiguration:
		return "configuration"
	case KindLaunch:
		return "launch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a fatal error tagged with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with kind. A nil err stays nil.
func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the first Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return 0, false
}
