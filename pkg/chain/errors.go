package chain

import (
	"errors"
	"fmt"
)

// ErrInvalidTree is returned when a node is missing its generator or updater.
var ErrInvalidTree = errors.New("invalid prompt tree")

// MissingContextFieldError reports a generator that needed a field absent from the context.
type MissingContextFieldError struct {
	Key Key
}

func (e *MissingContextFieldError) Error() string {
	return fmt.Sprintf("missing required context field: %s", e.Key)
}

// BackendError wraps a transport, auth or quota failure from the backend client.
type BackendError struct {
	Node string
	Op   string
	Err  error
}

func (e *BackendError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("backend %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s failed at node %q: %v", e.Op, e.Node, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsMissingContextField reports whether err is a MissingContextFieldError.
func IsMissingContextField(err error) bool {
	var target *MissingContextFieldError
	return errors.As(err, &target)
}

// IsBackendError reports whether err is a BackendError.
func IsBackendError(err error) bool {
	var target *BackendError
	return errors.As(err, &target)
}
