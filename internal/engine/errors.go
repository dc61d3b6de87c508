package engine

import "fmt"

type (
	// TransientError covers network faults, timeouts and rate limiting.
	// Callers may retry the same invocation after a delay.
	TransientError struct{ Reason string }

	// NotFoundError indicates the resource does not exist or the URL
	// could not be handled by any extractor. Retrying cannot help.
	NotFoundError struct{ Reason string }

	// RestrictedError indicates the platform refused access to the
	// resource (authentication, age or region gating). Retrying with
	// the same identity cannot help, but a stronger strategy might.
	RestrictedError struct{ Reason string }

	// UnknownError is any engine failure that matched no known shape.
	UnknownError struct{ Reason string }
)

func (err *TransientError) Error() string {
	return fmt.Sprintf("transient engine failure: %s", err.Reason)
}

func (err *NotFoundError) Error() string {
	return fmt.Sprintf("resource could not be resolved: %s", err.Reason)
}

func (err *RestrictedError) Error() string {
	return fmt.Sprintf("access to resource is restricted: %s", err.Reason)
}

func (err *UnknownError) Error() string {
	return fmt.Sprintf("unclassified engine failure: %s", err.Reason)
}
