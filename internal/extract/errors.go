package extract

import "fmt"

type (
	// InvalidRequestError is raised before any engine invocation when
	// the request itself is unusable.
	InvalidRequestError struct{ Reason string }

	// PlaylistError is terminal: collections are never retried,
	// escalated or downloaded.
	PlaylistError struct{ URL string }

	// TransientFailureError surfaces only once every permitted retry
	// under the final tier has been consumed.
	TransientFailureError struct {
		Detail   string
		Attempts int
	}

	// NoUsableFormatsError indicates both tiers completed without
	// producing a single retrievable format. Advise is set when the
	// outcome could plausibly change if an auxiliary token were
	// configured.
	NoUsableFormatsError struct {
		Detail   string
		Attempts int
		Advise   bool
	}

	// AccessRestrictedError carries the engine's own explanation of an
	// authentication, age or region gate.
	AccessRestrictedError struct {
		Detail   string
		Attempts int
	}

	// MissingOutputError indicates the engine reported a completed
	// download but the expected file is absent. This is a contract
	// violation between the service and the engine, never retried.
	MissingOutputError struct{ Path string }

	// UnclassifiedError is the catch-all for engine failures that
	// matched no known taxonomy entry.
	UnclassifiedError struct {
		Detail   string
		Attempts int
	}
)

func (err *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", err.Reason)
}

func (err *PlaylistError) Error() string {
	return "URL resolves to a playlist; only single media items are supported"
}

func (err *TransientFailureError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts: %s", err.Attempts, err.Detail)
}

func (err *NoUsableFormatsError) Error() string {
	if err.Detail != "" {
		return fmt.Sprintf("no usable formats could be resolved: %s", err.Detail)
	}

	return "no usable formats could be resolved"
}

func (err *AccessRestrictedError) Error() string {
	return fmt.Sprintf("access restricted: %s", err.Detail)
}

func (err *MissingOutputError) Error() string {
	return fmt.Sprintf("engine reported a completed download but no output exists at %s", err.Path)
}

func (err *UnclassifiedError) Error() string {
	return fmt.Sprintf("extraction failed: %s", err.Detail)
}
