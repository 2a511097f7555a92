package ticktick

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when no API token is configured.
	ErrMissingToken = errors.New("ticktick API token is not configured")

	// ErrInvalidTimezone is returned when a timezone name cannot be resolved.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidJSON is wrapped by UpstreamError when a successful response
	// does not carry a JSON document.
	ErrInvalidJSON = errors.New("response body is not valid JSON")
)

// UpstreamError describes a failed call against the TickTick Open API.
type UpstreamError struct {
	// Op is the client operation, e.g. "list_projects".
	Op string

	Method string
	Path   string

	// StatusCode is zero for transport failures.
	StatusCode int

	// Body holds the (possibly truncated) response body of a non-2xx reply.
	Body string

	Err error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	prefix := fmt.Sprintf("ticktick %s: %s %s", e.Op, e.Method, e.Path)
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", prefix, e.StatusCode, e.Err)
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", prefix, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", prefix, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
}

// Unwrap implements the errors.Unwrap interface
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode
	}
	return 0
}
