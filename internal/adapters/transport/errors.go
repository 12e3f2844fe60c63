package transport

import "fmt"

// StatusError is a non-2xx reply. It travels as the cause of a TRANSPORT_FAILURE.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}
