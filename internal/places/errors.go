package places

import (
	"ctchen222/FindMy/internal/upstream"
	"errors"
	"fmt"
	"net/http"
)

// ErrCityUnavailable is returned when the caller's coordinates do not
// reverse-geocode to a named city.
var ErrCityUnavailable = errors.New("could not determine city")

// FetchError describes a failed call to a feature service. Status is the
// upstream HTTP status, or 502 when no usable response was received.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// transportError keeps the cause out of Message: it may carry request URLs
// with credentials in the query string.
func transportError(service string, err error) *FetchError {
	reason := "service unavailable"
	if upstream.IsTimeout(err) {
		reason = "service timed out"
	}
	return &FetchError{
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("Error fetching %s: %s", service, reason),
		Err:     err,
	}
}

func malformedResponse(service string, err error) *FetchError {
	return &FetchError{
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("Error fetching %s: malformed response", service),
		Err:     err,
	}
}

// MalformedRecordError describes one upstream record that could not be read
// in full. It is logged and the record's optional fields fall back to their
// defaults; it never aborts a list operation.
type MalformedRecordError struct {
	Service string
	Index   int
	Err     error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record %d: %v", e.Service, e.Index, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
