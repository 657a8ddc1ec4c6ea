package domain

import "errors"

var (
	// ErrNotConfigured means a provider credential or setting is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrGeocode and ErrPersist abort a search; nothing is written.
	ErrGeocode  = errors.New("geocode failed")
	ErrPersist  = errors.New("persist listings failed")
	ErrUpstream = errors.New("upstream request failed")

	// ErrMalformedVerdict is returned by the review service client when the
	// model output does not have the required shape.
	ErrMalformedVerdict = errors.New("malformed review verdict")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }
