package utils

import (
	"errors"
	"fmt"
)

// FetchKind classifies why an upstream call failed.
type FetchKind string

const (
	FetchTransport FetchKind = "transport"
	FetchStatus    FetchKind = "status"
	FetchDecode    FetchKind = "decode"
)

// FetchError is returned for every failed upstream call. All kinds collapse to
// the same fallback in callers; the kind is kept for logs and health reasons.
type FetchError struct {
	Kind   FetchKind
	Path   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchStatus:
		return fmt.Sprintf("upstream %s: status %d", e.Path, e.Status)
	default:
		return fmt.Sprintf("upstream %s: %s: %v", e.Path, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchErrorKind extracts the kind from err, or "" when err is not a FetchError.
func FetchErrorKind(err error) FetchKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
