package services

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential       = errors.New("missing credential")
	ErrVendorRequestFailed     = errors.New("vendor request failed")
	ErrMalformedVendorResponse = errors.New("malformed vendor response")
	ErrNetworkFailure          = errors.New("network failure")

	ErrBusy   = errors.New("a request is already in flight for this session")
	ErrNoPlan = errors.New("no trip plan to ask about yet")
)

// MissingCredentialError names the vendor key that has to be set before a
// call can be attempted.
type MissingCredentialError struct {
	Key string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not set", e.Key)
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// FlightSearchError is returned by flight search. Message holds the vendor's
// own error text when it sent one.
type FlightSearchError struct {
	Kind    error
	Message string
	Err     error
}

func (e *FlightSearchError) Error() string {
	return vendorErrorString("flight search", e.Kind, e.Message, e.Err)
}

func (e *FlightSearchError) Unwrap() []error {
	return unwrapKind(e.Kind, e.Err)
}

// GenerationError is returned by the text generation vendors.
type GenerationError struct {
	Vendor  string
	Kind    error
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return vendorErrorString(e.Vendor+" generation", e.Kind, e.Message, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return unwrapKind(e.Kind, e.Err)
}

// ValidationError reports a required trip form field left empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

func vendorErrorString(op string, kind error, msg string, cause error) string {
	s := op + " failed"
	if kind != nil {
		s += ": " + kind.Error()
	}
	if msg != "" {
		s += ": " + msg
	} else if cause != nil {
		s += ": " + cause.Error()
	}
	return s
}

func unwrapKind(kind, cause error) []error {
	errs := make([]error, 0, 2)
	if kind != nil {
		errs = append(errs, kind)
	}
	if cause != nil {
		errs = append(errs, cause)
	}
	return errs
}
