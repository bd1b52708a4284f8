package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnverifiedResponse marks gateway data whose signature could not be confirmed
	ErrUnverifiedResponse = errors.New("gateway response signature could not be verified")

	// ErrMissingSignature is returned when a signed message carries no Signature field
	ErrMissingSignature = errors.New("signature field is missing")

	// ErrEmptyBody is returned when the gateway answers with no content
	ErrEmptyBody = errors.New("empty response body")
)

// ConfigurationError reports bad key material, identifiers or URLs.
// It is raised before any message is built.
type ConfigurationError struct {
	Field string
	Cause error
}

func (e *ConfigurationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("invalid configuration: %s", e.Field)
	}
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// SignatureError reports an unusable signing key or a failed verification
type SignatureError struct {
	Op    string
	Cause error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature %s failed: %v", e.Op, e.Cause)
}

func (e *SignatureError) Unwrap() error { return e.Cause }

// TransportError reports network, status or body failures of a direct exchange
type TransportError struct {
	Op         string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport %s failed with status %d: %v", e.Op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ResponseFormatError reports a verified response lacking an expected field
type ResponseFormatError struct {
	Field string
	Cause error
}

func (e *ResponseFormatError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("malformed response: field %q is missing", e.Field)
	}
	return fmt.Sprintf("malformed response: field %q: %v", e.Field, e.Cause)
}

func (e *ResponseFormatError) Unwrap() error { return e.Cause }

// GatewayError is a verified response whose Status reports a failure
type GatewayError struct {
	Status  string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %s", e.Status)
	}
	return fmt.Sprintf("gateway returned status %s: %s", e.Status, e.Message)
}
