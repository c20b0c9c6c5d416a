package completion

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport reports that the provider could not be reached or
	// answered with a failure status.
	ErrTransport = errors.New("completion transport failure")

	// ErrMalformedResponse reports an answer that does not satisfy the
	// requested schema.
	ErrMalformedResponse = errors.New("malformed completion response")

	// ErrUnknownProvider reports a provider name New does not know.
	ErrUnknownProvider = errors.New("unknown completion provider")

	// ErrScriptExhausted reports a Scripted completer with no answers left.
	ErrScriptExhausted = errors.New("scripted answers exhausted")
)

// ResponseError describes an answer rejected by schema validation.
type ResponseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *ResponseError) Error() string {
	if errors.Is(e.Err, ErrMalformedResponse) {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, ErrMalformedResponse, e.Err)
}

func (e *ResponseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsMalformed reports whether err is a schema validation failure.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

func transportError(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrTransport, err)
}
