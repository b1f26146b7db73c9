package content

import "errors"

var (
	// ErrNetwork marks transport and endpoint failures.
	ErrNetwork = errors.New("network error")

	// ErrFormat marks responses that do not have the expected shape.
	ErrFormat = errors.New("format error")
)

// FetchError carries a human-readable reason for a failed fetch together
// with its kind (ErrNetwork or ErrFormat).
type FetchError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	return e.Reason
}

func (e *FetchError) Is(target error) bool {
	return target == e.Kind
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func networkError(reason string, err error) *FetchError {
	return &FetchError{Kind: ErrNetwork, Reason: reason, Err: err}
}

func formatError(reason string, err error) *FetchError {
	return &FetchError{Kind: ErrFormat, Reason: reason, Err: err}
}
