package dcql

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedQuery is wrapped by every error returned from ParseQuery.
	ErrMalformedQuery = errors.New("malformed DCQL query")

	// ErrInvalidPath reports a claims path pointer that cannot be applied to
	// the shape of the credential data, e.g. indexing into an object.
	ErrInvalidPath = errors.New("invalid claims path")

	// ErrUnsupportedValueComparison reports a values constraint on an mdoc data
	// element whose CBOR type cannot be compared.
	ErrUnsupportedValueComparison = errors.New("unsupported value comparison")

	ErrInvalidCredential = errors.New("invalid credential")
)

// CredentialQueryError is returned by Query.Execute when a required credential
// query or credential set query cannot be satisfied by the given credentials.
// It is the only error callers are expected to recover from.
type CredentialQueryError struct {
	Message string
}

func (e *CredentialQueryError) Error() string {
	return e.Message
}

func noMatchesForQuery(id string) error {
	return &CredentialQueryError{
		Message: fmt.Sprintf("No matches for credential query with id %s", id),
	}
}

func noMatchesForCredentialSet(purpose string) error {
	return &CredentialQueryError{
		Message: fmt.Sprintf("No credentials match required credential_set query with purpose %s", purpose),
	}
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedQuery, fmt.Sprintf(format, args...))
}
