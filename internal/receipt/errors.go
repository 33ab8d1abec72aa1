package receipt

import "fmt"

// Kind classifies why a receipt could not be produced.
type Kind string

const (
	KindMissingData   Kind = "missing_data"
	KindEmptyCart     Kind = "empty_cart"
	KindFormatFailure Kind = "format_failure"
)

// FormatError is returned by Formatter.Render and Formatter.Format.
type FormatError struct {
	Kind    Kind
	Message string
	Err     error
}

func newFormatError(kind Kind, msg string, err error) *FormatError {
	return &FormatError{Kind: kind, Message: msg, Err: err}
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("receipt %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("receipt %s: %s", e.Kind, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Err }
