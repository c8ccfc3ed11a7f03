package common

import (
	"errors"
	"fmt"
)

// Batch-level sentinel errors.
var (
	ErrEmptyBatch         = errors.New("input collection is empty")
	ErrDocumentUnreadable = errors.New("document unreadable")
)

// AmountParseError is returned by the amount normalizer when non-numeric
// content remains after separator resolution, or when the separator layout
// is not covered by the decision table.
type AmountParseError struct {
	Input  string
	Reason string
}

func (e *AmountParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unparseable amount %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("unparseable amount %q", e.Input)
}

// RowParseError marks a line-item row that does not match the expected
// column shape. It is recorded as a diagnostic, never fatal.
type RowParseError struct {
	Row    int
	Line   string
	Reason string
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("line item row %d: %s: %q", e.Row, e.Reason, e.Line)
}

// MissingFieldError records an absent header field.
type MissingFieldError struct {
	Field    string
	Required bool
}

func (e *MissingFieldError) Error() string {
	if e.Required {
		return fmt.Sprintf("required field %q not found", e.Field)
	}
	return fmt.Sprintf("field %q not found", e.Field)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
