package models

import "fmt"

// Decode and format failure reasons
const (
	ReasonBadLength  = "bad-length"
	ReasonNonNumeric = "non-numeric"
	ReasonFieldCount = "field-count"
)

// FormatError reports a bulletin that cannot be split into its logical fields
type FormatError struct {
	Reason string
	Got    int
	Want   int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed bulletin: %s (got %d fields, want %d)", e.Reason, e.Got, e.Want)
}

// DecodeError reports a zone payload that cannot be decoded
type DecodeError struct {
	Reason  string
	Field   string // set for non-numeric failures
	Payload string
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid zone payload %q: %s in %s", e.Payload, e.Reason, e.Field)
	}
	return fmt.Sprintf("invalid zone payload %q: %s (length %d, want %d)", e.Payload, e.Reason, len(e.Payload), ZonePayloadLen)
}

// ValidationError reports an author-side bulletin field that does not fit its fixed width
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s (%q) %s", e.Field, e.Value, e.Msg)
}
