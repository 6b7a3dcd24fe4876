package validation

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Field messages shared by every request validator
const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
)

// MaxLengthMessage is reported for strings longer than n characters
func MaxLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// MinLengthMessage is reported for strings shorter than n characters
func MinLengthMessage(n int) string {
	return fmt.Sprintf("Ensure this field has at least %d characters.", n)
}

// MinValueMessage is reported for numbers below n
func MinValueMessage(n int) string {
	return fmt.Sprintf("Ensure this value is greater than or equal to %d.", n)
}

// FieldErrors collects one message per field. The first message recorded
// for a field wins.
type FieldErrors struct {
	Fields map[string]string
}

// NewFieldError returns FieldErrors holding a single message
func NewFieldError(field, message string) *FieldErrors {
	return &FieldErrors{Fields: map[string]string{field: message}}
}

// Add records message for field unless it already has one
func (e *FieldErrors) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Has reports whether field has a message
func (e *FieldErrors) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Err returns e as an error, or nil when no field failed
func (e *FieldErrors) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RequireString checks a required string field against a maximum length
// counted in characters. max <= 0 disables the length check.
func (e *FieldErrors) RequireString(field, value string, max int) {
	switch {
	case value == "":
		e.Add(field, MsgRequired)
	case max > 0 && utf8.RuneCountInString(value) > max:
		e.Add(field, MaxLengthMessage(max))
	}
}

// NonBlankString checks a string that may be omitted as a whole but must
// not be blank where present
func (e *FieldErrors) NonBlankString(field, value string, max int) {
	switch {
	case value == "":
		e.Add(field, MsgBlank)
	case max > 0 && utf8.RuneCountInString(value) > max:
		e.Add(field, MaxLengthMessage(max))
	}
}

// OptionalString checks only the length of an optional string
func (e *FieldErrors) OptionalString(field, value string, max int) {
	if max > 0 && utf8.RuneCountInString(value) > max {
		e.Add(field, MaxLengthMessage(max))
	}
}

// MinInt checks value >= min
func (e *FieldErrors) MinInt(field string, value, min int) {
	if value < min {
		e.Add(field, MinValueMessage(min))
	}
}
