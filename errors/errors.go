package errors

import (
	// Go Internal Packages
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error by who caused it and how the caller should react.
type Kind uint8

const (
	Other      Kind = iota // Unclassified error.
	Invalid                // Client supplied something invalid.
	Connection             // Broker unreachable or authentication failed.
	RunLoop                // Consumer run loop stopped after subscription.
	Internal               // Anything else that went wrong inside the relay.
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Connection:
		return "connection"
	case RunLoop:
		return "run_loop"
	case Internal:
		return "internal"
	default:
		return "other"
	}
}

// Error is a kind-tagged error carrying a caller-facing message and an
// optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// E builds a new *Error.
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so package level
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// KindOf returns the kind of the outermost *Error in the chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Message returns the caller-facing message of the outermost *Error in the
// chain, falling back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Cause returns the text of the underlying error, used for the "details"
// field of failure envelopes.
func Cause(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Is and As re-export the standard helpers so callers importing this package
// under the name errors keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

// ValidationErrors accumulates per-field validation failures.
type ValidationErrors struct {
	fields map[string][]string
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

// Add records msg against field.
func (v *ValidationErrors) Add(field, msg string) {
	v.fields[field] = append(v.fields[field], msg)
}

// Err returns nil when nothing was added.
func (v *ValidationErrors) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.fields[k], ", ")))
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failing field names in sorted order.
func (v *ValidationErrors) Fields() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
