// Package apperr classifies the failures toman surfaces to users.
//
// Every error returned by the api, board, assembler and service packages is
// either an *Error or wraps one, so callers can branch on Kind with KindOf or
// errors.Is against the sentinel kinds below.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a class of failure
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindHTTP
	KindValidation
	KindPermission
	KindNotFound
	KindNotLoaded
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindHTTP:
		return "http error"
	case KindValidation:
		return "validation error"
	case KindPermission:
		return "permission denied"
	case KindNotFound:
		return "not found"
	case KindNotLoaded:
		return "not loaded"
	}
	return "unknown error"
}

// Sentinels for errors.Is
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrHTTP       = &Error{Kind: KindHTTP}
	ErrValidation = &Error{Kind: KindValidation}
	ErrPermission = &Error{Kind: KindPermission}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrNotLoaded  = &Error{Kind: KindNotLoaded}
)

// NotLoadedMessage is shown when an action needs a signed-in user
const NotLoadedMessage = "User data is not loaded. Please try again or sign in."

// Error is a classified failure
type Error struct {
	Kind    Kind
	Message string
	Status  int               // HTTP status for KindHTTP / KindNotFound from the backend
	Fields  map[string]string // per-field messages for KindValidation
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, e.Fields[k])
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, ErrNotFound) works for any not-found error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Network wraps a transport failure
func Network(op string, err error) error {
	return &Error{Kind: KindNetwork, Message: op, Err: err}
}

// HTTP reports a non-success response
func HTTP(status int, message string) error {
	return &Error{Kind: KindHTTP, Status: status, Message: message}
}

// NotFound reports a missing resource
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Permission reports an action the actor's role does not allow
func Permission(format string, args ...any) error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports a single business-rule violation
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidFields reports per-field validation failures
func InvalidFields(fields map[string]string) error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

// NotLoaded reports that no signed-in user is available
func NotLoaded() error {
	return &Error{Kind: KindNotLoaded, Message: NotLoadedMessage}
}

// UserMessage renders err for inline display
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindNetwork:
			return "Cannot reach the server. Check your connection and retry."
		case KindNotLoaded:
			return NotLoadedMessage
		}
	}
	return err.Error()
}
