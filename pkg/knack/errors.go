package knack

import (
	"errors"
	"fmt"
	"strings"
)

// FetchKind classifies fetch failures.
type FetchKind string

const (
	FetchNotFound  FetchKind = "not_found"
	FetchTransport FetchKind = "transport"
	FetchStatus    FetchKind = "status"
	FetchDecode    FetchKind = "decode"
	FetchContract  FetchKind = "contract"
	FetchInvalid   FetchKind = "invalid_request"
)

// Sentinels matched by FetchError.Is.
var (
	ErrNotFound       = errors.New("knack: not found")
	ErrTransport      = errors.New("knack: transport error")
	ErrInvalidRequest = errors.New("knack: invalid request")
)

// FetchError reports a failed read against the API.
type FetchError struct {
	Op       string
	ObjectID string
	RecordID string
	Status   int
	Kind     FetchKind
	Err      error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("knack: ")
	b.WriteString(e.Op)
	b.WriteString(" ")
	b.WriteString(e.ObjectID)
	if e.RecordID != "" {
		b.WriteString("/")
		b.WriteString(e.RecordID)
	}
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets callers match on ErrNotFound, ErrTransport and ErrInvalidRequest.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == FetchNotFound
	case ErrTransport:
		return e.Kind == FetchTransport
	case ErrInvalidRequest:
		return e.Kind == FetchInvalid
	default:
		return false
	}
}

// IsNotFound reports whether err is a not-found fetch failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
