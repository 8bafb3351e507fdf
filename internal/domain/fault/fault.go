package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an engine error so the calling layer can decide retry and
// user-facing behaviour without parsing messages.
type Kind string

const (
	KindSkillNotFound Kind = "skill_not_found"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindExpired       Kind = "expired"
	KindTransient     Kind = "transient"
	KindInvalidInput  Kind = "invalid_input"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, e.Fields[k])
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// With returns a copy carrying an extra contextual id (worker_id, job_id, ...).
func (e *Error) With(key, value string) *Error {
	if e == nil {
		return nil
	}
	out := &Error{Kind: e.Kind, Message: e.Message, Cause: e.Cause}
	out.Fields = make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	out.Fields[key] = value
	return out
}

func SkillNotFound(input string) *Error {
	return New(KindSkillNotFound, "skill does not resolve").With("skill", input)
}

func NotFound(entity, id string) *Error {
	return New(KindNotFound, entity+" not found").With(entity+"_id", id)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Expired(message string) *Error {
	return New(KindExpired, message)
}

func Transient(message string, cause error) *Error {
	return Wrap(KindTransient, message, cause)
}

func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message)
}

// KindOf extracts the kind of err, or "" when err is not an engine error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
