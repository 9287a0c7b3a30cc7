// Package apperr définit les catégories d'erreurs métier partagées par les services.
// La traduction en code HTTP se fait uniquement dans les handlers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	NotFound
	InvalidArgument
	InvalidState
	DependencyFailure
	Conflict
	Unauthorized
	Forbidden
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case InvalidState:
		return "invalid_state"
	case DependencyFailure:
		return "dependency_failure"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is permet errors.Is(err, &apperr.Error{Kind: apperr.NotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error        { return newf(NotFound, format, args...) }
func InvalidArgumentf(format string, args ...any) error { return newf(InvalidArgument, format, args...) }
func InvalidStatef(format string, args ...any) error    { return newf(InvalidState, format, args...) }
func Conflictf(format string, args ...any) error        { return newf(Conflict, format, args...) }
func Unauthorizedf(format string, args ...any) error    { return newf(Unauthorized, format, args...) }
func Forbiddenf(format string, args ...any) error       { return newf(Forbidden, format, args...) }

// Dependency enveloppe l'échec d'un collaborateur externe (mail, PDF, index...).
func Dependency(err error, format string, args ...any) error {
	return &Error{Kind: DependencyFailure, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf retourne la catégorie de la première *Error de la chaîne, Internal sinon.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
