package eventproc

import (
	"errors"
	"fmt"
)

// Kind identifies a class of business failure reported by a handler.
type Kind int

// Well-known kinds. KindUnknown covers every tag outside this set; the tag
// itself is kept on the Error.
const (
	KindUnknown Kind = iota
	KindGeneric
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindForbidden
	KindUserDenied
	KindResourceDenied
	KindExpired
)

// kindTags is the only place the well-known wire tags are listed.
var kindTags = map[Kind]string{
	KindGeneric:        "error",
	KindBadRequest:     "badRequest",
	KindUnauthorized:   "unauthorized",
	KindNotFound:       "notFound",
	KindForbidden:      "forbidden",
	KindUserDenied:     "userDenied",
	KindResourceDenied: "resourceDenied",
	KindExpired:        "expired",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		m[tag] = k
	}
	return m
}()

// String returns the wire tag of a well-known kind, or "unknown".
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "unknown"
}

// ErrorDetail is the machine-readable part of a business failure. It becomes
// the payload of an error response.
type ErrorDetail struct {
	Code       string `json:"code"`
	Parameters any    `json:"parameters"`
}

// Error is a business failure returned by a handler. It pairs a kind (and,
// for KindUnknown, the original tag) with one ErrorDetail.
//
// Handlers are not limited to the well-known kinds: any tag passed to
// NewError survives transport and ExtractError unchanged.
type Error struct {
	kind   Kind
	label  string
	detail ErrorDetail
}

// NewError maps tag to its kind and wraps detail. Unrecognized tags,
// including the empty string, produce a KindUnknown error carrying the tag.
func NewError(tag string, detail ErrorDetail) *Error {
	if k, ok := tagKinds[tag]; ok {
		return &Error{kind: k, detail: detail}
	}
	return &Error{kind: KindUnknown, label: tag, detail: detail}
}

func newKindError(k Kind, code string, params any) *Error {
	return &Error{kind: k, detail: ErrorDetail{Code: code, Parameters: params}}
}

// GenericError returns a KindGeneric error (tag "error").
func GenericError(code string, params any) *Error {
	return newKindError(KindGeneric, code, params)
}

// BadRequest returns a KindBadRequest error.
func BadRequest(code string, params any) *Error {
	return newKindError(KindBadRequest, code, params)
}

// Unauthorized returns a KindUnauthorized error.
func Unauthorized(code string, params any) *Error {
	return newKindError(KindUnauthorized, code, params)
}

// NotFound returns a KindNotFound error.
func NotFound(code string, params any) *Error {
	return newKindError(KindNotFound, code, params)
}

// Forbidden returns a KindForbidden error.
func Forbidden(code string, params any) *Error {
	return newKindError(KindForbidden, code, params)
}

// UserDenied returns a KindUserDenied error.
func UserDenied(code string, params any) *Error {
	return newKindError(KindUserDenied, code, params)
}

// ResourceDenied returns a KindResourceDenied error.
func ResourceDenied(code string, params any) *Error {
	return newKindError(KindResourceDenied, code, params)
}

// Expired returns a KindExpired error.
func Expired(code string, params any) *Error {
	return newKindError(KindExpired, code, params)
}

// Kind returns the error's kind.
func (e *Error) Kind() Kind { return e.kind }

// Tag returns the wire tag used as the suffix of the response name.
// NewError(e.Tag(), d).Tag() == e.Tag() for every error.
func (e *Error) Tag() string {
	if e.kind == KindUnknown {
		return e.label
	}
	return kindTags[e.kind]
}

// Detail returns the carried ErrorDetail.
func (e *Error) Detail() ErrorDetail { return e.detail }

// Code is shorthand for Detail().Code.
func (e *Error) Code() string { return e.detail.Code }

func (e *Error) Error() string {
	return fmt.Sprintf("error type: %q, code: %q", e.Tag(), e.detail.Code)
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// DecodeError is returned by Decode when raw input is not a well-formed
// event. It wraps the underlying parse or shape failure.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string { return e.err.Error() }
func (e *DecodeError) Unwrap() error { return e.err }
