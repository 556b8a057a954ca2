package httperr

import (
	"errors"
	"net/http"
)

// Kind classifies a BusinessError. Each kind has one propagation policy:
// everything except KindTransientStore is resolved by the caller and never
// retried automatically.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindForbidden      Kind = "forbidden"
	KindTransientStore Kind = "transient_store"
)

type BusinessError struct {
	Kind Kind
	Code string
	Err  error
}

func (e BusinessError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e BusinessError) Unwrap() error {
	return e.Err
}

func ErrBusiness(kind Kind, code string) error {
	return BusinessError{Kind: kind, Code: code}
}

func Validation(code string) error     { return ErrBusiness(KindValidation, code) }
func Authentication(code string) error { return ErrBusiness(KindAuthentication, code) }
func Conflict(code string) error       { return ErrBusiness(KindConflict, code) }
func NotFoundErr(code string) error    { return ErrBusiness(KindNotFound, code) }
func Forbidden(code string) error      { return ErrBusiness(KindForbidden, code) }

// TransientStore wraps a store-side failure so the cause survives for logging
// while the caller only sees the code.
func TransientStore(code string, cause error) error {
	return BusinessError{Kind: KindTransientStore, Code: code, Err: cause}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func IsKind(err error, kind Kind) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindTransientStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
