package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeCowNotFound         = "COW_NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeAlreadyCompleted    = "ALREADY_COMPLETED"
	CodeAlreadyRegistered   = "ALREADY_REGISTERED"
	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeVerificationExpired = "VERIFICATION_EXPIRED"
	CodeTraceNotFound       = "TRACE_NOT_FOUND"
	CodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	CodeUpstreamMalformed   = "UPSTREAM_MALFORMED"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindExpired    Kind = "expired"
	KindUpstream   Kind = "upstream"
	KindInternal   Kind = "internal"
)

var codeKinds = map[string]Kind{
	CodeValidation:          KindValidation,
	CodeInvalidTransition:   KindValidation,
	CodeNotFound:            KindNotFound,
	CodeCowNotFound:         KindNotFound,
	CodeTraceNotFound:       KindNotFound,
	CodeForbidden:           KindForbidden,
	CodeAlreadyCompleted:    KindConflict,
	CodeAlreadyRegistered:   KindConflict,
	CodeVersionConflict:     KindConflict,
	CodeVerificationExpired: KindExpired,
	CodeUpstreamTimeout:     KindUpstream,
	CodeUpstreamMalformed:   KindUpstream,
	CodeUpstreamUnavailable: KindUpstream,
	CodeInternal:            KindInternal,
}

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func (b *BusinessError) Kind() Kind {
	if kind, ok := codeKinds[b.Code]; ok {
		return kind
	}
	return KindInternal
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewForbidden(message string, details ...Detail) *BusinessError {
	return NewBusinessError(CodeForbidden, message, details...)
}

func NewConflict(code, message string, details ...Detail) *BusinessError {
	return NewBusinessError(code, message, details...)
}

func NewExpired(message string, details ...Detail) *BusinessError {
	return NewBusinessError(CodeVerificationExpired, message, details...)
}

func NewUpstream(code, message string, err error) *BusinessError {
	busErr := NewBusinessError(code, message)
	busErr.Err = err
	return busErr
}

func NewInternal(message string, err error) *BusinessError {
	busErr := NewBusinessError(CodeInternal, message)
	busErr.Err = err
	return busErr
}

// AsBusiness достаёт BusinessError из цепочки ошибок
func AsBusiness(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

