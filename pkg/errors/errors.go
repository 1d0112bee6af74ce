// Package errors 는 서비스 공통 에러 코드와 AppError 를 제공합니다.
package errors

import (
	"errors"
	"fmt"
)

// 공통 에러 코드
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"
	ErrUnprocessable   = "UNPROCESSABLE"
)

var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// Coder 는 에러 코드를 노출하는 에러입니다. AppError 외의 도메인 에러도
// Code() 만 구현하면 HTTP 변환과 로깅에서 같은 규칙을 따릅니다.
type Coder interface {
	error
	Code() string
}

// AppError 코드, 메시지, 원인 에러를 묶은 기본 구현체
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string    { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.err }

// NewAppError 새 애플리케이션 에러
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

// Newf 원인 에러 없이 포맷 메시지로 생성
func Newf(code string, format string, args ...interface{}) *AppError {
	return &AppError{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap 기존 에러를 감쌉니다. 원인 에러의 코드는 유지됩니다.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeOf(err), message, err)
}

// CodeOf 에러 체인에서 첫 번째 코드를 찾고, 없으면 INTERNAL
func CodeOf(err error) string {
	var coder Coder
	if As(err, &coder) {
		return coder.Code()
	}
	return ErrInternal
}
