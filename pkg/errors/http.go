package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var httpStatusByCode = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrUnauthorized:    http.StatusForbidden,
	ErrConflict:        http.StatusConflict,
	ErrTimeout:         http.StatusGatewayTimeout,
	ErrNotImplemented:  http.StatusNotImplemented,
	ErrUnprocessable:   http.StatusUnprocessableEntity,
}

// ToHTTPStatus 에러 코드 -> HTTP 상태 코드
func ToHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ToHTTPError 에러를 echo.HTTPError 로 변환합니다.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	if echoErr, ok := err.(*echo.HTTPError); ok {
		return echoErr
	}

	var coder Coder
	if As(err, &coder) {
		return echo.NewHTTPError(ToHTTPStatus(coder.Code()), err.Error()).SetInternal(err)
	}

	// 코드가 없는 에러는 내부 메시지를 노출하지 않는다
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
}

// FromHTTPError echo.HTTPError 를 AppError 로 변환합니다.
func FromHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var coder Coder
	if As(err, &coder) {
		return err
	}

	if echoErr, ok := err.(*echo.HTTPError); ok {
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = http.StatusText(echoErr.Code)
		}
		return NewAppError(httpStatusToCode(echoErr.Code), msg, nil)
	}

	return NewAppError(ErrInternal, err.Error(), err)
}

func httpStatusToCode(status int) string {
	for code, s := range httpStatusByCode {
		if s == status {
			return code
		}
	}
	return ErrInternal
}
