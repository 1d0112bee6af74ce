package errors

import (
	"go.uber.org/zap"
)

// LogError 에러를 error_code 필드와 함께 기록합니다.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.Error(err), zap.String("error_code", CodeOf(err)))
	all = append(all, fields...)

	// 클라이언트 입력 문제는 Warn 으로 충분하다
	switch CodeOf(err) {
	case ErrNotFound, ErrInvalidArgument, ErrConflict, ErrUnprocessable:
		logger.Warn(msg, all...)
	default:
		logger.Error(msg, all...)
	}
}
